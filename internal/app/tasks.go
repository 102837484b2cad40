package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/apolo/internal/cascade"
	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ordering"
	"github.com/tgienger/apolo/internal/tree"
)

func newActivity(kind models.ActivityKind, content, by string) models.ActivityLog {
	return models.ActivityLog{
		ID:        uuid.NewString(),
		Content:   content,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		CreatedBy: by,
	}
}

// locate finds the project and task for taskID in the current state
func (s *Store) locate(taskID string) (string, models.Task, error) {
	pid, t, ok := s.Snapshot().LocateTask(taskID)
	if !ok {
		return "", models.Task{}, ErrUnknown
	}
	return pid, t, nil
}

// expandWrite persists the expanded flag of parentID when a child lands
// under a collapsed parent
func (s *Store) expandWrite(f *tree.Forest, parentID string) func(context.Context) error {
	p, ok := f.Find(parentID)
	if !ok || p.Expanded {
		return nil
	}
	return func(ctx context.Context) error {
		return s.remote.UpdateTask(ctx, parentID, models.TaskPatch{Expanded: models.Ptr(true)})
	}
}

// AddTask appends a new task to parentID's children, or to the project's
// root list when parentID is empty
func (s *Store) AddTask(ctx context.Context, projectID, parentID, title string) (models.Task, error) {
	user, err := s.currentUser()
	if err != nil {
		return models.Task{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Task{}, errors.New("task title is required")
	}
	st := s.Snapshot()
	if _, ok := st.Project(projectID); !ok {
		return models.Task{}, ErrUnknown
	}
	f := st.Forest(projectID)
	if parentID != "" && !f.Has(parentID) {
		return models.Task{}, ErrUnknown
	}

	var keys []float64
	for _, c := range f.Children(parentID) {
		keys = append(keys, c.Position)
	}
	key, err := ordering.At(keys, len(keys))
	if err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	t := models.Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		ParentID:  parentID,
		Title:     title,
		Status:    models.StatusPending,
		Position:  key,
		Expanded:  true,
		CreatedBy: user.ID,
		CreatedAt: now,
		UpdatedAt: now,
		Activity:  []models.ActivityLog{newActivity(models.ActivityCreation, "Task created", user.ID)},
	}
	expand := s.expandWrite(f, parentID)

	err = s.commit(ctx, "add task", insertTask(t), func(ctx context.Context) error {
		if err := s.remote.InsertTask(ctx, t); err != nil {
			return err
		}
		if expand != nil {
			return expand(ctx)
		}
		return nil
	})
	return t, err
}

// UpdateTask changes task fields. Parent and status changes go through
// MoveTask and ToggleTaskStatus so the tree stays consistent.
func (s *Store) UpdateTask(ctx context.Context, taskID string, patch models.TaskPatch) error {
	patch.ParentID = nil
	patch.Status = nil
	if patch.Empty() {
		return nil
	}
	pid, _, err := s.locate(taskID)
	if err != nil {
		return err
	}
	return s.commit(ctx, "update task", patchTask(pid, taskID, patch), func(ctx context.Context) error {
		return s.remote.UpdateTask(ctx, taskID, patch)
	})
}

// ToggleTaskStatus flips a task between pending and completed and cascades
// the change through its subtree and ancestors. Every changed task is written
// separately; a failed write triggers a refetch rather than a rollback.
func (s *Store) ToggleTaskStatus(ctx context.Context, taskID string) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	pid, _, err := s.locate(taskID)
	if err != nil {
		return err
	}
	changes := cascade.Effective(cascade.Toggle(s.Snapshot().Forest(pid), taskID))
	if len(changes) == 0 {
		return nil
	}

	entry := newActivity(models.ActivityStatusChange, fmt.Sprintf("Marked as %s", changes[0].To), user.ID)
	r := chain(applyCascade(pid, changes), appendActivity(pid, taskID, entry))

	return s.commit(ctx, "update task status", r, func(ctx context.Context) error {
		var errs []error
		for _, c := range changes {
			if err := s.remote.UpdateTask(ctx, c.ID, models.TaskPatch{Status: models.Ptr(c.To)}); err != nil {
				errs = append(errs, fmt.Errorf("task %s: %w", c.ID, err))
			}
		}
		if err := s.remote.AppendActivity(ctx, taskID, entry); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
}

// DeleteTask removes a task and its whole subtree
func (s *Store) DeleteTask(ctx context.Context, taskID string) error {
	pid, _, err := s.locate(taskID)
	if err != nil {
		return err
	}
	return s.commit(ctx, "delete task", removeTask(pid, taskID), func(ctx context.Context) error {
		return s.remote.DeleteTask(ctx, taskID)
	})
}

// MoveTask drops dragged before, after or inside target. Dropping a task on
// itself does nothing; dropping it into its own subtree is refused.
func (s *Store) MoveTask(ctx context.Context, dragged, target string, p ordering.Placement) error {
	pid, _, err := s.locate(dragged)
	if err != nil {
		return err
	}
	f := s.Snapshot().Forest(pid)

	tgt, err := ordering.Drop(f, dragged, target, p)
	switch {
	case errors.Is(err, ordering.ErrSameNode):
		return nil
	case errors.Is(err, ordering.ErrExhausted):
		s.log.Info().Str("task", dragged).Msg("sibling keys exhausted, renumbering")
	case err != nil:
		return err
	}

	moves := []placement{{id: dragged, parentID: tgt.ParentID, index: tgt.Index, key: tgt.Key}}
	if err != nil {
		moves = renumber(f, dragged, tgt)
	}
	oldParent, _ := f.Parent(dragged)
	expand := s.expandWrite(f, tgt.ParentID)

	return s.commit(ctx, "move task", moveTasks(pid, moves), func(ctx context.Context) error {
		var errs []error
		for _, m := range moves {
			patch := models.TaskPatch{Position: models.Ptr(m.key)}
			if m.id == dragged && oldParent != tgt.ParentID {
				patch.ParentID = models.Ptr(tgt.ParentID)
			}
			if err := s.remote.UpdateTask(ctx, m.id, patch); err != nil {
				errs = append(errs, fmt.Errorf("task %s: %w", m.id, err))
			}
		}
		if expand != nil {
			errs = append(errs, expand(ctx))
		}
		return errors.Join(errs...)
	})
}

// renumber gives every sibling of the drop target a fresh key with dragged
// inserted at the target index
func renumber(f *tree.Forest, dragged string, tgt ordering.Target) []placement {
	ids := slices.DeleteFunc(f.ChildIDs(tgt.ParentID), func(id string) bool { return id == dragged })
	idx := max(0, min(tgt.Index, len(ids)))
	ids = slices.Insert(ids, idx, dragged)

	keys := ordering.Spread(len(ids))
	out := make([]placement, len(ids))
	for i, id := range ids {
		out[i] = placement{id: id, parentID: tgt.ParentID, index: i, key: keys[i]}
	}
	return out
}

// ToggleExpand collapses or expands a task in the tree view
func (s *Store) ToggleExpand(ctx context.Context, taskID string) error {
	pid, t, err := s.locate(taskID)
	if err != nil {
		return err
	}
	patch := models.TaskPatch{Expanded: models.Ptr(!t.Expanded)}
	return s.commit(ctx, "update task", patchTask(pid, taskID, patch), func(ctx context.Context) error {
		return s.remote.UpdateTask(ctx, taskID, patch)
	})
}
