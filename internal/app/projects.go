package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/ordering"
)

// AddProject creates a project owned by the current user. New projects are
// placed first in the list.
func (s *Store) AddProject(ctx context.Context, title, subtitle string) (models.Project, error) {
	user, err := s.currentUser()
	if err != nil {
		return models.Project{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Project{}, errors.New("project title is required")
	}

	key, err := ordering.At(s.Snapshot().projectKeys(), 0)
	if err != nil {
		return models.Project{}, err
	}
	p := models.Project{
		ID:        uuid.NewString(),
		Title:     title,
		Subtitle:  strings.TrimSpace(subtitle),
		OwnerID:   user.ID,
		CreatedAt: time.Now().UTC(),
		Position:  key,
	}

	err = s.commit(ctx, "create project", insertProject(p), func(ctx context.Context) error {
		return s.remote.InsertProject(ctx, p)
	})
	return p, err
}

// UpdateProject changes project fields. Position and archived state have
// their own operations.
func (s *Store) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) error {
	patch.Position = nil
	patch.Archived = nil
	if patch.Empty() {
		return nil
	}
	if _, ok := s.Snapshot().Project(id); !ok {
		return ErrUnknown
	}
	return s.commit(ctx, "update project", patchProject(id, patch), func(ctx context.Context) error {
		return s.remote.UpdateProject(ctx, id, patch)
	})
}

// SetProjectArchived archives or restores a project
func (s *Store) SetProjectArchived(ctx context.Context, id string, archived bool) error {
	p, ok := s.Snapshot().Project(id)
	if !ok {
		return ErrUnknown
	}
	if p.Archived == archived {
		return nil
	}
	patch := models.ProjectPatch{Archived: models.Ptr(archived)}
	intent := "archive project"
	if !archived {
		intent = "restore project"
	}
	return s.commit(ctx, intent, patchProject(id, patch), func(ctx context.Context) error {
		return s.remote.UpdateProject(ctx, id, patch)
	})
}

// MoveProject moves a project to index to of the project list. When the
// neighbouring keys are too close to split, every project is renumbered.
func (s *Store) MoveProject(ctx context.Context, id string, to int) error {
	st := s.Snapshot()
	from := -1
	for i, p := range st.Projects {
		if p.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return ErrUnknown
	}
	to = max(0, min(to, len(st.Projects)-1))
	if from == to {
		return nil
	}

	key, err := ordering.Reorder(st.projectKeys(), from, to)
	switch {
	case err == nil:
		patch := models.ProjectPatch{Position: models.Ptr(key)}
		return s.commit(ctx, "move project", patchProject(id, patch), func(ctx context.Context) error {
			return s.remote.UpdateProject(ctx, id, patch)
		})
	case errors.Is(err, ordering.ErrExhausted):
		s.log.Info().Str("project", id).Msg("project keys exhausted, renumbering")
		return s.renumberProjects(ctx, st, from, to)
	default:
		return err
	}
}

func (s *Store) renumberProjects(ctx context.Context, st State, from, to int) error {
	ids := make([]string, 0, len(st.Projects))
	for _, p := range st.Projects {
		ids = append(ids, p.ID)
	}
	moved := ids[from]
	ids = slices.Insert(slices.Delete(ids, from, from+1), to, moved)

	keys := ordering.Spread(len(ids))
	var rs []reducer
	for i, pid := range ids {
		rs = append(rs, patchProject(pid, models.ProjectPatch{Position: models.Ptr(keys[i])}))
	}
	return s.commit(ctx, "move project", chain(rs...), func(ctx context.Context) error {
		var errs []error
		for i, pid := range ids {
			if err := s.remote.UpdateProject(ctx, pid, models.ProjectPatch{Position: models.Ptr(keys[i])}); err != nil {
				errs = append(errs, fmt.Errorf("project %s: %w", pid, err))
			}
		}
		return errors.Join(errs...)
	})
}

// DeleteProject removes a project with all its tasks. Only the owner may
// delete it.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	st := s.Snapshot()
	if _, ok := st.Project(id); !ok {
		return ErrUnknown
	}
	if !st.IsOwner(id) {
		return ErrForbidden
	}
	return s.commit(ctx, "delete project", removeProject(id), func(ctx context.Context) error {
		return s.remote.DeleteProject(ctx, id)
	})
}

// JoinProject makes the current user a member of a shared project and loads
// it. Joining twice only sets a notice.
func (s *Store) JoinProject(ctx context.Context, projectID string) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ErrUnknown
	}

	var already bool
	err = s.commit(ctx, "join project", identity, func(ctx context.Context) error {
		err := s.remote.AddMember(ctx, models.Member{ProjectID: projectID, UserID: user.ID})
		if errors.Is(err, models.ErrAlreadyMember) {
			already = true
			return nil
		}
		return err
	})
	if err != nil {
		return err
	}
	if already {
		s.update(func(st State) State {
			st.Notice = "You are already a member of this project."
			return st
		})
	}
	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.update(func(st State) State {
		if _, ok := st.Project(projectID); ok {
			st.ActiveProjectID = projectID
			st.ActiveTaskID = ""
		}
		return st
	})
	return nil
}
