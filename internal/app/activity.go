package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tgienger/apolo/internal/ai"
	"github.com/tgienger/apolo/internal/models"
)

// AddActivity appends a comment to a task's history
func (s *Store) AddActivity(ctx context.Context, taskID, content string) error {
	user, err := s.currentUser()
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	pid, _, err := s.locate(taskID)
	if err != nil {
		return err
	}
	entry := newActivity(models.ActivityComment, content, user.ID)
	return s.commit(ctx, "add comment", appendActivity(pid, taskID, entry), func(ctx context.Context) error {
		return s.remote.AppendActivity(ctx, taskID, entry)
	})
}

// ownComment returns the comment entryID of taskID if the current user
// wrote it
func (s *Store) ownComment(taskID, entryID string) (string, error) {
	user, err := s.currentUser()
	if err != nil {
		return "", err
	}
	pid, t, err := s.locate(taskID)
	if err != nil {
		return "", err
	}
	i := slices.IndexFunc(t.Activity, func(a models.ActivityLog) bool { return a.ID == entryID })
	if i < 0 {
		return "", ErrUnknown
	}
	if a := t.Activity[i]; a.Kind != models.ActivityComment || a.CreatedBy != user.ID {
		return "", ErrForbidden
	}
	return pid, nil
}

// UpdateActivity edits a comment. Only its author may edit it.
func (s *Store) UpdateActivity(ctx context.Context, taskID, entryID, content string) error {
	pid, err := s.ownComment(taskID, entryID)
	if err != nil {
		return err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return s.DeleteActivity(ctx, taskID, entryID)
	}
	return s.commit(ctx, "edit comment", editActivity(pid, taskID, entryID, content), func(ctx context.Context) error {
		return s.remote.UpdateActivity(ctx, taskID, entryID, content)
	})
}

// DeleteActivity removes a comment. Only its author may remove it.
func (s *Store) DeleteActivity(ctx context.Context, taskID, entryID string) error {
	pid, err := s.ownComment(taskID, entryID)
	if err != nil {
		return err
	}
	return s.commit(ctx, "delete comment", dropActivity(pid, taskID, entryID), func(ctx context.Context) error {
		return s.remote.DeleteActivity(ctx, taskID, entryID)
	})
}

// AddAttachment links a file or URL to a task and logs it in the history
func (s *Store) AddAttachment(ctx context.Context, taskID, name string, kind models.AttachmentKind, url string) (models.Attachment, error) {
	user, err := s.currentUser()
	if err != nil {
		return models.Attachment{}, err
	}
	pid, _, err := s.locate(taskID)
	if err != nil {
		return models.Attachment{}, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return models.Attachment{}, fmt.Errorf("attachment %q has no payload", name)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = url
	}
	if kind == "" {
		kind = models.AttachmentLink
	}

	att := models.Attachment{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		URL:       url,
		CreatedBy: user.ID,
		CreatedAt: time.Now().UTC(),
	}
	entry := newActivity(models.ActivityAttachment, "Attached "+name, user.ID)
	r := chain(appendAttachment(pid, taskID, att), appendActivity(pid, taskID, entry))

	err = s.commit(ctx, "add attachment", r, func(ctx context.Context) error {
		if err := s.remote.AppendAttachment(ctx, taskID, att); err != nil {
			return err
		}
		return s.remote.AppendActivity(ctx, taskID, entry)
	})
	return att, err
}

// DeleteAttachment removes an attachment from a task
func (s *Store) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	pid, _, err := s.locate(taskID)
	if err != nil {
		return err
	}
	return s.commit(ctx, "delete attachment", dropAttachment(pid, taskID, attachmentID), func(ctx context.Context) error {
		return s.remote.DeleteAttachment(ctx, taskID, attachmentID)
	})
}

// AddMedia attaches inline context for the AI. An item with the same name
// replaces the previous one.
func (s *Store) AddMedia(ctx context.Context, taskID string, m models.MediaBlob) error {
	if err := m.Validate(); err != nil {
		return err
	}
	pid, t, err := s.locate(taskID)
	if err != nil {
		return err
	}
	media := slices.DeleteFunc(slices.Clone(t.AIMedia), func(x models.MediaBlob) bool { return x.Name == m.Name })
	media = append(media, m)
	patch := models.TaskPatch{AIMedia: &media}
	return s.commit(ctx, "attach media", patchTask(pid, taskID, patch), func(ctx context.Context) error {
		return s.remote.UpdateTask(ctx, taskID, patch)
	})
}

// RemoveMedia drops an AI context item by name
func (s *Store) RemoveMedia(ctx context.Context, taskID, name string) error {
	pid, t, err := s.locate(taskID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(t.AIMedia, func(x models.MediaBlob) bool { return x.Name == name }) {
		return nil
	}
	media := slices.DeleteFunc(slices.Clone(t.AIMedia), func(x models.MediaBlob) bool { return x.Name == name })
	patch := models.TaskPatch{AIMedia: &media}
	return s.commit(ctx, "remove media", patchTask(pid, taskID, patch), func(ctx context.Context) error {
		return s.remote.UpdateTask(ctx, taskID, patch)
	})
}

// SuggestSteps asks the AI for next steps on a task. A real answer is stored
// on the task and logged; a fallback reply is returned but not stored.
func (s *Store) SuggestSteps(ctx context.Context, taskID string) (string, error) {
	user, err := s.currentUser()
	if err != nil {
		return "", err
	}
	pid, t, err := s.locate(taskID)
	if err != nil {
		return "", err
	}
	p, _ := s.Snapshot().Project(pid)

	text := s.opts.Suggester.TaskSuggestions(ctx, ai.TaskContext{
		ProjectTitle: p.Title,
		Title:        t.Title,
		Description:  t.Description,
		Hidden:       t.AIContext,
		Media:        t.AIMedia,
	})
	if ai.IsFallback(text) {
		return text, nil
	}

	patch := models.TaskPatch{SuggestedSteps: models.Ptr(text)}
	entry := newActivity(models.ActivityAISuggestion, "AI suggested next steps", user.ID)
	r := chain(patchTask(pid, taskID, patch), appendActivity(pid, taskID, entry))
	err = s.commit(ctx, "save suggestions", r, func(ctx context.Context) error {
		if err := s.remote.UpdateTask(ctx, taskID, patch); err != nil {
			return err
		}
		return s.remote.AppendActivity(ctx, taskID, entry)
	})
	return text, err
}

// Advice answers a question about the active project. extra is optional
// study material pasted by the user.
func (s *Store) Advice(ctx context.Context, question, extra string) (string, error) {
	st := s.Snapshot()
	p, ok := st.ActiveProject()
	if !ok {
		return "", ErrUnknown
	}
	f := st.Forest(p.ID)
	var titles []string
	for _, t := range f.Rows() {
		if !t.Archived {
			titles = append(titles, t.Title)
		}
	}
	pc := ai.ProjectContext{
		Title:    p.Title,
		Subtitle: p.Subtitle,
		Tasks:    titles,
		Progress: f.ProjectProgress(),
	}
	return s.opts.Suggester.StrategicAdvice(ctx, pc, question, extra), nil
}
