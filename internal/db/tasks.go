package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

const taskColumns = `id, project_id, parent_id, title, description, status, position, expanded, archived,
	created_by, tags, attachments, activity, ai_context, suggested_steps, ai_media, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (models.Task, error) {
	var (
		t                                    models.Task
		parent                               sql.NullString
		status                               string
		tags, attachments, activity, aiMedia string
	)
	err := row.Scan(&t.ID, &t.ProjectID, &parent, &t.Title, &t.Description, &status, &t.Position,
		&t.Expanded, &t.Archived, &t.CreatedBy, &tags, &attachments, &activity,
		&t.AIContext, &t.SuggestedSteps, &aiMedia, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	t.ParentID = parent.String
	if t.Status, err = models.ParseStatus(status); err != nil {
		return t, err
	}
	for _, col := range []struct {
		raw string
		dst any
	}{
		{tags, &t.Tags},
		{attachments, &t.Attachments},
		{activity, &t.Activity},
		{aiMedia, &t.AIMedia},
	} {
		if err := fromJSON(col.raw, col.dst); err != nil {
			return t, fmt.Errorf("task %s: %w", t.ID, err)
		}
	}
	return t, nil
}

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

func fromJSON(raw string, dst any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func taskCols(t models.Task) map[string]string {
	return map[string]string{"project_id": t.ProjectID}
}

// InsertTask creates a task with a caller-chosen id
func (db *DB) InsertTask(ctx context.Context, t models.Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}

	var blobs [4]string
	for i, v := range []any{t.Tags, t.Attachments, t.Activity, t.AIMedia} {
		s, err := toJSON(v)
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
		blobs[i] = s
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, parent_id, title, description, status, position, expanded, archived,
			created_by, tags, attachments, activity, ai_context, suggested_steps, ai_media, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ID, t.ProjectID, nullString(t.ParentID), t.Title, t.Description, string(t.Status), t.Position, t.Expanded, t.Archived,
		t.CreatedBy, blobs[0], blobs[1], blobs[2], t.AIContext, t.SuggestedSteps, blobs[3], t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	db.publish("tasks", realtime.OpInsert, t.ID, taskCols(t))
	return nil
}

// GetTask retrieves a task by ID
func (db *DB) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := scanTask(db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// ListTasks returns every task of the given projects ordered by position
func (db *DB) ListTasks(ctx context.Context, projectIDs []string) ([]models.Task, error) {
	if len(projectIDs) == 0 {
		return nil, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(projectIDs)), ",")
	args := make([]any, len(projectIDs))
	for i, id := range projectIDs {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE project_id IN (`+marks+`)
		ORDER BY position ASC, created_at ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTask applies the non-nil fields of patch
func (db *DB) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	addJSON := func(col string, v any) error {
		s, err := toJSON(v)
		if err != nil {
			return err
		}
		add(col, s)
		return nil
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Position != nil {
		add("position", *patch.Position)
	}
	if patch.ParentID != nil {
		add("parent_id", nullString(*patch.ParentID))
	}
	if patch.Expanded != nil {
		add("expanded", *patch.Expanded)
	}
	if patch.Archived != nil {
		add("archived", *patch.Archived)
	}
	if patch.AIContext != nil {
		add("ai_context", *patch.AIContext)
	}
	if patch.SuggestedSteps != nil {
		add("suggested_steps", *patch.SuggestedSteps)
	}
	if patch.Tags != nil {
		if err := addJSON("tags", *patch.Tags); err != nil {
			return fmt.Errorf("update task %s: %w", id, err)
		}
	}
	if patch.AIMedia != nil {
		if err := addJSON("ai_media", *patch.AIMedia); err != nil {
			return fmt.Errorf("update task %s: %w", id, err)
		}
	}
	if len(sets) == 0 {
		return nil
	}

	add("updated_at", now())
	args = append(args, id)
	err := affected(db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...))
	if err != nil {
		return fmt.Errorf("update task %s: %w", id, err)
	}
	db.publish("tasks", realtime.OpUpdate, id, nil)
	return nil
}

// DeleteTask deletes a task; its subtasks go with it through the parent_id
// foreign key
func (db *DB) DeleteTask(ctx context.Context, id string) error {
	err := affected(db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id))
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	db.publish("tasks", realtime.OpDelete, id, nil)
	return nil
}

// TaskCounts returns the number of tasks and how many are completed
func (db *DB) TaskCounts(ctx context.Context) (total, completed int, err error) {
	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0)
		FROM tasks
	`).Scan(&total, &completed)
	return total, completed, err
}
