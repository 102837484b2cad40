package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

// mutateJSON rewrites one JSON list column of a task inside a transaction.
// fn receives the decoded list and returns the replacement.
func mutateJSON[T any](ctx context.Context, db *DB, taskID, column string, fn func([]T) ([]T, error)) error {
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT `+column+` FROM tasks WHERE id = ?`, taskID).Scan(&raw)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var list []T
		if err := fromJSON(raw, &list); err != nil {
			return err
		}
		list, err = fn(list)
		if err != nil {
			return err
		}
		b, err := json.Marshal(list)
		if err != nil {
			return err
		}
		if list == nil {
			b = []byte("[]")
		}
		_, err = tx.ExecContext(ctx, `UPDATE tasks SET `+column+` = ?, updated_at = ? WHERE id = ?`, string(b), now(), taskID)
		return err
	})
	if err != nil {
		return fmt.Errorf("update %s of task %s: %w", column, taskID, err)
	}
	db.publish("tasks", realtime.OpUpdate, taskID, nil)
	return nil
}

// AppendActivity adds an entry to the end of a task's activity log.
// An entry whose id is already present is ignored.
func (db *DB) AppendActivity(ctx context.Context, taskID string, a models.ActivityLog) error {
	return mutateJSON(ctx, db, taskID, "activity", func(log []models.ActivityLog) ([]models.ActivityLog, error) {
		if slices.ContainsFunc(log, func(x models.ActivityLog) bool { return x.ID == a.ID }) {
			return log, nil
		}
		return append(log, a), nil
	})
}

// UpdateActivity replaces the content of one activity entry
func (db *DB) UpdateActivity(ctx context.Context, taskID, activityID, content string) error {
	return mutateJSON(ctx, db, taskID, "activity", func(log []models.ActivityLog) ([]models.ActivityLog, error) {
		i := slices.IndexFunc(log, func(x models.ActivityLog) bool { return x.ID == activityID })
		if i < 0 {
			return nil, ErrNotFound
		}
		log[i].Content = content
		return log, nil
	})
}

// DeleteActivity removes one activity entry
func (db *DB) DeleteActivity(ctx context.Context, taskID, activityID string) error {
	return mutateJSON(ctx, db, taskID, "activity", func(log []models.ActivityLog) ([]models.ActivityLog, error) {
		n := len(log)
		log = slices.DeleteFunc(log, func(x models.ActivityLog) bool { return x.ID == activityID })
		if len(log) == n {
			return nil, ErrNotFound
		}
		return log, nil
	})
}

// AppendAttachment adds an attachment to a task
func (db *DB) AppendAttachment(ctx context.Context, taskID string, a models.Attachment) error {
	return mutateJSON(ctx, db, taskID, "attachments", func(list []models.Attachment) ([]models.Attachment, error) {
		if slices.ContainsFunc(list, func(x models.Attachment) bool { return x.ID == a.ID }) {
			return list, nil
		}
		return append(list, a), nil
	})
}

// DeleteAttachment removes an attachment from a task
func (db *DB) DeleteAttachment(ctx context.Context, taskID, attachmentID string) error {
	return mutateJSON(ctx, db, taskID, "attachments", func(list []models.Attachment) ([]models.Attachment, error) {
		n := len(list)
		list = slices.DeleteFunc(list, func(x models.Attachment) bool { return x.ID == attachmentID })
		if len(list) == n {
			return nil, ErrNotFound
		}
		return list, nil
	})
}
