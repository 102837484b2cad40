package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertNotification(ctx context.Context, ex execer, n models.Notification) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, title, body, is_read, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Title, n.Body, n.Read, n.CreatedAt)
	return err
}

// Notify stores a notification for n.UserID
func (db *DB) Notify(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now()
	}
	if err := insertNotification(ctx, db, n); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	db.publish("notifications", realtime.OpInsert, n.ID, map[string]string{"user_id": n.UserID})
	return nil
}

// ListNotifications returns a user's most recent notifications, newest first
func (db *DB) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, title, body, is_read, created_at
		FROM notifications WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Body, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flags a notification as read
func (db *DB) MarkNotificationRead(ctx context.Context, id string) error {
	var userID string
	err := db.QueryRowContext(ctx, "SELECT user_id FROM notifications WHERE id = ?", id).Scan(&userID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("mark notification %s read: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, "UPDATE notifications SET is_read = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	db.publish("notifications", realtime.OpUpdate, id, map[string]string{"user_id": userID})
	return nil
}
