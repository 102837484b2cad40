package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

// AddMember shares a project with a user and notifies the project owner.
// Joining twice returns ErrAlreadyMember.
func (db *DB) AddMember(ctx context.Context, m models.Member) error {
	if m.Role == "" {
		m.Role = "editor"
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now()
	}

	var note models.Notification
	err := db.inTx(ctx, func(tx *sql.Tx) error {
		var owner, title string
		err := tx.QueryRowContext(ctx, "SELECT owner_id, title FROM projects WHERE id = ?", m.ProjectID).Scan(&owner, &title)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO project_members (project_id, user_id, role, created_at) VALUES (?, ?, ?, ?)
		`, m.ProjectID, m.UserID, m.Role, m.CreatedAt)
		if isPrimaryKeyViolation(err) {
			return ErrAlreadyMember
		}
		if err != nil {
			return err
		}

		if owner == m.UserID {
			return nil
		}
		note = models.Notification{
			ID:        uuid.NewString(),
			UserID:    owner,
			Title:     "New project member",
			Body:      fmt.Sprintf("A user joined %q", title),
			CreatedAt: m.CreatedAt,
		}
		return insertNotification(ctx, tx, note)
	})
	if err != nil {
		return fmt.Errorf("join project %s: %w", m.ProjectID, err)
	}

	db.publish("project_members", realtime.OpInsert, m.ProjectID+"/"+m.UserID,
		map[string]string{"user_id": m.UserID, "project_id": m.ProjectID})
	if note.ID != "" {
		db.publish("notifications", realtime.OpInsert, note.ID, map[string]string{"user_id": note.UserID})
	}
	return nil
}

// ListMembers returns the members of a project
func (db *DB) ListMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT project_id, user_id, role, created_at
		FROM project_members WHERE project_id = ?
		ORDER BY created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
