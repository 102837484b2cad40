package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

// UpsertProfile creates or updates a user's public profile
func (db *DB) UpsertProfile(ctx context.Context, u models.User) error {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO profiles (id, full_name, email, avatar_url, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			full_name = excluded.full_name,
			email = excluded.email,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
	`, u.ID, u.Name, u.Email, u.AvatarURL, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", u.ID, err)
	}
	db.publish("profiles", realtime.OpUpdate, u.ID, map[string]string{"id": u.ID})
	return nil
}

// GetProfile retrieves a profile by user ID
func (db *DB) GetProfile(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, full_name, email, avatar_url, updated_at FROM profiles WHERE id = ?
	`, id).Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// ListProfiles returns every known profile
func (db *DB) ListProfiles(ctx context.Context) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, full_name, email, avatar_url, updated_at FROM profiles ORDER BY full_name, email
	`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.AvatarURL, &u.UpdatedAt); err != nil {
			return nil, err
		}
		if u.Name == "" {
			u.Name = u.Email
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
