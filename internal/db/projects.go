package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tgienger/apolo/internal/models"
	"github.com/tgienger/apolo/internal/realtime"
)

const projectColumns = `id, title, subtitle, owner_id, image_url, color, position, archived, created_at`

func scanProject(row interface{ Scan(...any) error }) (models.Project, error) {
	var p models.Project
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.OwnerID, &p.ImageURL, &p.Color, &p.Position, &p.Archived, &p.CreatedAt)
	return p, err
}

func projectCols(p models.Project) map[string]string {
	return map[string]string{"owner_id": p.OwnerID}
}

// InsertProject creates a project with a caller-chosen id
func (db *DB) InsertProject(ctx context.Context, p models.Project) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now()
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (id, title, subtitle, owner_id, image_url, color, position, archived, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Subtitle, p.OwnerID, p.ImageURL, p.Color, p.Position, p.Archived, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	db.publish("projects", realtime.OpInsert, p.ID, projectCols(p))
	return nil
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(ctx context.Context, id string) (models.Project, error) {
	p, err := scanProject(db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// ListProjects returns the projects userID owns or is a member of, ordered
// by position then newest first
func (db *DB) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE owner_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)
		ORDER BY position ASC, created_at DESC
	`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject applies the non-nil fields of patch
func (db *DB) UpdateProject(ctx context.Context, id string, patch models.ProjectPatch) error {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Subtitle != nil {
		add("subtitle", *patch.Subtitle)
	}
	if patch.Color != nil {
		add("color", *patch.Color)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.Position != nil {
		add("position", *patch.Position)
	}
	if patch.Archived != nil {
		add("archived", *patch.Archived)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	err := affected(db.ExecContext(ctx, `UPDATE projects SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...))
	if err != nil {
		return fmt.Errorf("update project %s: %w", id, err)
	}
	db.publish("projects", realtime.OpUpdate, id, nil)
	return nil
}

// DeleteProject deletes a project and all its tasks
func (db *DB) DeleteProject(ctx context.Context, id string) error {
	err := affected(db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id))
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	db.publish("projects", realtime.OpDelete, id, nil)
	return nil
}

// ProjectCount returns the number of projects
func (db *DB) ProjectCount(ctx context.Context) (int, error) {
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}
