package db

import (
	"context"
	"fmt"
)

// TagCount is how many tasks carry a tag
type TagCount struct {
	Name  string
	Tasks int
}

// TagCounts returns the tags used across all tasks, most used first
func (db *DB) TagCounts(ctx context.Context) ([]TagCount, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT LOWER(j.value) AS tag, COUNT(DISTINCT t.id)
		FROM tasks t, json_each(t.tags) j
		GROUP BY tag
		ORDER BY COUNT(DISTINCT t.id) DESC, tag ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("tag counts: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Name, &tc.Tasks); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}
