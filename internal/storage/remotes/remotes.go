// Package remotes persists remote definitions so they survive restarts.
package remotes

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kurobon/nexusvc/internal/state"
)

type Registry struct {
	db  *sql.DB
	now func() time.Time
}

func NewRegistry(db *sql.DB) *Registry {
	return &Registry{db: db, now: time.Now}
}

// GetAll returns remotes ordered by name.
func (r *Registry) GetAll(ctx context.Context) ([]state.Remote, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, url FROM repo_history ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query remotes: %w", err)
	}
	defer rows.Close()

	var out []state.Remote
	for rows.Next() {
		var rm state.Remote
		if err := rows.Scan(&rm.Name, &rm.URL); err != nil {
			return nil, fmt.Errorf("scan remote: %w", err)
		}
		out = append(out, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate remotes: %w", err)
	}
	return out, nil
}

// Add inserts or replaces a remote.
func (r *Registry) Add(ctx context.Context, name, url string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO repo_history (name, url, last_accessed) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET url = excluded.url, last_accessed = excluded.last_accessed
	`, name, url, r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("add remote %s: %w", name, err)
	}
	return nil
}

// Remove deletes a remote. Removing an unknown name is not an error.
func (r *Registry) Remove(ctx context.Context, name string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM repo_history WHERE name = ?`, name); err != nil {
		return fmt.Errorf("remove remote %s: %w", name, err)
	}
	return nil
}
