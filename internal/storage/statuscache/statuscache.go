// Package statuscache persists the last known status of each file. It is a
// write-through side table; the engine never treats it as authoritative.
package statuscache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kurobon/nexusvc/internal/status"
)

// Store keeps one row per file within a scope (one scope per session).
type Store struct {
	db    *sql.DB
	scope string
	now   func() time.Time
}

func NewStore(db *sql.DB, scope string) *Store {
	return &Store{db: db, scope: scope, now: time.Now}
}

var _ status.Cache = (*Store)(nil)

func (s *Store) Upsert(ctx context.Context, name string, code status.Code) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status_cache (scope, filepath, status, last_checked)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, filepath) DO UPDATE SET
			status = excluded.status,
			last_checked = excluded.last_checked
	`, s.scope, name, string(code), s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert status for %s: %w", name, err)
	}
	return nil
}

// Get returns ok=false on a miss.
func (s *Store) Get(ctx context.Context, name string) (status.Code, bool, error) {
	var code string
	err := s.db.QueryRowContext(ctx, `
		SELECT status FROM status_cache WHERE scope = ? AND filepath = ?
	`, s.scope, name).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get status for %s: %w", name, err)
	}
	return status.Code(code), true, nil
}

func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM status_cache WHERE scope = ?`, s.scope); err != nil {
		return fmt.Errorf("clear status cache: %w", err)
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM status_cache WHERE scope = ?`, s.scope).Scan(&n); err != nil {
		return 0, fmt.Errorf("count status cache: %w", err)
	}
	return n, nil
}
