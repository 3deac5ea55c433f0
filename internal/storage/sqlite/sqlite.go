// Package sqlite opens the embedded database used for the status cache and
// the remote registry.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Open ensures the parent directory exists and opens a SQLite database using the modernc driver.
func Open(dbPath string) (*sql.DB, error) {
	if !strings.HasPrefix(dbPath, "file:") && dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// one writer connection
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(time.Minute)

	return db, nil
}

// OpenMemory opens a private in-memory database named after name. Each
// distinct name gets its own database.
func OpenMemory(name string) (*sql.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	return Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
}
