package migrate

import (
	"context"
	"testing"

	"github.com/kurobon/nexusvc/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
)

func TestUpIsIdempotent(t *testing.T) {
	db, err := sqlite.OpenMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Up(db))
	require.NoError(t, Up(db))

	for _, table := range []string{"status_cache", "repo_history"} {
		var name string
		err := db.QueryRowContext(context.Background(),
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}
