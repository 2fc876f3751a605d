package database

import (
	"context"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNew tests pool construction
func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("applies schema", func(t *testing.T) {
		db, err := New(ctx,
			WithDataSource(":memory:"),
			WithMaxOpenConns(1),
			WithSchema(`CREATE TABLE IF NOT EXISTS schema_check (id INTEGER PRIMARY KEY)`))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Exec(`INSERT INTO schema_check (id) VALUES (1)`)
		assert.NoError(t, err)
	})

	t.Run("empty driver", func(t *testing.T) {
		_, err := New(ctx, WithDriver(""))
		assert.ErrorContains(t, err, "driver cannot be empty")
	})

	t.Run("empty data source", func(t *testing.T) {
		_, err := New(ctx, WithDataSource(""))
		assert.ErrorContains(t, err, "data source cannot be empty")
	})

	t.Run("unknown driver gives up after retries", func(t *testing.T) {
		_, err := New(ctx, WithDriver("nope"), WithRetry(2, time.Millisecond))
		assert.ErrorContains(t, err, "after 2 attempts")
	})

	t.Run("bad schema", func(t *testing.T) {
		_, err := New(ctx, WithSchema(`CREATE NONSENSE`))
		assert.ErrorContains(t, err, "apply schema")
	})
}
