package backend

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igreja/internal/config"
	"igreja/internal/core"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Type: MemoryBackend}},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "igreja.db")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			res, err := NewFactory(quietLogger()).CreateBackend(ctx, tt.cfg)
			require.NoError(t, err)
			assert.Nil(t, res.Publisher)

			require.NoError(t, res.Store.Ping(ctx))
			id, err := res.Store.InsertMember(ctx, core.Member{Name: "Ana", BirthDate: core.NewDate(1990, 1, 2)})
			require.NoError(t, err)
			assert.Positive(t, id)
			require.NoError(t, res.Cleanup())
		})
	}
}

func TestCreateBackendRejectsInvalidConfig(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	_, err = NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend})
	assert.ErrorContains(t, err, "SQLite database path is required")
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h", AMQPQueue: "q"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "amqp://h", cfg.AMQPURL)
	assert.Equal(t, "q", cfg.AMQPQueue)
}
