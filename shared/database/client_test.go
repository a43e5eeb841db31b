package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client, err := NewClient(&Config{
		Driver: DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "scanhub.db"),
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client
}

func TestConfig_DSN(t *testing.T) {
	tests := []struct {
		name   string
		config Config
		want   string
	}{
		{
			name:   "postgres defaults sslmode",
			config: Config{Driver: DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", Database: "scanhub"},
			want:   "host=db port=5432 user=u password=p dbname=scanhub sslmode=disable",
		},
		{
			name:   "sqlite path",
			config: Config{Driver: DriverSQLite, Path: "/var/lib/scanhub.db"},
			want:   "file:/var/lib/scanhub.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.config.DSN())
		})
	}
}

func TestClient_Migrate(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	ran, err := client.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_jobs", "0002_artifacts"}, ran)

	t.Run("second run is a no-op", func(t *testing.T) {
		ran, err := client.Migrate(ctx)
		require.NoError(t, err)
		assert.Empty(t, ran)
	})

	t.Run("version recorded", func(t *testing.T) {
		provider, err := client.migrationProvider()
		require.NoError(t, err)

		version, err := provider.GetDBVersion(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), version)
	})

	t.Run("tables exist", func(t *testing.T) {
		for _, table := range []string{"jobs", "hosts", "host_names", "ports", "urls", "recon_values", "vulns"} {
			var count int
			err := client.GetDB().GetContext(ctx, &count, "SELECT COUNT(*) FROM "+table)
			require.NoError(t, err, table)
			assert.Zero(t, count, table)
		}
	})
}

func TestClient_HealthCheck(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.HealthCheck(context.Background()))
	assert.Contains(t, client.Stats(), "MaxOpenConns: 1")
}
