package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

var dialects = map[string]goose.Dialect{
	DriverPostgres: goose.DialectPostgres,
	DriverSQLite:   goose.DialectSQLite3,
}

// Migrate applies every pending embedded migration for the client's driver
// and returns the versions it applied, e.g. "0001_jobs".
func (c *Client) Migrate(ctx context.Context) ([]string, error) {
	provider, err := c.migrationProvider()
	if err != nil {
		return nil, err
	}

	results, err := provider.Up(ctx)
	ran := make([]string, 0, len(results))
	for _, result := range results {
		if result.Error != nil {
			continue
		}
		version := migrationName(result.Source.Path)
		c.logger.Info("Applied migration",
			slog.String("version", version),
			slog.Duration("duration", result.Duration),
		)
		ran = append(ran, version)
	}
	if err != nil {
		return ran, fmt.Errorf("migration failed: %w", err)
	}

	return ran, nil
}

func (c *Client) migrationProvider() (*goose.Provider, error) {
	driver := c.db.DriverName()
	dialect, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("no migrations for driver %q", driver)
	}

	fsys, err := fs.Sub(migrations, path.Join("migrations", driver))
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(dialect, c.db.DB, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return provider, nil
}

func migrationName(file string) string {
	return strings.TrimSuffix(path.Base(file), ".sql")
}
