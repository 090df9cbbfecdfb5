package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// MigratePostgres applies pending migrations through a database/sql handle
// borrowed from the pool.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	sqlDB := stdlib.OpenDBFromPool(pool)
	defer sqlDB.Close()
	return migrate(ctx, sqlDB, goose.DialectPostgres, "migrations/postgres")
}

func MigrateSQLite(ctx context.Context, sqlDB *sql.DB) error {
	return migrate(ctx, sqlDB, goose.DialectSQLite3, "migrations/sqlite")
}

func migrate(ctx context.Context, sqlDB *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return err
	}
	provider, err := goose.NewProvider(dialect, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		slog.Info("migration applied", "version", res.Source.Version, "path", res.Source.Path, "durationMs", res.Duration.Milliseconds())
	}
	return nil
}
