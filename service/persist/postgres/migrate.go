package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"github.com/afterlife-xyz/afterlife/env"
	"github.com/afterlife-xyz/afterlife/service/logger"
)

// RunMigrations applies every unapplied migration in dir. Migrations run
// over database/sql via lib/pq rather than the pgxpool used at runtime,
// since golang-migrate's Postgres driver expects a *sql.DB.
func RunMigrations(ctx context.Context, dir string) error {
	params := newConnectionParamsFromEnv(ctx)

	db, err := sql.Open("postgres", params.toConnectionString())
	if err != nil {
		return fmt.Errorf("postgres: opening migration connection: %w", err)
	}
	defer db.Close()

	driver, err := pgdriver.WithInstance(db, &pgdriver.Config{})
	if err != nil {
		return fmt.Errorf("postgres: creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("postgres: loading migrations from %s: %w", dir, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("postgres: applying migrations: %w", err)
	}

	logger.For(ctx).Info("postgres: migrations up to date")
	return nil
}

// MigrationsDir returns the migrations directory, overridable in tests and
// alternate deployments via AFTERLIFE_MIGRATIONS_DIR.
func MigrationsDir(ctx context.Context) string {
	if dir := env.Get[string](ctx, "AFTERLIFE_MIGRATIONS_DIR"); dir != "" {
		return dir
	}
	return "service/persist/postgres/migrations"
}
