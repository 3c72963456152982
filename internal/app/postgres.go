package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/b3cotahist/config"
	"github.com/guttosm/b3cotahist/internal/storage"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
)

// pingTimeout bounds the connectivity check of InitPostgres.
const pingTimeout = 5 * time.Second

// sqlOpener is an indirection for unit testing; defaults to sql.Open
var sqlOpener = sql.Open

// InitPostgres opens a PostgreSQL pool using the provided configuration.
//
// Parameters:
//   - ctx (context.Context): bounds the initial ping.
//   - cfg (config.Config): application configuration with Postgres settings.
//
// Behavior:
//   - Opens a database handle with the DSN from cfg.Postgres.
//   - Pings the database to validate connectivity; the handle is closed
//     when the ping fails.
//
// Returns:
//   - *sql.DB: an open connection pool (safe for concurrent use).
//   - error: if opening or pinging the database fails.
//
// Example usage:
//
//	db, err := app.InitPostgres(ctx, config.AppConfig)
//	if err != nil {
//	    logger.L().Fatal().Err(err).Msg("db connect error")
//	}
//	defer db.Close()
func InitPostgres(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := sqlOpener("postgres", cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	return db, nil
}

// postgresOpener is an indirection used by InitializeApp; overridden in tests to avoid real connections.
var postgresOpener = InitPostgres

// PrepareDatabase applies the embedded migrations (load_log) so the loader
// can record watermarks. stock_data itself is created by the loader.
func PrepareDatabase(db *sql.DB) error {
	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
