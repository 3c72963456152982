//go:build integration
// +build integration

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/domain/models"
)

// startPostgres spins up a Postgres container and returns a DSN and terminate func.
func startPostgres(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "b3cotahist",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(host string, port nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=b3cotahist sslmode=disable", host, port.Port())
		}).WithStartupTimeout(60 * time.Second),
	}

	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container start: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}

	dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", "postgres", "postgres", host, port.Port(), "b3cotahist")
	terminate = func() { _ = container.Terminate(context.Background()) }
	return dsn, terminate
}

func openDB(t *testing.T, dsn string) *sql.DB {
	t.Helper()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}
	return db
}

func row(ticker string, date, close int64) models.StockRow {
	return models.StockRow{
		TradeDate: date, Ticker: ticker, ShortName: "NAME", Specification: "ON  NM",
		Open: close, High: close, Low: close, Average: close, Close: close,
		TradeCount: 1, Quantity: 100, Volume: close * 100, ISIN: "BRXXXXACNOR0",
	}
}

func TestRepository_Integration(t *testing.T) {
	dsn, terminate := startPostgres(t)
	defer terminate()
	db := openDB(t, dsn)
	defer db.Close()
	ctx := context.Background()

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo := NewQuotesRepository(db)

	t.Run("ensure schema is idempotent", func(t *testing.T) {
		if err := repo.EnsureSchema(ctx); err != nil {
			t.Fatalf("first EnsureSchema: %v", err)
		}
		if err := repo.CopyBatch(ctx, []models.StockRow{row("PETR4", 20240102, 3700)}, nil); err != nil {
			t.Fatalf("copy: %v", err)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			t.Fatalf("second EnsureSchema: %v", err)
		}
		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM stock_data").Scan(&n); err != nil || n != 1 {
			t.Fatalf("data altered by EnsureSchema: n=%d err=%v", n, err)
		}
	})

	t.Run("copy with watermark and read back", func(t *testing.T) {
		batch := []models.StockRow{
			row("PETR4", 20240104, 3800),
			row("PETR4", 20240103, 3750),
			row("VALE3", 20240103, 7000),
		}
		if err := repo.CopyBatch(ctx, batch, &Progress{Artifact: "20240131", Rows: 3, Batches: 1}); err != nil {
			t.Fatalf("copy: %v", err)
		}
		p, err := repo.LoadProgress(ctx, "20240131")
		if err != nil || p.Rows != 3 || p.Batches != 1 {
			t.Fatalf("progress=%+v err=%v", p, err)
		}

		quotes, err := repo.QuotesByTicker(ctx, "PETR4", 0, 0)
		if err != nil || len(quotes) != 3 {
			t.Fatalf("quotes=%v err=%v", quotes, err)
		}
		if quotes[0].TradeDate != 20240102 || quotes[2].TradeDate != 20240104 {
			t.Fatalf("quotes not sorted by date: %+v", quotes)
		}
		recent, err := repo.QuotesByTicker(ctx, "PETR4", 0, 2)
		if err != nil || len(recent) != 2 || recent[0].TradeDate != 20240103 {
			t.Fatalf("recent=%v err=%v", recent, err)
		}

		tickers, err := repo.Tickers(ctx)
		if err != nil || len(tickers) != 2 || tickers[0].Sessions != 3 {
			t.Fatalf("tickers=%+v err=%v", tickers, err)
		}
	})

	t.Run("check violation rolls back the batch", func(t *testing.T) {
		if _, err := db.Exec("ALTER TABLE stock_data ADD CONSTRAINT positive_close CHECK (preult > 0)"); err != nil {
			t.Fatalf("alter: %v", err)
		}
		defer db.Exec("ALTER TABLE stock_data DROP CONSTRAINT positive_close")

		before := count(t, db)
		err := repo.CopyBatch(ctx, []models.StockRow{row("ITSA4", 20240105, 900), row("ITSA4", 20240106, 0)}, nil)
		var ie *apperr.IntegrityError
		if !errors.As(err, &ie) {
			t.Fatalf("expected IntegrityError, got %v", err)
		}
		if count(t, db) != before {
			t.Fatalf("failed batch must not leave rows behind")
		}
	})

	t.Run("incompatible table is a schema error", func(t *testing.T) {
		if _, err := db.Exec("ALTER TABLE stock_data ALTER COLUMN nomres DROP NOT NULL"); err != nil {
			t.Fatalf("alter: %v", err)
		}
		var se *apperr.SchemaError
		if err := repo.EnsureSchema(ctx); !errors.As(err, &se) {
			t.Fatalf("expected SchemaError, got %v", err)
		}
	})
}

func count(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM stock_data").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}
