package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/b3cotahist/internal/domain/models"
	pq "github.com/lib/pq"
)

// QuotesTable is the append-only table holding persisted quotes.
const QuotesTable = "stock_data"

// Progress is the load watermark of one artifact: how many rows and batches
// of it are committed.
type Progress struct {
	Artifact string
	Rows     int
	Batches  int
}

// QuotesRepository defines contract for DB operations.
type QuotesRepository interface {
	EnsureSchema(ctx context.Context) error
	CopyBatch(ctx context.Context, rows []models.StockRow, mark *Progress) error
	LoadProgress(ctx context.Context, artifact string) (Progress, error)
	Tickers(ctx context.Context) ([]models.TickerSummary, error)
	QuotesByTicker(ctx context.Context, ticker string, from int64, limit int) ([]models.StockRow, error)
}

type quotesRepository struct {
	db *sql.DB
}

func NewQuotesRepository(db *sql.DB) QuotesRepository {
	return &quotesRepository{db: db}
}

// CopyBatch inserts rows with COPY inside a single transaction.
//
// Behavior:
//   - Opens a transaction scoped to this call; every exit path either
//     commits or rolls back.
//   - Streams rows through pq.CopyIn, which serializes them into the COPY
//     text format.
//   - When mark is non-nil, records it in load_log inside the same
//     transaction, so the watermark never runs ahead of committed rows.
//
// Returns:
//   - error: classified as *apperr.TransientError or *apperr.IntegrityError
//     when the database reports a connectivity or constraint failure.
func (r *quotesRepository) CopyBatch(ctx context.Context, rows []models.StockRow, mark *Progress) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Small optimization for bulk load
	if _, err = tx.ExecContext(ctx, `SET LOCAL synchronous_commit = OFF`); err != nil {
		return classify("configure transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(QuotesTable, columnNames()...))
	if err != nil {
		return classify("prepare copy", err)
	}

	for _, row := range rows {
		if _, err = stmt.ExecContext(ctx,
			row.TradeDate,
			row.Ticker,
			row.ShortName,
			row.Specification,
			row.Open,
			row.High,
			row.Low,
			row.Average,
			row.Close,
			row.TradeCount,
			row.Quantity,
			row.Volume,
			row.ISIN,
		); err != nil {
			_ = stmt.Close()
			return classify("copy row", err)
		}
	}

	if _, err = stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return classify("flush copy", err)
	}
	if err = stmt.Close(); err != nil {
		return classify("close copy", err)
	}

	if mark != nil {
		if _, err = tx.ExecContext(ctx, upsertProgressSQL, mark.Artifact, mark.Rows, mark.Batches); err != nil {
			return classify("record progress", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return classify("commit", err)
	}
	return nil
}

const upsertProgressSQL = `
		INSERT INTO load_log (artifact, rows_loaded, batches_loaded)
		VALUES ($1, $2, $3)
		ON CONFLICT (artifact)
		DO UPDATE SET rows_loaded = EXCLUDED.rows_loaded,
					  batches_loaded = EXCLUDED.batches_loaded,
					  updated_at = NOW()
	`

// LoadProgress returns the watermark recorded for artifact, or a zero
// Progress when none exists.
func (r *quotesRepository) LoadProgress(ctx context.Context, artifact string) (Progress, error) {
	p := Progress{Artifact: artifact}
	err := r.db.QueryRowContext(ctx,
		`SELECT rows_loaded, batches_loaded FROM load_log WHERE artifact = $1`, artifact,
	).Scan(&p.Rows, &p.Batches)
	if err == sql.ErrNoRows {
		return p, nil
	}
	if err != nil {
		return p, classify("read progress", err)
	}
	return p, nil
}

// Tickers lists every ticker in the table with its first and last trade
// dates, ordered by ticker.
func (r *quotesRepository) Tickers(ctx context.Context) ([]models.TickerSummary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT codneg, MAX(nomres), MIN(data), MAX(data), COUNT(*)
		FROM stock_data
		GROUP BY codneg
		ORDER BY codneg
	`)
	if err != nil {
		return nil, classify("list tickers", err)
	}
	defer rows.Close()

	var out []models.TickerSummary
	for rows.Next() {
		var s models.TickerSummary
		if err := rows.Scan(&s.Ticker, &s.ShortName, &s.FirstDate, &s.LastDate, &s.Sessions); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// QuotesByTicker returns the rows of ticker traded on or after from
// (YYYYMMDD, 0 for no bound), sorted by trade date ascending. With limit > 0
// only the most recent limit rows are returned.
func (r *quotesRepository) QuotesByTicker(ctx context.Context, ticker string, from int64, limit int) ([]models.StockRow, error) {
	lim := sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
	query := fmt.Sprintf(`
		SELECT %[1]s FROM (
			SELECT %[1]s
			FROM stock_data
			WHERE codneg = $1 AND data >= $2
			ORDER BY data DESC
			LIMIT $3
		) recent
		ORDER BY data ASC
	`, columnList())

	rows, err := r.db.QueryContext(ctx, query, ticker, from, lim)
	if err != nil {
		return nil, classify("query quotes", err)
	}
	defer rows.Close()

	var out []models.StockRow
	for rows.Next() {
		var s models.StockRow
		if err := rows.Scan(
			&s.TradeDate,
			&s.Ticker,
			&s.ShortName,
			&s.Specification,
			&s.Open,
			&s.High,
			&s.Low,
			&s.Average,
			&s.Close,
			&s.TradeCount,
			&s.Quantity,
			&s.Volume,
			&s.ISIN,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
