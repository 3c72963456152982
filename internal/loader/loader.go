// Package loader bulk-loads persisted quote rows into Postgres in ordered,
// individually committed batches.
package loader

import (
	"context"
	"time"

	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/logger"
	"github.com/guttosm/b3cotahist/internal/metrics"
	"github.com/guttosm/b3cotahist/internal/storage"
)

// DefaultBatchSize is the number of rows per COPY transaction.
const DefaultBatchSize = 1000

// Store is the part of storage.QuotesRepository the loader needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	CopyBatch(ctx context.Context, rows []models.StockRow, mark *storage.Progress) error
	LoadProgress(ctx context.Context, artifact string) (storage.Progress, error)
}

// Options tunes a Loader. The zero value loads in batches of
// DefaultBatchSize with no per-batch timeout and no watermark.
type Options struct {
	BatchSize int
	// BatchTimeout bounds each batch transaction; zero disables it.
	BatchTimeout time.Duration
	// Track records a load_log watermark inside every batch transaction.
	Track bool
	// Resume skips the rows a previous tracked run already committed.
	// Implies Track.
	Resume bool
}

// Result reports what a Load committed.
type Result struct {
	Artifact string
	Batches  int
	Rows     int
	// Skipped counts rows left out because a previous run committed them.
	Skipped int
}

// Loader writes rows through a Store.
type Loader struct {
	store Store
	opts  Options
}

// New returns a Loader over store.
func New(store Store, opts Options) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Resume {
		opts.Track = true
	}
	return &Loader{store: store, opts: opts}
}

// BatchSize is the effective batch size.
func (l *Loader) BatchSize() int { return l.opts.BatchSize }

// Load ensures the target table exists, then copies rows in batches.
//
// Behavior:
//   - Batches are cut in input order and loaded one at a time; each commits
//     independently.
//   - The first failing batch is rolled back and loading stops: later
//     batches are never attempted, earlier ones stay committed.
//   - Nothing is retried.
//
// Returns:
//   - Result: batches and rows committed by this call.
//   - error: the schema or connection error raised before any batch, or an
//     *apperr.BatchError naming the 1-based batch that failed.
func (l *Loader) Load(ctx context.Context, artifact string, rows []models.StockRow) (Result, error) {
	res := Result{Artifact: artifact}
	log := logger.L().With().Str("artifact", artifact).Logger()

	if err := l.store.EnsureSchema(ctx); err != nil {
		return res, err
	}

	start, index := 0, 0
	if l.opts.Resume {
		p, err := l.store.LoadProgress(ctx, artifact)
		if err != nil {
			return res, err
		}
		start, index = min(p.Rows, len(rows)), p.Batches
		res.Skipped = start
		if start > 0 {
			log.Info().Int("rows", start).Int("batches", index).Msg("Resuming load after committed batches")
		}
	}

	size := l.opts.BatchSize
	for offset := start; offset < len(rows); offset += size {
		end := min(offset+size, len(rows))
		batch := rows[offset:end]
		index++

		var mark *storage.Progress
		if l.opts.Track {
			mark = &storage.Progress{Artifact: artifact, Rows: end, Batches: index}
		}

		if err := l.copy(ctx, batch, mark); err != nil {
			metrics.BatchFailed()
			log.Error().Err(err).Int("batch", index).Int("offset", offset).Int("size", len(batch)).Msg("Batch load failed")
			return res, &apperr.BatchError{Index: index, Offset: offset, Size: len(batch), Err: err}
		}

		metrics.BatchCommitted(len(batch))
		res.Batches++
		res.Rows += len(batch)
		log.Debug().Int("batch", index).Int("rows", len(batch)).Msg("Batch committed")
	}

	log.Info().Int("batches", res.Batches).Int("rows", res.Rows).Int("skipped", res.Skipped).Msg("Load completed")
	return res, nil
}

func (l *Loader) copy(ctx context.Context, batch []models.StockRow, mark *storage.Progress) error {
	if l.opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.BatchTimeout)
		defer cancel()
	}
	return l.store.CopyBatch(ctx, batch, mark)
}
