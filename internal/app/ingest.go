package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/b3cotahist/config"
	"github.com/guttosm/b3cotahist/internal/columnar"
	"github.com/guttosm/b3cotahist/internal/fetch"
	"github.com/guttosm/b3cotahist/internal/loader"
	"github.com/guttosm/b3cotahist/internal/pipeline"
	"github.com/guttosm/b3cotahist/internal/storage"
)

// mirrorOpener is an indirection for unit testing; defaults to the S3 mirror.
var mirrorOpener = func(ctx context.Context, cfg config.S3Config) (columnar.Mirror, error) {
	return columnar.NewS3Mirror(ctx, columnar.S3Config{
		Bucket:          cfg.Bucket,
		Prefix:          cfg.Prefix,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		PathStyle:       cfg.PathStyle,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	})
}

// NewStore opens the parquet artifact store under the compressed dir,
// attaching the S3 mirror when a bucket is configured.
func NewStore(ctx context.Context, cfg config.Config) (*columnar.Store, error) {
	store, err := columnar.NewStore(cfg.Ingest.CompressedDir(), cfg.Ingest.Compression)
	if err != nil {
		return nil, err
	}
	if cfg.S3.Bucket == "" {
		return store, nil
	}
	m, err := mirrorOpener(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("open s3 mirror: %w", err)
	}
	return store.WithMirror(m), nil
}

// RunnerOptions are the per-invocation knobs of NewRunner.
type RunnerOptions struct {
	RunID  string
	Resume bool
}

// NewRunner builds the ingestion pipeline. db may be nil for runs that
// never reach the load stage.
//
// Behavior:
//   - Fetch downloads into <DATA_DIR>/zip and extracts into <DATA_DIR>/extracted.
//   - Compress writes <DATA_DIR>/compressed/quotes_<id>.parquet.
//   - Load copies into stock_data in INGEST_BATCH_SIZE batches.
func NewRunner(ctx context.Context, cfg config.Config, db *sql.DB, opts RunnerOptions) (*pipeline.Runner, error) {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var ld pipeline.Loader
	if db != nil {
		ld = loader.New(storage.NewQuotesRepository(db), loader.Options{
			BatchSize:    cfg.Ingest.BatchSize,
			BatchTimeout: cfg.Ingest.BatchTimeout,
			Track:        cfg.Ingest.Track,
			Resume:       opts.Resume,
		})
	}

	client := fetch.NewClient(cfg.Fetch.BaseURL, cfg.Ingest.DataDir, cfg.Fetch.Timeout)
	return pipeline.NewRunner(client, store, ld, pipeline.Options{
		Parallel: cfg.Ingest.Parallel,
		RunID:    opts.RunID,
		Resume:   opts.Resume,
	}), nil
}
