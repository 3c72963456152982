// Package pipeline wires the ingestion stages together: fetch, decode,
// filter, compress and load.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/columnar"
	"github.com/guttosm/b3cotahist/internal/cotahist"
	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/filter"
	"github.com/guttosm/b3cotahist/internal/fixedwidth"
	"github.com/guttosm/b3cotahist/internal/loader"
	"github.com/guttosm/b3cotahist/internal/logger"
	"github.com/guttosm/b3cotahist/internal/metrics"
)

// maxParallel caps concurrent file decoding.
const maxParallel = 7

// Fetcher downloads an archive and returns its extracted files.
// *fetch.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, name string) ([]string, error)
}

// Loader loads persisted rows of an artifact.
type Loader interface {
	Load(ctx context.Context, artifact string, rows []models.StockRow) (loader.Result, error)
}

// Options configures a Runner.
type Options struct {
	// Parallel bounds concurrent file decoding. Zero means min(7, NumCPU).
	Parallel int
	// RunID tags every log line of the run; generated when empty.
	RunID string
	// Resume lets Run reuse an existing artifact instead of rebuilding it.
	// The loader must be resuming too for committed batches to be skipped.
	Resume bool
}

// Report summarizes a run.
type Report struct {
	RunID    string
	Artifact string
	Files    int
	Decoded  int
	Kept     int
	Load     loader.Result
}

// Runner executes the ingestion stages.
type Runner struct {
	fetcher  Fetcher
	store    *columnar.Store
	loader   Loader
	layout   fixedwidth.Layout
	parallel int
	runID    string
	resume   bool
	now      func() time.Time
}

// NewRunner returns a Runner. fetcher and ld may be nil when the
// corresponding stages are never run.
func NewRunner(fetcher Fetcher, store *columnar.Store, ld Loader, opts Options) *Runner {
	p := opts.Parallel
	if p <= 0 {
		p = maxParallel
		if c := runtime.NumCPU(); c < p {
			p = c
		}
	}
	if p > maxParallel {
		p = maxParallel
	}
	id := opts.RunID
	if id == "" {
		id = uuid.NewString()
	}
	return &Runner{
		fetcher:  fetcher,
		store:    store,
		loader:   ld,
		layout:   cotahist.Layout(),
		parallel: p,
		runID:    id,
		resume:   opts.Resume,
		now:      time.Now,
	}
}

// RunID identifies this runner's log lines.
func (r *Runner) RunID() string { return r.runID }

// Fetch downloads and extracts each archive in order and returns the
// extracted file paths.
func (r *Runner) Fetch(ctx context.Context, names []string) ([]string, error) {
	if r.fetcher == nil {
		return nil, apperr.Wrap(apperr.StageFetch, "", errors.New("no fetcher configured"))
	}
	log := logger.Stage(string(apperr.StageFetch), r.runID)

	var files []string
	for _, name := range names {
		start := time.Now()
		extracted, err := r.fetcher.Fetch(ctx, name)
		if err != nil {
			log.Error().Str("archive", name).Err(err).Msg("fetch failed")
			return files, apperr.Wrap(apperr.StageFetch, name, err)
		}
		log.Info().Str("archive", name).Int("files", len(extracted)).Dur("elapsed", time.Since(start)).Msg("archive ready")
		files = append(files, extracted...)
	}
	return files, nil
}

// Decode reads every file into quotes. Files are decoded concurrently and
// the result is concatenated in file name order. The first malformed line
// aborts the whole stage.
func (r *Runner) Decode(ctx context.Context, files []string) ([]models.Quote, error) {
	quotes, _, err := r.decodeFiles(ctx, files, nil)
	return quotes, err
}

// decodeFiles decodes files concurrently and keeps only the records keep
// accepts (every record when keep is nil), so rejected records are never
// buffered. It returns the kept records in file name order and the number
// of records decoded.
func (r *Runner) decodeFiles(ctx context.Context, files []string, keep func(models.Quote) bool) ([]models.Quote, int, error) {
	log := logger.Stage(string(apperr.StageDecode), r.runID)

	ordered := append([]string(nil), files...)
	sort.Slice(ordered, func(i, j int) bool {
		return filepath.Base(ordered[i]) < filepath.Base(ordered[j])
	})
	log.Info().Int("files", len(ordered)).Int("max_parallel", r.parallel).Msg("decode start")

	results := make([][]models.Quote, len(ordered))
	decoded := make([]int, len(ordered))
	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, r.parallel)

	for i, file := range ordered {
		idx, f := i, file
		sem <- struct{}{}

		g.Go(func() error {
			defer func() { <-sem }()
			start := time.Now()
			base := filepath.Base(f)

			var quotes []models.Quote
			seen := 0
			n, err := cotahist.DecodeFile(f, r.layout, func(q models.Quote) error {
				seen++
				if seen%4096 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if keep == nil || keep(q) {
					quotes = append(quotes, q)
				}
				return nil
			})
			if err != nil {
				log.Error().Str("file", base).Int("records", n).Err(err).Msg("file failed")
				return apperr.Wrap(apperr.StageDecode, base, err)
			}
			results[idx] = quotes
			decoded[idx] = n
			metrics.Decoded(n)
			log.Info().Int("idx", idx+1).Int("total", len(ordered)).Str("file", base).
				Int("records", n).Int("kept", len(quotes)).Dur("elapsed", time.Since(start)).Msg("file done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	total, kept := 0, 0
	for i, q := range results {
		total += decoded[i]
		kept += len(q)
	}
	out := make([]models.Quote, 0, kept)
	for _, q := range results {
		out = append(out, q...)
	}
	return out, total, nil
}

// Filter keeps round-lot share records.
func (r *Runner) Filter(quotes []models.Quote) []models.Quote {
	kept := filter.Apply(quotes)
	metrics.Kept(len(kept))
	logger.Stage(string(apperr.StageFilter), r.runID).Info().
		Int("decoded", len(quotes)).Int("kept", len(kept)).Msg("filter done")
	return kept
}

// Compress writes quotes as the artifact id; an empty id uses today's
// processing id.
func (r *Runner) Compress(ctx context.Context, id string, quotes []models.Quote) (string, error) {
	if id == "" {
		id = columnar.ProcessingID(r.now())
	}
	if err := r.store.Write(ctx, id, quotes); err != nil {
		logger.Stage(string(apperr.StageCompress), r.runID).Error().Str("artifact", id).Err(err).Msg("compress failed")
		return id, apperr.Wrap(apperr.StageCompress, columnar.FileName(id), err)
	}
	return id, nil
}

// Process decodes files, filters them and writes the artifact. Records are
// filtered as they are decoded.
func (r *Runner) Process(ctx context.Context, id string, files []string) (Report, error) {
	rep := Report{RunID: r.runID, Files: len(files)}
	kept, decoded, err := r.decodeFiles(ctx, files, filter.Keep)
	if err != nil {
		return rep, err
	}
	rep.Decoded = decoded
	rep.Kept = len(kept)
	metrics.Kept(len(kept))
	logger.Stage(string(apperr.StageFilter), r.runID).Info().
		Int("decoded", decoded).Int("kept", len(kept)).Msg("filter done")

	rep.Artifact, err = r.Compress(ctx, id, kept)
	return rep, err
}

// Load reads the persisted rows of artifact id and bulk-loads them.
func (r *Runner) Load(ctx context.Context, id string) (loader.Result, error) {
	if r.loader == nil {
		return loader.Result{}, apperr.Wrap(apperr.StageLoad, "", errors.New("no loader configured"))
	}
	file := columnar.FileName(id)
	rows, err := r.store.PersistedRows(ctx, id)
	if err != nil {
		return loader.Result{}, apperr.Wrap(apperr.StageLoad, file, fmt.Errorf("read artifact: %w", err))
	}
	res, err := r.loader.Load(ctx, id, rows)
	if err != nil {
		logger.Stage(string(apperr.StageLoad), r.runID).Error().Str("artifact", id).Int("rows_loaded", res.Rows).Err(err).Msg("load failed")
		return res, apperr.Wrap(apperr.StageLoad, file, err)
	}
	return res, nil
}

// Run executes every stage: fetch the archives, process their files into a
// new artifact and load it. With Resume set and the artifact already
// written, fetch and process are skipped and the load picks up after the
// last committed batch.
func (r *Runner) Run(ctx context.Context, id string, archives []string) (Report, error) {
	start := time.Now()
	if id == "" {
		id = columnar.ProcessingID(r.now())
	}

	var (
		rep Report
		err error
	)
	if r.resume && r.store.Exists(id) {
		logger.Stage("run", r.runID).Info().Str("artifact", id).Msg("artifact present, resuming load")
		rep = Report{RunID: r.runID, Artifact: id}
	} else {
		files, ferr := r.Fetch(ctx, archives)
		if ferr != nil {
			return Report{RunID: r.runID}, ferr
		}
		if rep, err = r.Process(ctx, id, files); err != nil {
			return rep, err
		}
	}

	rep.Load, err = r.Load(ctx, rep.Artifact)
	if err != nil {
		return rep, err
	}
	logger.Stage("run", r.runID).Info().
		Str("artifact", rep.Artifact).
		Int("decoded", rep.Decoded).
		Int("kept", rep.Kept).
		Int("rows_loaded", rep.Load.Rows).
		Int("rows_skipped", rep.Load.Skipped).
		Dur("elapsed", time.Since(start)).
		Msg("run done")
	return rep, nil
}
