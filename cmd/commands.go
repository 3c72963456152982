package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/guttosm/b3cotahist/config"
	"github.com/guttosm/b3cotahist/internal/app"
	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/fetch"
	"github.com/guttosm/b3cotahist/internal/logger"
	"github.com/guttosm/b3cotahist/internal/pipeline"
)

// maxDailyArchives bounds --days; B3 only keeps recent daily files online.
const maxDailyArchives = 30

// archiveSelection chooses which COTAHIST archives fetch and run download.
type archiveSelection struct {
	From     string   // first month, YYYY-MM
	To       string   // last month, YYYY-MM; defaults to From
	Years    []int    // yearly archives
	Days     int      // daily archives of the last N sessions
	Archives []string // explicit archive names
}

// names resolves the selection into archive names. With nothing selected
// the current month's archive is fetched.
func (s archiveSelection) names(now time.Time) ([]string, error) {
	var out []string
	out = append(out, s.Archives...)
	for _, y := range s.Years {
		out = append(out, fetch.YearlyArchive(y))
	}

	if s.From != "" || s.To != "" {
		from, to := s.From, s.To
		if from == "" {
			from = to
		}
		if to == "" {
			to = from
		}
		start, err := time.Parse("2006-01", from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from %q: want YYYY-MM", from)
		}
		end, err := time.Parse("2006-01", to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to %q: want YYYY-MM", to)
		}
		months := fetch.MonthRange(start, end)
		if len(months) == 0 {
			return nil, fmt.Errorf("--from %s is after --to %s", from, to)
		}
		for _, m := range months {
			out = append(out, fetch.MonthlyArchive(m))
		}
	}

	if s.Days < 0 || s.Days > maxDailyArchives {
		return nil, fmt.Errorf("--days must be between 0 and %d", maxDailyArchives)
	}
	if s.Days > 0 {
		days := fetch.LastNBusinessDays(s.Days, now)
		// oldest first
		for i := len(days) - 1; i >= 0; i-- {
			out = append(out, fetch.DailyArchive(days[i]))
		}
	}

	if len(out) == 0 {
		out = append(out, fetch.MonthlyArchive(now))
	}
	return out, nil
}

func (s *archiveSelection) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.From, "from", "", "First month to fetch (YYYY-MM)")
	f.StringVar(&s.To, "to", "", "Last month to fetch (YYYY-MM), defaults to --from")
	f.IntSliceVar(&s.Years, "year", nil, "Yearly archive(s) to fetch")
	f.IntVar(&s.Days, "days", 0, "Daily archives of the last N business days")
	f.StringSliceVar(&s.Archives, "archive", nil, "Explicit archive name(s), e.g. COTAHIST_M012024.ZIP")
}

// Indirections for tests.
var (
	initializeApp = app.InitializeApp
	dbOpener      = app.InitPostgres
	now           = time.Now
)

// newRootCmd builds the b3cotahist command tree over config.AppConfig.
func newRootCmd() *cobra.Command {
	var parallel int

	root := &cobra.Command{
		Use:           "b3cotahist",
		Short:         "Ingest B3 COTAHIST quotes and serve a dashboard over them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("parallel") {
				config.AppConfig.Ingest.Parallel = parallel
			}
		},
	}
	root.PersistentFlags().IntVar(&parallel, "parallel", 0, "Files decoded concurrently (0=auto up to CPU, max 7)")

	root.AddCommand(
		newFetchCmd(),
		newProcessCmd(),
		newLoadCmd(),
		newRunCmd(),
		newServeCmd(),
	)
	return root
}

func newFetchCmd() *cobra.Command {
	var sel archiveSelection
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract COTAHIST archives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := sel.names(now())
			if err != nil {
				return err
			}
			runner, err := app.NewRunner(cmd.Context(), config.AppConfig, nil, app.RunnerOptions{})
			if err != nil {
				return err
			}
			files, err := runner.Fetch(cmd.Context(), names)
			if err != nil {
				return err
			}
			logger.Stage("fetch", runner.RunID()).Info().Int("archives", len(names)).Int("files", len(files)).Msg("fetch completed")
			return nil
		},
	}
	sel.bind(cmd)
	return cmd
}

func newProcessCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "process [files...]",
		Short: "Decode, filter and compress COTAHIST files into a parquet artifact",
		Long:  "Decodes the given files, or every .TXT file under <DATA_DIR>/extracted, keeps round-lot shares and writes <DATA_DIR>/compressed/quotes_<id>.parquet.",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				var err error
				if files, err = extractedFiles(config.AppConfig.Ingest.ExtractedDir()); err != nil {
					return err
				}
			}
			runner, err := app.NewRunner(cmd.Context(), config.AppConfig, nil, app.RunnerOptions{})
			if err != nil {
				return err
			}
			rep, err := runner.Process(cmd.Context(), id, files)
			if err != nil {
				return err
			}
			logReport("process", rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Artifact id (default: today, YYYYMMDD)")
	return cmd
}

func newLoadCmd() *cobra.Command {
	var (
		id     string
		track  bool
		resume bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Bulk-load a parquet artifact into stock_data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(cmd.Context(), track, func(db *sql.DB) error {
				runner, err := app.NewRunner(cmd.Context(), config.AppConfig, db, app.RunnerOptions{Resume: resume})
				if err != nil {
					return err
				}
				res, err := runner.Load(cmd.Context(), id)
				if err != nil {
					return err
				}
				logger.Stage("load", runner.RunID()).Info().
					Str("artifact", res.Artifact).
					Int("batches", res.Batches).
					Int("rows_loaded", res.Rows).
					Int("rows_skipped", res.Skipped).
					Msg("load completed")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Artifact id to load (YYYYMMDD)")
	cmd.Flags().BoolVar(&track, "track", false, "Record a load_log watermark per batch")
	cmd.Flags().BoolVar(&resume, "resume", false, "Skip rows a previous tracked load committed")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		sel    archiveSelection
		id     string
		track  bool
		resume bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, process and load in one go",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := sel.names(now())
			if err != nil {
				return err
			}
			return withDatabase(cmd.Context(), track, func(db *sql.DB) error {
				runner, err := app.NewRunner(cmd.Context(), config.AppConfig, db, app.RunnerOptions{Resume: resume})
				if err != nil {
					return err
				}
				rep, err := runner.Run(cmd.Context(), id, names)
				if err != nil {
					return err
				}
				logReport("run", rep)
				return nil
			})
		},
	}
	sel.bind(cmd)
	cmd.Flags().StringVar(&id, "id", "", "Artifact id (default: today, YYYYMMDD)")
	cmd.Flags().BoolVar(&track, "track", false, "Record a load_log watermark per batch")
	cmd.Flags().BoolVar(&resume, "resume", false, "Reuse an existing artifact for --id and skip rows a previous tracked load committed")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = config.AppConfig.Server.Port
			}
			logger.L().Info().Msg("starting API server")

			router, cleanup, err := initializeApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("app init: %w", err)
			}
			server := startServer(router, port)
			gracefulShutdown(cmd.Context(), server, cleanup)
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "Port for the API server (default SERVER_PORT)")
	return cmd
}

// withDatabase connects, applies migrations and runs fn.
func withDatabase(ctx context.Context, track bool, fn func(db *sql.DB) error) error {
	if track {
		config.AppConfig.Ingest.Track = true
	}
	db, err := dbOpener(ctx, config.AppConfig)
	if err != nil {
		return apperr.Wrap(apperr.StageLoad, "", err)
	}
	defer func() { _ = db.Close() }()

	if err := app.PrepareDatabase(db); err != nil {
		return apperr.Wrap(apperr.StageLoad, "", err)
	}
	return fn(db)
}

// extractedFiles lists the COTAHIST text files of dir in name order.
func extractedFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .TXT files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func logReport(stage string, rep pipeline.Report) {
	logger.Stage(stage, rep.RunID).Info().
		Str("artifact", rep.Artifact).
		Int("files", rep.Files).
		Int("decoded", rep.Decoded).
		Int("kept", rep.Kept).
		Int("batches", rep.Load.Batches).
		Int("rows_loaded", rep.Load.Rows).
		Msg(stage + " completed")
}

// reportError logs err with the stage, file, line and batch it carries.
func reportError(err error) {
	ev := logger.L().Error().Err(err)

	var se *apperr.StageError
	if errors.As(err, &se) {
		ev = ev.Str("stage", string(se.Stage))
		if se.File != "" {
			ev = ev.Str("file", se.File)
		}
	}
	var fe *apperr.FormatError
	if errors.As(err, &fe) {
		ev = ev.Int("line", fe.Line).Str("field", fe.Field)
	}
	var be *apperr.BatchError
	if errors.As(err, &be) {
		ev = ev.Int("batch", be.Index).Int("offset", be.Offset)
	}
	var te *apperr.TransientError
	ev.Bool("transient", errors.As(err, &te)).Msg("command failed")
}
