// Package columnar stores filtered quote sets as immutable parquet
// artifacts, one per processing run.
package columnar

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/guttosm/b3cotahist/internal/cotahist"
	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/logger"
)

// ErrArtifactExists is returned by Write when the artifact id is taken.
// Artifacts are never overwritten.
var ErrArtifactExists = errors.New("artifact already exists")

// ErrArtifactNotFound is returned by the read path for an unknown id.
var ErrArtifactNotFound = errors.New("artifact not found")

const parallelism = 4

// Mirror copies artifacts to and from remote storage.
type Mirror interface {
	Upload(ctx context.Context, path string) error
	Download(ctx context.Context, name, dst string) error
}

// Store reads and writes parquet artifacts under a directory.
type Store struct {
	dir    string
	codec  parquet.CompressionCodec
	mirror Mirror
	create func(path string) (source.ParquetFile, error)
}

// NewStore returns a Store rooted at dir.
//
// Parameters:
//   - dir: directory holding the artifacts; created on first write.
//   - compression: "snappy" (default when empty), "gzip", "zstd" or "none".
//
// Returns:
//   - *Store
//   - error: unknown compression name.
func NewStore(dir, compression string) (*Store, error) {
	codec, err := ParseCodec(compression)
	if err != nil {
		return nil, err
	}
	return &Store{dir: dir, codec: codec, create: local.NewLocalFileWriter}, nil
}

// WithMirror attaches remote storage. Written artifacts are uploaded and
// missing ones are fetched before reading.
func (s *Store) WithMirror(m Mirror) *Store {
	s.mirror = m
	return s
}

// ParseCodec maps a configuration name onto a parquet compression codec.
func ParseCodec(name string) (parquet.CompressionCodec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "snappy":
		return parquet.CompressionCodec_SNAPPY, nil
	case "gzip":
		return parquet.CompressionCodec_GZIP, nil
	case "zstd":
		return parquet.CompressionCodec_ZSTD, nil
	case "none", "uncompressed":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unknown parquet compression %q", name)
	}
}

// ProcessingID is the artifact id of a run processed at t: YYYYMMDD.
func ProcessingID(t time.Time) string {
	return t.Format("20060102")
}

// FileName is the artifact file name for id.
func FileName(id string) string {
	return "quotes_" + id + ".parquet"
}

// Path is the local path of artifact id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, FileName(id))
}

// Write serializes quotes into artifact id.
//
// Behavior:
//   - Writes to a temporary file in the same directory and renames it into
//     place, so readers never observe a partial artifact.
//   - Fails with ErrArtifactExists when the artifact is already present.
//   - Uploads to the mirror, when one is attached, after the rename.
//
// Returns:
//   - error: ErrArtifactExists, I/O, encoding or upload failure.
func (s *Store) Write(ctx context.Context, id string, quotes []models.Quote) error {
	if id == "" {
		return errors.New("artifact id is empty")
	}
	dst := s.Path(id)
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, ErrArtifactExists)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp := dst + ".tmp"
	if err := s.writeFile(tmp, quotes); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%s: %w", dst, ErrArtifactExists)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish artifact: %w", err)
	}

	logger.L().Info().
		Str("artifact", dst).
		Int("rows", len(quotes)).
		Str("codec", s.codec.String()).
		Msg("Parquet artifact written")

	if s.mirror != nil {
		if err := s.mirror.Upload(ctx, dst); err != nil {
			return fmt.Errorf("mirror artifact: %w", err)
		}
	}
	return nil
}

func (s *Store) writeFile(path string, quotes []models.Quote) error {
	fw, err := s.create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	if err := s.encode(fw, quotes); err != nil {
		_ = fw.Close()
		return err
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}

func (s *Store) encode(fw source.ParquetFile, quotes []models.Quote) error {
	pw, err := writer.NewParquetWriter(fw, new(quoteRecord), parallelism)
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = s.codec
	pw.RowGroupSize = 128 * 1024 * 1024
	pw.PageSize = 8 * 1024

	for _, q := range quotes {
		if err := pw.Write(toRecord(q)); err != nil {
			_ = pw.WriteStop()
			return fmt.Errorf("write parquet row: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}

// Read returns every quote of artifact id in write order.
func (s *Store) Read(ctx context.Context, id string) ([]models.Quote, error) {
	path, err := s.ensureLocal(ctx, id)
	if err != nil {
		return nil, err
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, new(quoteRecord), parallelism)
	if err != nil {
		return nil, fmt.Errorf("create parquet reader: %w", err)
	}
	defer pr.ReadStop()

	n := int(pr.GetNumRows())
	if n == 0 {
		return []models.Quote{}, nil
	}
	records := make([]quoteRecord, n)
	if err := pr.Read(&records); err != nil {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}

	quotes := make([]models.Quote, len(records))
	for i, r := range records {
		quotes[i] = fromRecord(r)
	}
	return quotes, nil
}

// PersistedRows reads artifact id projected onto the stock_data columns.
// The other columns are never decoded.
func (s *Store) PersistedRows(ctx context.Context, id string) ([]models.StockRow, error) {
	cols, err := s.ReadColumns(ctx, id, persistedColumns...)
	if err != nil {
		return nil, err
	}
	dates, _ := cols.Int64(cotahist.ColTradeDate)
	tickers, _ := cols.String(cotahist.ColTicker)
	names, _ := cols.String(cotahist.ColShortName)
	specs, _ := cols.String(cotahist.ColSpecification)
	opens, _ := cols.Int64(cotahist.ColOpen)
	highs, _ := cols.Int64(cotahist.ColHigh)
	lows, _ := cols.Int64(cotahist.ColLow)
	avgs, _ := cols.Int64(cotahist.ColAverage)
	closes, _ := cols.Int64(cotahist.ColClose)
	trades, _ := cols.Int64(cotahist.ColTradeCount)
	qtys, _ := cols.Int64(cotahist.ColQuantity)
	vols, _ := cols.Int64(cotahist.ColVolume)
	isins, _ := cols.String(cotahist.ColISIN)

	rows := make([]models.StockRow, cols.Len())
	for i := range rows {
		rows[i] = models.StockRow{
			TradeDate:     dates[i],
			Ticker:        tickers[i],
			ShortName:     names[i],
			Specification: specs[i],
			Open:          opens[i],
			High:          highs[i],
			Low:           lows[i],
			Average:       avgs[i],
			Close:         closes[i],
			TradeCount:    trades[i],
			Quantity:      qtys[i],
			Volume:        vols[i],
			ISIN:          isins[i],
		}
	}
	return rows, nil
}

// persistedColumns are the artifact columns a stock_data row carries.
var persistedColumns = []string{
	cotahist.ColTradeDate, cotahist.ColTicker, cotahist.ColShortName, cotahist.ColSpecification,
	cotahist.ColOpen, cotahist.ColHigh, cotahist.ColLow, cotahist.ColAverage, cotahist.ColClose,
	cotahist.ColTradeCount, cotahist.ColQuantity, cotahist.ColVolume, cotahist.ColISIN,
}

// Exists reports whether artifact id is present locally.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

func (s *Store) ensureLocal(ctx context.Context, id string) (string, error) {
	path := s.Path(id)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if s.mirror == nil {
		return "", fmt.Errorf("%s: %w", path, ErrArtifactNotFound)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	if err := s.mirror.Download(ctx, FileName(id), path); err != nil {
		return "", fmt.Errorf("fetch artifact %s: %w", id, err)
	}
	return path, nil
}
