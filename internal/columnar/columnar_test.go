package columnar

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"

	"github.com/guttosm/b3cotahist/internal/cotahist"
	"github.com/guttosm/b3cotahist/internal/domain/models"
)

func makeQuotes(n int) []models.Quote {
	out := make([]models.Quote, n)
	especs := []string{"ON  NM", "PN  N1", "PNA N1", "PNB"}
	for i := range out {
		out[i] = models.Quote{
			RecordType:    1,
			TradeDate:     20240102 + int64(i%20),
			BDICode:       "02",
			Ticker:        fmt.Sprintf("TCK%04d", i%500),
			MarketType:    10,
			ShortName:     "AÇÚCAR SA",
			Specification: especs[i%len(especs)],
			TermDays:      "",
			Currency:      "R$",
			Open:          int64(1000 + i),
			High:          int64(1100 + i),
			Low:           int64(900 + i),
			Average:       int64(1050 + i),
			Close:         int64(1075 + i),
			BestBid:       int64(1074 + i),
			BestAsk:       int64(1076 + i),
			TradeCount:    int64(i % 99999),
			Quantity:      int64(i) * 100,
			Volume:        int64(i) * 107500,
			Expiration:    99991231,
			QuoteFactor:   1,
			StrikePoints:  int64(i) * 1000000,
			ISIN:          fmt.Sprintf("BRTCK%07d", i),
			Distribution:  int64(100 + i%900),
		}
	}
	return out
}

func TestStore_RoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 10000} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			s, err := NewStore(t.TempDir(), "snappy")
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			in := makeQuotes(n)
			if err := s.Write(context.Background(), "20240131", in); err != nil {
				t.Fatalf("write: %v", err)
			}
			out, err := s.Read(context.Background(), "20240131")
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if len(out) != n {
				t.Fatalf("rows: want %d got %d", n, len(out))
			}
			for i := range in {
				if in[i] != out[i] {
					t.Fatalf("row %d differs:\nwant %+v\ngot  %+v", i, in[i], out[i])
				}
			}
		})
	}
}

func TestStore_Codecs(t *testing.T) {
	for _, codec := range []string{"gzip", "zstd", "none", ""} {
		t.Run(codec, func(t *testing.T) {
			s, err := NewStore(t.TempDir(), codec)
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			in := makeQuotes(50)
			if err := s.Write(context.Background(), "x", in); err != nil {
				t.Fatalf("write: %v", err)
			}
			out, err := s.Read(context.Background(), "x")
			if err != nil || len(out) != 50 || out[49] != in[49] {
				t.Fatalf("read back failed: %v", err)
			}
		})
	}
}

func TestParseCodec(t *testing.T) {
	if c, _ := ParseCodec("SNAPPY"); c != parquet.CompressionCodec_SNAPPY {
		t.Fatalf("want snappy got %v", c)
	}
	if _, err := ParseCodec("lz4x"); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := NewStore(t.TempDir(), "brotli-ish"); err == nil {
		t.Fatalf("NewStore must reject unknown codecs")
	}
}

func TestStore_ArtifactsAreImmutable(t *testing.T) {
	s, _ := NewStore(t.TempDir(), "")
	ctx := context.Background()
	if err := s.Write(ctx, "20240131", makeQuotes(2)); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := s.Write(ctx, "20240131", makeQuotes(3))
	if !errors.Is(err, ErrArtifactExists) {
		t.Fatalf("expected ErrArtifactExists, got %v", err)
	}
	out, _ := s.Read(ctx, "20240131")
	if len(out) != 2 {
		t.Fatalf("artifact changed: %d rows", len(out))
	}
	if _, err := os.Stat(s.Path("20240131") + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestStore_ReadMissing(t *testing.T) {
	s, _ := NewStore(t.TempDir(), "")
	if _, err := s.Read(context.Background(), "nope"); !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("expected ErrArtifactNotFound, got %v", err)
	}
	if s.Exists("nope") {
		t.Fatalf("Exists must be false")
	}
}

func TestStore_ReadColumns(t *testing.T) {
	s, _ := NewStore(t.TempDir(), "")
	ctx := context.Background()
	in := makeQuotes(10)
	if err := s.Write(ctx, "id", in); err != nil {
		t.Fatalf("write: %v", err)
	}

	cols, err := s.ReadColumns(ctx, "id", cotahist.ColTicker, cotahist.ColClose)
	if err != nil {
		t.Fatalf("read columns: %v", err)
	}
	if cols.Len() != 10 || len(cols.Names()) != 2 {
		t.Fatalf("unexpected shape %d %v", cols.Len(), cols.Names())
	}
	tickers, ok := cols.String(cotahist.ColTicker)
	if !ok || tickers[3] != in[3].Ticker {
		t.Fatalf("ticker column mismatch")
	}
	closes, ok := cols.Int64(cotahist.ColClose)
	if !ok || closes[9] != in[9].Close {
		t.Fatalf("close column mismatch")
	}
	if _, ok := cols.Int64(cotahist.ColTicker); ok {
		t.Fatalf("text column must not be exposed as int64")
	}
	if _, ok := cols.String(cotahist.ColOpen); ok {
		t.Fatalf("unselected column must not be exposed")
	}

	all, err := s.ReadColumns(ctx, "id")
	if err != nil || len(all.Names()) != 26 {
		t.Fatalf("all columns: %v %v", err, all)
	}

	if _, err := s.ReadColumns(ctx, "id", "BOGUS"); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestStore_PersistedRows(t *testing.T) {
	s, _ := NewStore(t.TempDir(), "")
	ctx := context.Background()
	in := makeQuotes(3)
	if err := s.Write(ctx, "id", in); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := s.PersistedRows(ctx, "id")
	if err != nil {
		t.Fatalf("persisted rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("unexpected rows %+v", rows)
	}
	for i := range rows {
		if rows[i] != in[i].StockRow() {
			t.Fatalf("row %d: want %+v got %+v", i, in[i].StockRow(), rows[i])
		}
	}

	if err := s.Write(ctx, "empty", nil); err != nil {
		t.Fatalf("write empty: %v", err)
	}
	rows, err = s.PersistedRows(ctx, "empty")
	if err != nil || len(rows) != 0 {
		t.Fatalf("empty artifact: %v %+v", err, rows)
	}
}

func TestStore_ColumnReadsOnlyOpenSelectedChunks(t *testing.T) {
	s, _ := NewStore(t.TempDir(), "")
	ctx := context.Background()
	in := makeQuotes(50)
	if err := s.Write(ctx, "id", in); err != nil {
		t.Fatalf("write: %v", err)
	}

	pr, done, err := s.openColumns(ctx, "id")
	if err != nil {
		t.Fatalf("open columns: %v", err)
	}
	defer done()

	closes, err := readInt64Column(pr, cotahist.ColClose)
	if err != nil {
		t.Fatalf("close column: %v", err)
	}
	isins, err := readStringColumn(pr, cotahist.ColISIN)
	if err != nil {
		t.Fatalf("isin column: %v", err)
	}
	if len(pr.ColumnBuffers) != 2 {
		t.Fatalf("want 2 column chunks opened, got %d", len(pr.ColumnBuffers))
	}
	if closes[49] != in[49].Close || isins[7] != in[7].ISIN {
		t.Fatalf("column values mismatch")
	}
	if _, err := readStringColumn(pr, cotahist.ColClose); err == nil {
		t.Fatalf("numeric column read as text must fail")
	}
}

type closeFailFile struct {
	source.ParquetFile
}

func (f closeFailFile) Close() error {
	_ = f.ParquetFile.Close()
	return errors.New("disk full")
}

func TestStore_WriteFailsWhenCloseFails(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewStore(dir, "")
	s.create = func(path string) (source.ParquetFile, error) {
		fw, err := local.NewLocalFileWriter(path)
		if err != nil {
			return nil, err
		}
		return closeFailFile{fw}, nil
	}

	err := s.Write(context.Background(), "id", makeQuotes(3))
	if err == nil {
		t.Fatalf("expected close failure to surface")
	}
	if s.Exists("id") {
		t.Fatalf("artifact must not be published after a failed close")
	}
	if _, statErr := os.Stat(s.Path("id") + ".tmp"); !os.IsNotExist(statErr) {
		t.Fatalf("temporary file must be removed: %v", statErr)
	}
}

func TestProcessingIDAndFileName(t *testing.T) {
	id := ProcessingID(time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC))
	if id != "20240307" {
		t.Fatalf("ProcessingID=%s", id)
	}
	if FileName(id) != "quotes_20240307.parquet" {
		t.Fatalf("FileName=%s", FileName(id))
	}
}

type fakeS3 struct {
	objects map[string][]byte
	putErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*in.Bucket+"/"+*in.Key] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func TestStore_MirrorUploadAndDownload(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	mirror := newS3Mirror(fake, "bucket", "cotahist/parquet")
	ctx := context.Background()

	writer, _ := NewStore(t.TempDir(), "")
	writer.WithMirror(mirror)
	in := makeQuotes(5)
	if err := writer.Write(ctx, "20240131", in); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := fake.objects["bucket/cotahist/parquet/quotes_20240131.parquet"]; !ok {
		t.Fatalf("artifact not uploaded, have %v", fake.objects)
	}

	// A store with an empty directory pulls the artifact from the mirror.
	dir := filepath.Join(t.TempDir(), "fresh")
	reader, _ := NewStore(dir, "")
	reader.WithMirror(mirror)
	out, err := reader.Read(ctx, "20240131")
	if err != nil {
		t.Fatalf("read via mirror: %v", err)
	}
	if len(out) != 5 || out[4] != in[4] {
		t.Fatalf("mirror round trip mismatch")
	}
	if !reader.Exists("20240131") {
		t.Fatalf("downloaded artifact must be cached locally")
	}

	if _, err := reader.Read(ctx, "missing"); err == nil {
		t.Fatalf("expected error for an artifact absent from the mirror")
	}
}

func TestStore_MirrorFailureSurfaces(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}, putErr: errors.New("denied")}
	s, _ := NewStore(t.TempDir(), "")
	s.WithMirror(newS3Mirror(fake, "b", ""))
	if err := s.Write(context.Background(), "id", makeQuotes(1)); err == nil {
		t.Fatalf("expected mirror error")
	}
}

func TestNewS3Mirror_RequiresBucket(t *testing.T) {
	if _, err := NewS3Mirror(context.Background(), S3Config{}); err == nil {
		t.Fatalf("expected error")
	}
}
