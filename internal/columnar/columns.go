package columnar

import (
	"context"
	"fmt"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/common"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/guttosm/b3cotahist/internal/cotahist"
)

// Columns is a column-oriented view of an artifact. Numeric columns hold
// the implied-scale integers exactly as decoded.
type Columns struct {
	n     int
	names []string
	ints  map[string][]int64
	texts map[string][]string
}

// Len is the number of rows.
func (c *Columns) Len() int { return c.n }

// Names lists the selected columns in request order.
func (c *Columns) Names() []string { return append([]string(nil), c.names...) }

// Int64 returns a numeric column. ok is false when name was not selected or
// is a text column.
func (c *Columns) Int64(name string) ([]int64, bool) {
	v, ok := c.ints[name]
	return v, ok
}

// String returns a text column. ok is false when name was not selected or
// is a numeric column.
func (c *Columns) String(name string) ([]string, bool) {
	v, ok := c.texts[name]
	return v, ok
}

// ReadColumns returns the named COTAHIST columns of artifact id (e.g.
// cotahist.ColTicker). Only the selected column chunks are decoded. With no
// names every column is returned.
func (s *Store) ReadColumns(ctx context.Context, id string, names ...string) (*Columns, error) {
	if len(names) == 0 {
		for _, f := range cotahist.Layout().Fields() {
			names = append(names, f.Name)
		}
	}
	for _, name := range names {
		if _, _, ok := cotahist.Accessor(name); !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
	}

	pr, done, err := s.openColumns(ctx, id)
	if err != nil {
		return nil, err
	}
	defer done()

	cols := &Columns{
		n:     int(pr.GetNumRows()),
		names: append([]string(nil), names...),
		ints:  make(map[string][]int64),
		texts: make(map[string][]string),
	}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_, numeric, _ := cotahist.Accessor(name)
		if numeric {
			vals, err := readInt64Column(pr, name)
			if err != nil {
				return nil, err
			}
			cols.ints[name] = vals
			continue
		}
		vals, err := readStringColumn(pr, name)
		if err != nil {
			return nil, err
		}
		cols.texts[name] = vals
	}
	return cols, nil
}

// openColumns opens artifact id for column-at-a-time reads. done releases
// the file.
func (s *Store) openColumns(ctx context.Context, id string) (*reader.ParquetReader, func(), error) {
	path, err := s.ensureLocal(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open parquet file: %w", err)
	}
	pr, err := reader.NewParquetColumnReader(fr, parallelism)
	if err != nil {
		_ = fr.Close()
		return nil, nil, fmt.Errorf("create parquet column reader: %w", err)
	}
	return pr, func() {
		pr.ReadStop()
		_ = fr.Close()
	}, nil
}

// columnPath maps a COTAHIST column name onto its parquet schema path.
func columnPath(pr *reader.ParquetReader, name string) string {
	return common.PathToStr([]string{pr.SchemaHandler.GetRootExName(), strings.ToLower(name)})
}

func readColumn(pr *reader.ParquetReader, name string) ([]interface{}, error) {
	n := pr.GetNumRows()
	if n == 0 {
		return nil, nil
	}
	vals, _, _, err := pr.ReadColumnByPath(columnPath(pr, name), n)
	if err != nil {
		return nil, fmt.Errorf("read column %s: %w", name, err)
	}
	if int64(len(vals)) != n {
		return nil, fmt.Errorf("read column %s: %d of %d values", name, len(vals), n)
	}
	return vals, nil
}

func readInt64Column(pr *reader.ParquetReader, name string) ([]int64, error) {
	raw, err := readColumn(pr, name)
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(raw))
	for i, v := range raw {
		x, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("column %s row %d: want int64, got %T", name, i, v)
		}
		out[i] = x
	}
	return out, nil
}

func readStringColumn(pr *reader.ParquetReader, name string) ([]string, error) {
	raw, err := readColumn(pr, name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		x, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("column %s row %d: want string, got %T", name, i, v)
		}
		out[i] = x
	}
	return out, nil
}
