package cotahist

import (
	"fmt"
	"io"
	"os"

	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/fixedwidth"
)

// Decoder streams Quotes out of an extracted COTAHIST file.
//
// The header and trailer records are skipped. Decoding is fail-fast: the
// first malformed line ends the stream and Err returns an
// *apperr.FormatError naming it.
type Decoder struct {
	r      *fixedwidth.Reader
	b      *binding
	closer io.Closer

	q models.Quote
}

// NewDecoder reads records from r using layout l. The caller keeps
// ownership of r.
//
// Fails when l lacks a COTAHIST column or declares it with an incompatible
// kind.
func NewDecoder(r io.Reader, l fixedwidth.Layout) (*Decoder, error) {
	b, err := bind(l)
	if err != nil {
		return nil, err
	}
	return &Decoder{r: fixedwidth.NewReader(r, l), b: b}, nil
}

// Open opens the file at path for decoding with layout l. Close releases it.
func Open(path string, l fixedwidth.Layout) (*Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	d, err := NewDecoder(f, l)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	d.closer = f
	return d, nil
}

// Next advances to the next data record.
func (d *Decoder) Next() bool {
	if !d.r.Next() {
		d.q = models.Quote{}
		return false
	}
	d.q = d.b.quote(d.r.Row())
	return true
}

// Quote returns the record produced by the last successful Next.
func (d *Decoder) Quote() models.Quote { return d.q }

// Line is the 1-based line number of the current record.
func (d *Decoder) Line() int { return d.r.Line() }

// Err returns the first decode or I/O error.
func (d *Decoder) Err() error { return d.r.Err() }

// Close closes the underlying file when the Decoder was built with Open.
func (d *Decoder) Close() error {
	if d.closer == nil {
		return nil
	}
	err := d.closer.Close()
	d.closer = nil
	return err
}

// DecodeFile reads every record of the file at path, passing each one to
// fn in file order. fn returning an error stops decoding with that error.
func DecodeFile(path string, l fixedwidth.Layout, fn func(models.Quote) error) (int, error) {
	d, err := Open(path, l)
	if err != nil {
		return 0, err
	}
	defer d.Close()

	n := 0
	for d.Next() {
		n++
		if err := fn(d.Quote()); err != nil {
			return n, err
		}
	}
	return n, d.Err()
}
