package fixedwidth

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/guttosm/b3cotahist/internal/apperr"
)

// Value holds one decoded field. Numeric kinds use Int, text kinds use Text.
type Value struct {
	Int  int64
	Text string
}

// Row is a decoded line, one Value per layout field, in layout order.
type Row []Value

// lineParser turns raw lines into Rows for one layout. Not safe for
// concurrent use: it owns a transcoder and the category intern table.
type lineParser struct {
	layout Layout
	dec    *encoding.Decoder
	intern map[string]string
}

func newLineParser(l Layout) *lineParser {
	return &lineParser{
		layout: l,
		dec:    charmap.ISO8859_1.NewDecoder(),
		intern: make(map[string]string),
	}
}

// parse cuts line on the layout's byte offsets. lineNo is only used for
// error reporting. Bytes past RecordLength are ignored.
func (p *lineParser) parse(lineNo int, line []byte) (Row, error) {
	if len(line) < p.layout.length {
		return nil, &apperr.FormatError{
			Line:   lineNo,
			Reason: fmt.Sprintf("line has %d bytes, record length is %d", len(line), p.layout.length),
		}
	}

	row := make(Row, len(p.layout.fields))
	for i, f := range p.layout.fields {
		start := p.layout.offsets[i]
		raw := bytes.TrimSpace(line[start : start+f.Width])

		switch f.Kind {
		case Int, Scaled:
			if len(raw) == 0 {
				return nil, &apperr.FormatError{Line: lineNo, Field: f.Name, Reason: "empty numeric field"}
			}
			n, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return nil, &apperr.FormatError{Line: lineNo, Field: f.Name, Value: string(raw), Reason: "not an integer"}
			}
			row[i].Int = n
		case Text, Category:
			s, err := p.text(raw)
			if err != nil {
				return nil, &apperr.FormatError{Line: lineNo, Field: f.Name, Value: string(raw), Reason: err.Error()}
			}
			if f.Kind == Category {
				s = p.internString(s)
			}
			row[i].Text = s
		}
	}
	return row, nil
}

func (p *lineParser) text(raw []byte) (string, error) {
	ascii := true
	for _, b := range raw {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw), nil
	}
	out, err := p.dec.Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p *lineParser) internString(s string) string {
	if v, ok := p.intern[s]; ok {
		return v
	}
	p.intern[s] = s
	return s
}

// ParseLine decodes a single data line. It is a convenience for callers that
// already hold lines; streaming callers should use Reader.
func ParseLine(l Layout, lineNo int, line []byte) (Row, error) {
	return newLineParser(l).parse(lineNo, line)
}

// Encode renders row back into the fixed-width layout: numbers are
// zero-padded on the left, text is padded with spaces on the right and
// encoded as ISO-8859-1. Decoding the result yields row again.
func Encode(l Layout, row Row) ([]byte, error) {
	if len(row) != len(l.fields) {
		return nil, fmt.Errorf("row has %d values, layout has %d fields", len(row), len(l.fields))
	}

	enc := charmap.ISO8859_1.NewEncoder()
	var b strings.Builder
	b.Grow(l.length)

	for i, f := range l.fields {
		v := row[i]
		switch f.Kind {
		case Int, Scaled:
			if v.Int < 0 {
				return nil, fmt.Errorf("field %s: negative value %d", f.Name, v.Int)
			}
			s := strconv.FormatInt(v.Int, 10)
			if len(s) > f.Width {
				return nil, fmt.Errorf("field %s: %s overflows width %d", f.Name, s, f.Width)
			}
			b.WriteString(strings.Repeat("0", f.Width-len(s)))
			b.WriteString(s)
		case Text, Category:
			raw, err := enc.String(v.Text)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			if len(raw) > f.Width {
				return nil, fmt.Errorf("field %s: %q overflows width %d", f.Name, v.Text, f.Width)
			}
			b.WriteString(raw)
			b.WriteString(strings.Repeat(" ", f.Width-len(raw)))
		}
	}
	return []byte(b.String()), nil
}
