package fixedwidth

import (
	"bufio"
	"bytes"
	"io"
)

// Reader streams data rows out of a fixed-width file.
//
// The first line (header) and the last line (footer) are skipped
// unconditionally; nothing about their content is checked. Blank lines are
// ignored wherever they appear, so a file padded with trailing newlines still
// ends on its footer. The reader keeps
// one line of lookahead so it knows which line is last, which bounds memory
// to two lines regardless of file size.
//
// Usage mirrors bufio.Scanner:
//
//	r := fixedwidth.NewReader(f, layout)
//	for r.Next() {
//	    row := r.Row()
//	}
//	if err := r.Err(); err != nil { ... }
//
// The first malformed line stops the reader; Err then returns a
// *apperr.FormatError.
type Reader struct {
	sc     *bufio.Scanner
	parser *lineParser

	started bool
	done    bool

	pending   []byte
	pendingNo int
	lineNo    int

	row     Row
	rowLine int
	err     error
}

// NewReader wraps r. The caller keeps ownership of r.
func NewReader(r io.Reader, l Layout) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Reader{sc: sc, parser: newLineParser(l)}
}

// Next advances to the next data row.
func (r *Reader) Next() bool {
	if r.done {
		return false
	}
	if !r.started {
		r.started = true
		if !r.scan() { // no header
			return r.stop()
		}
		if !r.scan() { // header only
			return r.stop()
		}
		r.hold()
	}

	cur, curNo := r.pending, r.pendingNo
	if !r.scan() {
		// cur was the footer
		return r.stop()
	}
	r.hold()

	row, err := r.parser.parse(curNo, cur)
	if err != nil {
		r.err = err
		return r.stop()
	}
	r.row, r.rowLine = row, curNo
	return true
}

// Row is the row produced by the last successful Next.
func (r *Reader) Row() Row { return r.row }

// Line is the 1-based physical line number of Row.
func (r *Reader) Line() int { return r.rowLine }

// Err returns the first decode or I/O error.
func (r *Reader) Err() error { return r.err }

func (r *Reader) scan() bool {
	for {
		if !r.sc.Scan() {
			if err := r.sc.Err(); err != nil && r.err == nil {
				r.err = err
			}
			return false
		}
		r.lineNo++
		if len(bytes.TrimSpace(r.sc.Bytes())) > 0 {
			return true
		}
	}
}

// hold copies the scanner's current token into the lookahead slot; the
// scanner reuses its buffer on the next Scan.
func (r *Reader) hold() {
	tok := r.sc.Bytes()
	r.pending = append(r.pending[:0:0], tok...)
	r.pendingNo = r.lineNo
}

func (r *Reader) stop() bool {
	r.done = true
	r.row = nil
	r.pending = nil
	return false
}
