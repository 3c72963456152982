package cotahist

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/fixedwidth"
)

// EncodeQuote renders q as one fixed-width record of layout l.
func EncodeQuote(l fixedwidth.Layout, q models.Quote) ([]byte, error) {
	b, err := bind(l)
	if err != nil {
		return nil, err
	}
	return fixedwidth.Encode(l, b.row(q))
}

// Write emits a complete COTAHIST file: a header record, one record per
// quote, and a trailer record carrying the record count. Lines end in "\n".
//
// B3 headers look like "00COTAHIST.2024BOVESPA 20240102" padded with spaces;
// this mirrors that shape closely enough for the decoder, which never reads
// them.
func Write(w io.Writer, l fixedwidth.Layout, origin string, quotes []models.Quote) error {
	b, err := bind(l)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)

	header := pad("00COTAHIST."+origin+"BOVESPA", l.RecordLength())
	if _, err := bw.WriteString(header + "\n"); err != nil {
		return err
	}
	for i, q := range quotes {
		line, err := fixedwidth.Encode(l, b.row(q))
		if err != nil {
			return fmt.Errorf("quote %d (%s): %w", i, q.Ticker, err)
		}
		if _, err := bw.Write(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	trailer := pad(fmt.Sprintf("99COTAHIST.%sBOVESPA %011d", origin, len(quotes)+2), l.RecordLength())
	if _, err := bw.WriteString(trailer + "\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
