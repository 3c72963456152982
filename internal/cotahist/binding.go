package cotahist

import (
	"fmt"

	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/fixedwidth"
)

// column ties a layout column name to a Quote field.
type column struct {
	name    string
	numeric bool
	int64p  func(*models.Quote) *int64
	stringp func(*models.Quote) *string
}

func intCol(name string, f func(*models.Quote) *int64) column {
	return column{name: name, numeric: true, int64p: f}
}

func textCol(name string, f func(*models.Quote) *string) column {
	return column{name: name, stringp: f}
}

var columns = []column{
	intCol(ColRecordType, func(q *models.Quote) *int64 { return &q.RecordType }),
	intCol(ColTradeDate, func(q *models.Quote) *int64 { return &q.TradeDate }),
	textCol(ColBDICode, func(q *models.Quote) *string { return &q.BDICode }),
	textCol(ColTicker, func(q *models.Quote) *string { return &q.Ticker }),
	intCol(ColMarketType, func(q *models.Quote) *int64 { return &q.MarketType }),
	textCol(ColShortName, func(q *models.Quote) *string { return &q.ShortName }),
	textCol(ColSpecification, func(q *models.Quote) *string { return &q.Specification }),
	textCol(ColTermDays, func(q *models.Quote) *string { return &q.TermDays }),
	textCol(ColCurrency, func(q *models.Quote) *string { return &q.Currency }),
	intCol(ColOpen, func(q *models.Quote) *int64 { return &q.Open }),
	intCol(ColHigh, func(q *models.Quote) *int64 { return &q.High }),
	intCol(ColLow, func(q *models.Quote) *int64 { return &q.Low }),
	intCol(ColAverage, func(q *models.Quote) *int64 { return &q.Average }),
	intCol(ColClose, func(q *models.Quote) *int64 { return &q.Close }),
	intCol(ColBestBid, func(q *models.Quote) *int64 { return &q.BestBid }),
	intCol(ColBestAsk, func(q *models.Quote) *int64 { return &q.BestAsk }),
	intCol(ColTradeCount, func(q *models.Quote) *int64 { return &q.TradeCount }),
	intCol(ColQuantity, func(q *models.Quote) *int64 { return &q.Quantity }),
	intCol(ColVolume, func(q *models.Quote) *int64 { return &q.Volume }),
	intCol(ColStrikePrice, func(q *models.Quote) *int64 { return &q.StrikePrice }),
	intCol(ColOptionIndicator, func(q *models.Quote) *int64 { return &q.OptionIndicator }),
	intCol(ColExpiration, func(q *models.Quote) *int64 { return &q.Expiration }),
	intCol(ColQuoteFactor, func(q *models.Quote) *int64 { return &q.QuoteFactor }),
	intCol(ColStrikePoints, func(q *models.Quote) *int64 { return &q.StrikePoints }),
	textCol(ColISIN, func(q *models.Quote) *string { return &q.ISIN }),
	intCol(ColDistribution, func(q *models.Quote) *int64 { return &q.Distribution }),
}

// binding maps layout positions to Quote fields. Layouts may reorder
// columns or carry extra ones; every Quote column must be present with a
// compatible kind.
type binding struct {
	layout fixedwidth.Layout
	pos    []int // pos[i] is the layout index of columns[i]
}

func bind(l fixedwidth.Layout) (*binding, error) {
	b := &binding{layout: l, pos: make([]int, len(columns))}
	for i, c := range columns {
		idx, ok := l.Index(c.name)
		if !ok {
			return nil, fmt.Errorf("layout has no %s column", c.name)
		}
		if k := l.Field(idx).Kind; k.Numeric() != c.numeric {
			return nil, fmt.Errorf("layout column %s has kind %s", c.name, k)
		}
		b.pos[i] = idx
	}
	return b, nil
}

func (b *binding) quote(row fixedwidth.Row) models.Quote {
	var q models.Quote
	for i, c := range columns {
		v := row[b.pos[i]]
		if c.numeric {
			*c.int64p(&q) = v.Int
		} else {
			*c.stringp(&q) = v.Text
		}
	}
	return q
}

func (b *binding) row(q models.Quote) fixedwidth.Row {
	row := make(fixedwidth.Row, b.layout.Len())
	for i, c := range columns {
		if c.numeric {
			row[b.pos[i]].Int = *c.int64p(&q)
		} else {
			row[b.pos[i]].Text = *c.stringp(&q)
		}
	}
	return row
}

// Accessor returns a getter for the named COTAHIST column and whether the
// column is numeric. ok is false for unknown names.
func Accessor(name string) (get func(models.Quote) fixedwidth.Value, numeric, ok bool) {
	for _, c := range columns {
		if c.name != name {
			continue
		}
		if c.numeric {
			return func(q models.Quote) fixedwidth.Value { return fixedwidth.Value{Int: *c.int64p(&q)} }, true, true
		}
		return func(q models.Quote) fixedwidth.Value { return fixedwidth.Value{Text: *c.stringp(&q)} }, false, true
	}
	return nil, false, false
}
