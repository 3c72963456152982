package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/guttosm/b3cotahist/internal/apperr"
)

// column describes one stock_data column.
type column struct {
	name     string
	ddl      string
	dataType string // information_schema.columns.data_type
}

// quoteColumns mirrors models.StockRow, in COPY order.
var quoteColumns = []column{
	{"data", "BIGINT", "bigint"},
	{"codneg", "VARCHAR(12)", "character varying"},
	{"nomres", "VARCHAR(12)", "character varying"},
	{"especi", "VARCHAR(10)", "character varying"},
	{"preabe", "BIGINT", "bigint"},
	{"premax", "BIGINT", "bigint"},
	{"premin", "BIGINT", "bigint"},
	{"premed", "BIGINT", "bigint"},
	{"preult", "BIGINT", "bigint"},
	{"totneg", "BIGINT", "bigint"},
	{"quatot", "BIGINT", "bigint"},
	{"voltot", "BIGINT", "bigint"},
	{"codisi", "VARCHAR(12)", "character varying"},
}

func columnNames() []string {
	out := make([]string, len(quoteColumns))
	for i, c := range quoteColumns {
		out[i] = c.name
	}
	return out
}

func columnList() string {
	return strings.Join(columnNames(), ", ")
}

func createTableSQL() string {
	defs := make([]string, len(quoteColumns))
	for i, c := range quoteColumns {
		defs[i] = fmt.Sprintf("%s %s NOT NULL", c.name, c.ddl)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", QuotesTable, strings.Join(defs, ",\n\t"))
}

const createIndexSQL = `CREATE INDEX IF NOT EXISTS stock_data_codneg_data_idx ON stock_data (codneg, data)`

const describeTableSQL = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position
	`

// EnsureSchema creates stock_data when missing and checks the shape of an
// existing one.
//
// Behavior:
//   - Issues CREATE TABLE IF NOT EXISTS with every column NOT NULL, plus a
//     (codneg, data) index. Both are no-ops on an existing table, so calling
//     this every run never touches data.
//   - Reads the table's columns from information_schema and compares them to
//     the persisted row shape.
//
// Returns:
//   - error: *apperr.SchemaError listing every mismatch, or a classified
//     database error.
func (r *quotesRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL()); err != nil {
		return classify("create table", err)
	}
	if _, err := r.db.ExecContext(ctx, createIndexSQL); err != nil {
		return classify("create index", err)
	}

	rows, err := r.db.QueryContext(ctx, describeTableSQL, QuotesTable)
	if err != nil {
		return classify("describe table", err)
	}
	defer rows.Close()

	type actual struct {
		dataType string
		nullable bool
	}
	found := make(map[string]actual)
	var order []string
	for rows.Next() {
		var name, dataType, nullable string
		if err := rows.Scan(&name, &dataType, &nullable); err != nil {
			return err
		}
		found[name] = actual{dataType: dataType, nullable: strings.EqualFold(nullable, "YES")}
		order = append(order, name)
	}
	if err := rows.Err(); err != nil {
		return classify("describe table", err)
	}

	var mismatch []string
	expected := make(map[string]bool, len(quoteColumns))
	for _, c := range quoteColumns {
		expected[c.name] = true
		a, ok := found[c.name]
		switch {
		case !ok:
			mismatch = append(mismatch, fmt.Sprintf("missing column %s", c.name))
		case a.dataType != c.dataType:
			mismatch = append(mismatch, fmt.Sprintf("column %s is %s, want %s", c.name, a.dataType, c.dataType))
		case a.nullable:
			mismatch = append(mismatch, fmt.Sprintf("column %s is nullable", c.name))
		}
	}
	for _, name := range order {
		if !expected[name] {
			mismatch = append(mismatch, fmt.Sprintf("unexpected column %s", name))
		}
	}
	if len(mismatch) > 0 {
		return &apperr.SchemaError{Table: QuotesTable, Mismatch: mismatch}
	}
	return nil
}
