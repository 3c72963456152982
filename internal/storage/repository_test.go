package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	pq "github.com/lib/pq"

	"github.com/guttosm/b3cotahist/internal/apperr"
	"github.com/guttosm/b3cotahist/internal/domain/models"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*quotesRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &quotesRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

func sampleRow(ticker string) models.StockRow {
	return models.StockRow{
		TradeDate:     20240102,
		Ticker:        ticker,
		ShortName:     "PETROBRAS",
		Specification: "PN  N2",
		Open:          3756,
		High:          3820,
		Low:           3741,
		Average:       3790,
		Close:         3812,
		TradeCount:    41234,
		Quantity:      51234500,
		Volume:        194234567800,
		ISIN:          "BRPETRACNPR6",
	}
}

func rowArgs(r models.StockRow) []driver.Value {
	return []driver.Value{
		r.TradeDate, r.Ticker, r.ShortName, r.Specification,
		r.Open, r.High, r.Low, r.Average, r.Close,
		r.TradeCount, r.Quantity, r.Volume, r.ISIN,
	}
}

const copyRegex = `COPY "stock_data" \("data", "codneg", "nomres", "especi", "preabe", "premax", "premin", "premed", "preult", "totneg", "quatot", "voltot", "codisi"\) FROM STDIN`

func TestNewQuotesRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	if r := NewQuotesRepository(db); r == nil {
		t.Fatalf("expected non-nil repository")
	}
}

func TestCopyBatch_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	rows := []models.StockRow{sampleRow("PETR4"), sampleRow("VALE3")}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(copyRegex)
	prep.ExpectExec().WithArgs(rowArgs(rows[0])...).WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs(rowArgs(rows[1])...).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0)) // final Exec()
	mock.ExpectCommit()

	if err := repo.CopyBatch(context.Background(), rows, nil); err != nil {
		t.Fatalf("CopyBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCopyBatch_RecordsProgressInSameTx(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
	prep := mock.ExpectPrepare(copyRegex)
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO load_log`).WithArgs("20240131", 1000, 1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mark := &Progress{Artifact: "20240131", Rows: 1000, Batches: 1}
	if err := repo.CopyBatch(context.Background(), []models.StockRow{sampleRow("X")}, mark); err != nil {
		t.Fatalf("CopyBatch: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCopyBatch_Errors(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(mock sqlmock.Sqlmock)
		mark   *Progress
		assert func(t *testing.T, err error)
	}{
		{
			name: "begin fails with connection error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(&pq.Error{Code: "08001", Message: "cannot connect"})
			},
			assert: func(t *testing.T, err error) {
				var te *apperr.TransientError
				if !errors.As(err, &te) || te.Op != "begin" {
					t.Fatalf("expected TransientError on begin, got %v", err)
				}
			},
		},
		{
			name: "row exec violates not null",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
				prep := mock.ExpectPrepare(copyRegex)
				prep.ExpectExec().WillReturnError(&pq.Error{Code: "23502", Column: "nomres", Message: "null value"})
				mock.ExpectRollback()
			},
			assert: func(t *testing.T, err error) {
				var ie *apperr.IntegrityError
				if !errors.As(err, &ie) || ie.Constraint != "nomres" {
					t.Fatalf("expected IntegrityError, got %v", err)
				}
			},
		},
		{
			name: "final exec loses connection",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
				prep := mock.ExpectPrepare(copyRegex)
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(".*").WillReturnError(&pq.Error{Code: "08006", Message: "connection failure"})
				mock.ExpectRollback()
			},
			assert: func(t *testing.T, err error) {
				var te *apperr.TransientError
				if !errors.As(err, &te) {
					t.Fatalf("expected TransientError, got %v", err)
				}
			},
		},
		{
			name: "progress upsert fails",
			mark: &Progress{Artifact: "a", Rows: 1, Batches: 1},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
				prep := mock.ExpectPrepare(copyRegex)
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`INSERT INTO load_log`).WillReturnError(dummyErr{})
				mock.ExpectRollback()
			},
			assert: func(t *testing.T, err error) {
				if !errors.Is(err, dummyErr{}) {
					t.Fatalf("expected dummy error, got %v", err)
				}
			},
		},
		{
			name: "commit fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("SET LOCAL synchronous_commit = OFF")).WillReturnResult(sqlmock.NewResult(0, 0))
				prep := mock.ExpectPrepare(copyRegex)
				prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectCommit().WillReturnError(dummyErr{})
			},
			assert: func(t *testing.T, err error) {
				if err == nil {
					t.Fatalf("expected commit error")
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()
			tc.setup(mock)
			err := repo.CopyBatch(context.Background(), []models.StockRow{sampleRow("X")}, tc.mark)
			tc.assert(t, err)
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func describeRows() *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"})
	for _, c := range quoteColumns {
		rows.AddRow(c.name, c.dataType, "NO")
	}
	return rows
}

func TestEnsureSchema_SQLMock(t *testing.T) {
	cases := []struct {
		name      string
		rows      func() *sqlmock.Rows
		wantMatch string
	}{
		{name: "matching table", rows: describeRows},
		{
			name: "nullable column",
			rows: func() *sqlmock.Rows {
				r := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"})
				for _, c := range quoteColumns {
					n := "NO"
					if c.name == "nomres" {
						n = "YES"
					}
					r.AddRow(c.name, c.dataType, n)
				}
				return r
			},
			wantMatch: "column nomres is nullable",
		},
		{
			name: "wrong type",
			rows: func() *sqlmock.Rows {
				r := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"})
				for _, c := range quoteColumns {
					dt := c.dataType
					if c.name == "preult" {
						dt = "numeric"
					}
					r.AddRow(c.name, dt, "NO")
				}
				return r
			},
			wantMatch: "column preult is numeric, want bigint",
		},
		{
			name: "missing and extra columns",
			rows: func() *sqlmock.Rows {
				r := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"})
				for _, c := range quoteColumns[1:] {
					r.AddRow(c.name, c.dataType, "NO")
				}
				r.AddRow("preofc", "bigint", "NO")
				return r
			},
			wantMatch: "missing column data; unexpected column preofc",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()

			mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS stock_data")).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec(regexp.QuoteMeta(createIndexSQL)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectQuery(`FROM information_schema.columns`).WithArgs(QuotesTable).WillReturnRows(tc.rows())

			err := repo.EnsureSchema(context.Background())
			if tc.wantMatch == "" {
				if err != nil {
					t.Fatalf("EnsureSchema: %v", err)
				}
			} else {
				var se *apperr.SchemaError
				if !errors.As(err, &se) {
					t.Fatalf("expected SchemaError, got %v", err)
				}
				if !strings.Contains(se.Error(), tc.wantMatch) {
					t.Fatalf("error %q does not mention %q", se.Error(), tc.wantMatch)
				}
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestEnsureSchema_CreateFails(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()
	mock.ExpectExec("CREATE TABLE").WillReturnError(&pq.Error{Code: "57P01", Message: "admin shutdown"})

	var te *apperr.TransientError
	if err := repo.EnsureSchema(context.Background()); !errors.As(err, &te) {
		t.Fatalf("expected TransientError, got %v", err)
	}
}

func TestCreateTableSQL_AllColumnsNotNull(t *testing.T) {
	ddl := createTableSQL()
	if !strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS stock_data (") {
		t.Fatalf("unexpected ddl %q", ddl)
	}
	if n := strings.Count(ddl, "NOT NULL"); n != len(quoteColumns) || n != 13 {
		t.Fatalf("want 13 NOT NULL columns, got %d", n)
	}
}

func TestLoadProgress_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	q := regexp.QuoteMeta("SELECT rows_loaded, batches_loaded FROM load_log WHERE artifact = $1")
	mock.ExpectQuery(q).WithArgs("a").WillReturnRows(sqlmock.NewRows([]string{"rows_loaded", "batches_loaded"}).AddRow(2000, 2))
	mock.ExpectQuery(q).WithArgs("b").WillReturnError(sql.ErrNoRows)

	p, err := repo.LoadProgress(context.Background(), "a")
	if err != nil || p.Rows != 2000 || p.Batches != 2 {
		t.Fatalf("LoadProgress(a)=%+v,%v", p, err)
	}
	p, err = repo.LoadProgress(context.Background(), "b")
	if err != nil || p.Rows != 0 || p.Artifact != "b" {
		t.Fatalf("LoadProgress(b)=%+v,%v", p, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTickers_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`SELECT codneg, MAX\(nomres\), MIN\(data\), MAX\(data\), COUNT\(\*\)\s+FROM stock_data`).
		WillReturnRows(sqlmock.NewRows([]string{"codneg", "nomres", "min", "max", "count"}).
			AddRow("PETR4", "PETROBRAS", int64(20240102), int64(20240131), int64(21)).
			AddRow("VALE3", "VALE", int64(20240102), int64(20240130), int64(20)))

	got, err := repo.Tickers(context.Background())
	if err != nil {
		t.Fatalf("Tickers: %v", err)
	}
	if len(got) != 2 || got[0].Ticker != "PETR4" || got[1].Sessions != 20 {
		t.Fatalf("unexpected tickers %+v", got)
	}
}

func TestQuotesByTicker_SQLMock(t *testing.T) {
	cases := []struct {
		name  string
		limit int
		want  driver.Value
	}{
		{name: "unbounded", limit: 0, want: nil},
		{name: "limited", limit: 30, want: int64(30)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo, mock, done := newMockRepo(t)
			defer done()

			cols := append([]string(nil), columnNames()...)
			r := sampleRow("PETR4")
			vals := rowArgs(r)
			mock.ExpectQuery(`FROM stock_data\s+WHERE codneg = \$1 AND data >= \$2\s+ORDER BY data DESC\s+LIMIT \$3`).
				WithArgs("PETR4", int64(20240101), tc.want).
				WillReturnRows(sqlmock.NewRows(cols).AddRow(vals...))

			got, err := repo.QuotesByTicker(context.Background(), "PETR4", 20240101, tc.limit)
			if err != nil {
				t.Fatalf("QuotesByTicker: %v", err)
			}
			if len(got) != 1 || got[0] != r {
				t.Fatalf("unexpected rows %+v", got)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	if classify("x", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	plain := errors.New("syntax")
	if classify("x", plain) != plain {
		t.Fatalf("unknown errors must pass through")
	}
	syntax := &pq.Error{Code: "42601"}
	if classify("x", syntax) != error(syntax) {
		t.Fatalf("non-transient pq errors must pass through")
	}
	var te *apperr.TransientError
	if !errors.As(classify("x", context.DeadlineExceeded), &te) {
		t.Fatalf("deadline must be transient")
	}
	var ie *apperr.IntegrityError
	if !errors.As(classify("x", &pq.Error{Code: "23505", Constraint: "pk"}), &ie) || ie.Constraint != "pk" {
		t.Fatalf("unique violation must be integrity error")
	}
}
