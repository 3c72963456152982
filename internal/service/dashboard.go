// Package service holds the read-side analytics served by the dashboard API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/guttosm/b3cotahist/internal/domain/models"
	"github.com/guttosm/b3cotahist/internal/storage"
)

// ErrTickerNotFound is returned when no rows exist for a ticker.
var ErrTickerNotFound = errors.New("ticker not found")

const (
	tradingDays      = 252
	volatilityWindow = 21
)

// statisticsWindows are the trailing windows, in months, of Statistics.
var statisticsWindows = []int{1, 12, 24, 36}

// DashboardService defines the analytics exposed to HTTP handlers.
type DashboardService interface {
	Tickers(ctx context.Context) ([]models.TickerSummary, error)
	Series(ctx context.Context, ticker string, limit int) ([]models.DailyPoint, error)
	Metrics(ctx context.Context, ticker string) (*models.TickerMetrics, error)
	Statistics(ctx context.Context, ticker string) ([]models.PeriodStatistics, error)
}

type dashboardService struct {
	repo storage.QuotesRepository
	now  func() time.Time
}

// NewDashboardService returns a DashboardService reading from repo.
func NewDashboardService(repo storage.QuotesRepository) DashboardService {
	return &dashboardService{repo: repo, now: time.Now}
}

func (s *dashboardService) Tickers(ctx context.Context) ([]models.TickerSummary, error) {
	return s.repo.Tickers(ctx)
}

// Series returns the most recent limit sessions of ticker (all when limit is
// not positive), oldest first, with prices converted to BRL. Returns and
// the cumulative and rolling series are computed over the full stored
// history before trimming, so every point carries the same values it has
// in the complete series.
func (s *dashboardService) Series(ctx context.Context, ticker string, limit int) ([]models.DailyPoint, error) {
	points, _, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, nil
}

// Metrics computes cumulative profitability and recent volatility over the
// full series of ticker.
//
// Behavior:
//   - Profitability compounds every daily return: ((Π(1+r)) - 1) * 100,
//     rounded to 2 decimals.
//   - Volatility is the sample std-dev of the last 21 log returns,
//     annualized with √252, in percent.
//
// Returns:
//   - *models.TickerMetrics: metrics and last-session figures.
//   - error: ErrTickerNotFound or a repository error.
func (s *dashboardService) Metrics(ctx context.Context, ticker string) (*models.TickerMetrics, error) {
	points, rows, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}

	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Close
	}
	logs := logReturns(closes)
	if len(logs) > volatilityWindow {
		logs = logs[len(logs)-volatilityWindow:]
	}

	last, lastRow := points[len(points)-1], rows[len(rows)-1]
	return &models.TickerMetrics{
		Ticker:           ticker,
		ShortName:        lastRow.ShortName,
		Profitability:    last.CumulativeProfitability,
		Volatility:       annualize(stdDev(logs)),
		LastDate:         last.Date,
		LastClose:        last.Close,
		LastHigh:         last.High,
		LastLow:          last.Low,
		LastVolume:       last.Volume,
		LastReturn:       round2(last.Return * 100),
		LastCloseDisplay: formatBRL(lastRow.Close),
		Sessions:         len(points),
	}, nil
}

// Statistics computes volatility and profitability over trailing windows of
// 1, 12, 24 and 36 months ending at the last session, then over the
// current calendar year.
func (s *dashboardService) Statistics(ctx context.Context, ticker string) ([]models.PeriodStatistics, error) {
	points, _, err := s.load(ctx, ticker)
	if err != nil {
		return nil, err
	}
	end := points[len(points)-1].Date

	out := make([]models.PeriodStatistics, 0, len(statisticsWindows)+1)
	for _, months := range statisticsWindows {
		start := end.AddDate(0, -months, 0)
		window := between(points, start, end)
		out = append(out, periodStats(fmt.Sprintf("%dm", months), start, end, window))
	}

	year := s.now().Year()
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	stop := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	out = append(out, periodStats("year", start, stop, between(points, start, stop)))
	return out, nil
}

// load reads every row of ticker and converts them into date-sorted points
// with close-to-close returns, cumulative profitability and the rolling
// volatility. The sorted rows are returned alongside.
func (s *dashboardService) load(ctx context.Context, ticker string) ([]models.DailyPoint, []models.StockRow, error) {
	rows, err := s.repo.QuotesByTicker(ctx, ticker, 0, 0)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, ErrTickerNotFound
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].TradeDate < rows[j].TradeDate })

	points := make([]models.DailyPoint, len(rows))
	logs := make([]float64, 0, len(rows))
	growth := 1.0
	for i, r := range rows {
		d, err := parseDate(r.TradeDate)
		if err != nil {
			return nil, nil, err
		}
		p := models.DailyPoint{
			Date:   d,
			Open:   toBRL(r.Open),
			High:   toBRL(r.High),
			Low:    toBRL(r.Low),
			Close:  toBRL(r.Close),
			Volume: toBRL(r.Volume),
		}
		if i > 0 {
			prev := points[i-1].Close
			if prev != 0 {
				p.Return = p.Close/prev - 1
			}
			growth *= 1 + p.Return
			p.CumulativeProfitability = round2((growth - 1) * 100)

			lr := 0.0
			if prev > 0 && p.Close > 0 {
				lr = math.Log(p.Close / prev)
			}
			logs = append(logs, lr)
			if len(logs) >= volatilityWindow {
				p.Volatility = annualize(stdDev(logs[len(logs)-volatilityWindow:]))
			}
		}
		points[i] = p
	}
	return points, rows, nil
}

func periodStats(name string, from, to time.Time, window []models.DailyPoint) models.PeriodStatistics {
	st := models.PeriodStatistics{Period: name, From: from, To: to, Sessions: len(window)}
	if len(window) == 0 {
		return st
	}
	returns := make([]float64, 0, len(window))
	for i := 1; i < len(window); i++ {
		if prev := window[i-1].Close; prev != 0 {
			returns = append(returns, window[i].Close/prev-1)
		}
	}
	st.Volatility = annualize(stdDev(returns))
	if first := window[0].Close; first != 0 {
		st.Profitability = (window[len(window)-1].Close/first - 1) * 100
	}
	return st
}

// between returns the points dated within [from, to].
func between(points []models.DailyPoint, from, to time.Time) []models.DailyPoint {
	lo := sort.Search(len(points), func(i int) bool { return !points[i].Date.Before(from) })
	hi := sort.Search(len(points), func(i int) bool { return points[i].Date.After(to) })
	if lo >= hi {
		return nil
	}
	return points[lo:hi]
}

func logReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes))
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			out = append(out, math.Log(closes[i]/closes[i-1]))
		}
	}
	return out
}

// stdDev is the sample standard deviation; zero for fewer than two values.
func stdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func annualize(sd float64) float64 {
	return sd * math.Sqrt(tradingDays) * 100
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// toBRL converts an implied-scale integer (two decimals) into reais.
func toBRL(v int64) float64 {
	return decimal.New(v, -2).InexactFloat64()
}

// formatBRL renders an implied-scale integer (centavos) as BRL.
func formatBRL(cents int64) string {
	return money.New(cents, money.BRL).Display()
}

func parseDate(yyyymmdd int64) (time.Time, error) {
	d, err := time.Parse("20060102", fmt.Sprintf("%08d", yyyymmdd))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid trade date %d: %w", yyyymmdd, err)
	}
	return d, nil
}
