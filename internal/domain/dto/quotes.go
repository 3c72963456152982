package dto

import (
	"time"

	"github.com/guttosm/b3cotahist/internal/domain/models"
)

// dateLayout renders session dates in responses.
const dateLayout = "2006-01-02"

// TickerResponse is one entry of GET /api/v1/tickers.
type TickerResponse struct {
	Ticker    string `json:"ticker" example:"PETR4"`
	ShortName string `json:"short_name" example:"PETROBRAS"`
	FirstDate string `json:"first_date" example:"2023-01-02"`
	LastDate  string `json:"last_date" example:"2024-01-31"`
	Sessions  int64  `json:"sessions" example:"271"`
}

// QuotePointResponse is one session of GET /api/v1/quotes/{ticker}.
type QuotePointResponse struct {
	Date   string  `json:"date" example:"2024-01-31"`
	Open   float64 `json:"open" example:"37.56"`
	High   float64 `json:"high" example:"38.20"`
	Low    float64 `json:"low" example:"37.41"`
	Close  float64 `json:"close" example:"38.12"`
	Volume float64 `json:"volume" example:"1942345678.00"`
	// Return is the close-to-close change in percent.
	Return float64 `json:"daily_return" example:"1.49"`

	CumulativeProfitability float64 `json:"cumulative_profitability" example:"12.34"`
	// Volatility is zero until 21 returns are available.
	Volatility              float64 `json:"volatility" example:"27.80"`
}

// QuotesResponse wraps a ticker's series.
type QuotesResponse struct {
	Ticker string               `json:"ticker" example:"PETR4"`
	Quotes []QuotePointResponse `json:"quotes"`
}

// MetricsResponse is the body of GET /api/v1/metrics/{ticker}.
type MetricsResponse struct {
	Ticker           string  `json:"ticker" example:"PETR4"`
	ShortName        string  `json:"short_name" example:"PETROBRAS"`
	Profitability    float64 `json:"cumulative_profitability" example:"12.34"`
	Volatility       float64 `json:"volatility" example:"27.80"`
	LastDate         string  `json:"last_date" example:"2024-01-31"`
	LastClose        float64 `json:"last_close" example:"38.12"`
	LastCloseDisplay string  `json:"last_close_display" example:"R$38,12"`
	LastHigh         float64 `json:"last_high" example:"38.20"`
	LastLow          float64 `json:"last_low" example:"37.41"`
	LastVolume       float64 `json:"last_volume" example:"1942345678.00"`
	LastReturn       float64 `json:"last_return" example:"1.49"`
	Sessions         int     `json:"sessions" example:"271"`
}

// PeriodResponse is one window of GET /api/v1/statistics/{ticker}.
type PeriodResponse struct {
	Period        string  `json:"period" example:"12m"`
	From          string  `json:"from" example:"2023-01-31"`
	To            string  `json:"to" example:"2024-01-31"`
	Sessions      int     `json:"sessions" example:"248"`
	Volatility    float64 `json:"volatility" example:"27.80"`
	Profitability float64 `json:"profitability" example:"12.34"`
}

// StatisticsResponse wraps a ticker's period statistics.
type StatisticsResponse struct {
	Ticker  string           `json:"ticker" example:"PETR4"`
	Periods []PeriodResponse `json:"periods"`
}

// NewTickerResponses maps summaries to their response form.
func NewTickerResponses(in []models.TickerSummary) []TickerResponse {
	out := make([]TickerResponse, len(in))
	for i, s := range in {
		out[i] = TickerResponse{
			Ticker:    s.Ticker,
			ShortName: s.ShortName,
			FirstDate: yyyymmdd(s.FirstDate),
			LastDate:  yyyymmdd(s.LastDate),
			Sessions:  s.Sessions,
		}
	}
	return out
}

// NewQuotesResponse maps a ticker's series to its response form.
func NewQuotesResponse(ticker string, points []models.DailyPoint) QuotesResponse {
	out := QuotesResponse{Ticker: ticker, Quotes: make([]QuotePointResponse, len(points))}
	for i, p := range points {
		out.Quotes[i] = QuotePointResponse{
			Date:   p.Date.Format(dateLayout),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
			Return: p.Return * 100,

			CumulativeProfitability: p.CumulativeProfitability,
			Volatility:              p.Volatility,
		}
	}
	return out
}

// NewMetricsResponse maps metrics to their response form.
func NewMetricsResponse(m models.TickerMetrics) MetricsResponse {
	return MetricsResponse{
		Ticker:           m.Ticker,
		ShortName:        m.ShortName,
		Profitability:    m.Profitability,
		Volatility:       m.Volatility,
		LastDate:         m.LastDate.Format(dateLayout),
		LastClose:        m.LastClose,
		LastCloseDisplay: m.LastCloseDisplay,
		LastHigh:         m.LastHigh,
		LastLow:          m.LastLow,
		LastVolume:       m.LastVolume,
		LastReturn:       m.LastReturn,
		Sessions:         m.Sessions,
	}
}

// NewStatisticsResponse maps period statistics to their response form.
func NewStatisticsResponse(ticker string, periods []models.PeriodStatistics) StatisticsResponse {
	out := StatisticsResponse{Ticker: ticker, Periods: make([]PeriodResponse, len(periods))}
	for i, p := range periods {
		out.Periods[i] = PeriodResponse{
			Period:        p.Period,
			From:          p.From.Format(dateLayout),
			To:            p.To.Format(dateLayout),
			Sessions:      p.Sessions,
			Volatility:    p.Volatility,
			Profitability: p.Profitability,
		}
	}
	return out
}

func yyyymmdd(v int64) string {
	t := time.Date(int(v/10000), time.Month(v/100%100), int(v%100), 0, 0, 0, 0, time.UTC)
	return t.Format(dateLayout)
}
