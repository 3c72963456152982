package models

import "time"

// TickerSummary describes the rows stored for one ticker.
type TickerSummary struct {
	Ticker    string
	ShortName string
	FirstDate int64 // YYYYMMDD
	LastDate  int64 // YYYYMMDD
	Sessions  int64
}

// DailyPoint is one session of a ticker after the presentation boundary:
// prices and volume are in BRL, the date is parsed.
type DailyPoint struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	// Return is the close-to-close change versus the previous session; zero
	// on the first session.
	Return float64
	// CumulativeProfitability compounds every return up to this session, in
	// percent rounded to 2 decimals.
	CumulativeProfitability float64
	// Volatility is the annualized std-dev of the 21 log returns ending at
	// this session, in percent. Zero until 21 returns are available.
	Volatility float64
}

// TickerMetrics summarizes a ticker's full series.
type TickerMetrics struct {
	Ticker string
	// Profitability is the compounded return of the series, in percent.
	Profitability float64
	// Volatility is the annualized std-dev of the last 21 log returns, in
	// percent. Zero when fewer than two returns are available.
	Volatility float64
	ShortName  string
	LastDate   time.Time
	LastClose  float64
	LastHigh   float64
	LastLow    float64
	LastVolume float64
	// LastReturn is the last session's close-to-close change, in percent.
	LastReturn float64
	// LastCloseDisplay is LastClose formatted in BRL, e.g. "R$38,12".
	LastCloseDisplay string
	Sessions         int
}

// PeriodStatistics holds volatility and profitability over one window.
type PeriodStatistics struct {
	Period        string
	From          time.Time
	To            time.Time
	Sessions      int
	Volatility    float64
	Profitability float64
}
