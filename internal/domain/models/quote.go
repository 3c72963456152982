package models

// Quote represents one trade-summary record of a B3 COTAHIST file.
// Each field matches one column of the fixed-width layout.
//
// Prices and VOLTOT are implied-scale integers (hundredths of BRL): a raw
// "0000000015000" is kept as 15000 and only shown as 150.00. PTOEXE carries
// six implied decimals.
//
// Column order:
//  1. TIPREG  RecordType
//  2. DATA    TradeDate (YYYYMMDD)
//  3. CODBDI  BDICode
//  4. CODNEG  Ticker
//  5. TPMERC  MarketType
//  6. NOMRES  ShortName
//  7. ESPECI  Specification
//  8. PRAZOT  TermDays
//  9. MODREF  Currency
//  10. PREABE..PREOFV  Open, High, Low, Average, Close, BestBid, BestAsk
//  17. TOTNEG  TradeCount
//  18. QUATOT  Quantity
//  19. VOLTOT  Volume
//  20. PREEXE  StrikePrice
//  21. INDOPC  OptionIndicator
//  22. DATVEN  Expiration (YYYYMMDD)
//  23. FATCOT  QuoteFactor
//  24. PTOEXE  StrikePoints
//  25. CODISI  ISIN
//  26. DISMES  Distribution
type Quote struct {
	RecordType      int64
	TradeDate       int64
	BDICode         string
	Ticker          string
	MarketType      int64
	ShortName       string
	Specification   string
	TermDays        string
	Currency        string
	Open            int64
	High            int64
	Low             int64
	Average         int64
	Close           int64
	BestBid         int64
	BestAsk         int64
	TradeCount      int64
	Quantity        int64
	Volume          int64
	StrikePrice     int64
	OptionIndicator int64
	Expiration      int64
	QuoteFactor     int64
	StrikePoints    int64
	ISIN            string
	Distribution    int64
}

// StockRow is the subset of a Quote persisted in the stock_data table.
// Every column is NOT NULL; prices and volume stay implied-scale integers.
type StockRow struct {
	TradeDate     int64
	Ticker        string
	ShortName     string
	Specification string
	Open          int64
	High          int64
	Low           int64
	Average       int64
	Close         int64
	TradeCount    int64
	Quantity      int64
	Volume        int64
	ISIN          string
}

// StockRow projects q onto the persisted columns.
func (q Quote) StockRow() StockRow {
	return StockRow{
		TradeDate:     q.TradeDate,
		Ticker:        q.Ticker,
		ShortName:     q.ShortName,
		Specification: q.Specification,
		Open:          q.Open,
		High:          q.High,
		Low:           q.Low,
		Average:       q.Average,
		Close:         q.Close,
		TradeCount:    q.TradeCount,
		Quantity:      q.Quantity,
		Volume:        q.Volume,
		ISIN:          q.ISIN,
	}
}
