package columnar

import "github.com/guttosm/b3cotahist/internal/domain/models"

// quoteRecord is the parquet row shape. Every column is REQUIRED; the two
// category columns and the short name are dictionary encoded since they
// repeat heavily across a month of trades.
type quoteRecord struct {
	RecordType      int64  `parquet:"name=tipreg, type=INT64"`
	TradeDate       int64  `parquet:"name=data, type=INT64, encoding=DELTA_BINARY_PACKED"`
	BDICode         string `parquet:"name=codbdi, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Ticker          string `parquet:"name=codneg, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	MarketType      int64  `parquet:"name=tpmerc, type=INT64"`
	ShortName       string `parquet:"name=nomres, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Specification   string `parquet:"name=especi, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	TermDays        string `parquet:"name=prazot, type=BYTE_ARRAY, convertedtype=UTF8"`
	Currency        string `parquet:"name=modref, type=BYTE_ARRAY, convertedtype=UTF8"`
	Open            int64  `parquet:"name=preabe, type=INT64"`
	High            int64  `parquet:"name=premax, type=INT64"`
	Low             int64  `parquet:"name=premin, type=INT64"`
	Average         int64  `parquet:"name=premed, type=INT64"`
	Close           int64  `parquet:"name=preult, type=INT64"`
	BestBid         int64  `parquet:"name=preofc, type=INT64"`
	BestAsk         int64  `parquet:"name=preofv, type=INT64"`
	TradeCount      int64  `parquet:"name=totneg, type=INT64"`
	Quantity        int64  `parquet:"name=quatot, type=INT64"`
	Volume          int64  `parquet:"name=voltot, type=INT64"`
	StrikePrice     int64  `parquet:"name=preexe, type=INT64"`
	OptionIndicator int64  `parquet:"name=indopc, type=INT64"`
	Expiration      int64  `parquet:"name=datven, type=INT64"`
	QuoteFactor     int64  `parquet:"name=fatcot, type=INT64"`
	StrikePoints    int64  `parquet:"name=ptoexe, type=INT64"`
	ISIN            string `parquet:"name=codisi, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Distribution    int64  `parquet:"name=dismes, type=INT64"`
}

func toRecord(q models.Quote) quoteRecord {
	return quoteRecord(q)
}

func fromRecord(r quoteRecord) models.Quote {
	return models.Quote(r)
}
