// Package cotahist binds the B3 COTAHIST historical-quotes format to
// models.Quote.
//
// Source files are fixed-width, ISO-8859-1, 245 bytes per record, with a
// header record first and a trailer record last.
package cotahist

import "github.com/guttosm/b3cotahist/internal/fixedwidth"

// Column names, as published by B3.
const (
	ColRecordType      = "TIPREG"
	ColTradeDate       = "DATA"
	ColBDICode         = "CODBDI"
	ColTicker          = "CODNEG"
	ColMarketType      = "TPMERC"
	ColShortName       = "NOMRES"
	ColSpecification   = "ESPECI"
	ColTermDays        = "PRAZOT"
	ColCurrency        = "MODREF"
	ColOpen            = "PREABE"
	ColHigh            = "PREMAX"
	ColLow             = "PREMIN"
	ColAverage         = "PREMED"
	ColClose           = "PREULT"
	ColBestBid         = "PREOFC"
	ColBestAsk         = "PREOFV"
	ColTradeCount      = "TOTNEG"
	ColQuantity        = "QUATOT"
	ColVolume          = "VOLTOT"
	ColStrikePrice     = "PREEXE"
	ColOptionIndicator = "INDOPC"
	ColExpiration      = "DATVEN"
	ColQuoteFactor     = "FATCOT"
	ColStrikePoints    = "PTOEXE"
	ColISIN            = "CODISI"
	ColDistribution    = "DISMES"
)

// RecordLength is the byte length of every COTAHIST record.
const RecordLength = 245

// Layout returns the COTAHIST record layout. A fresh value is built on each
// call; callers construct it once at startup and pass it down.
func Layout() fixedwidth.Layout {
	return fixedwidth.MustLayout(
		fixedwidth.Field{Name: ColRecordType, Width: 2, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColTradeDate, Width: 8, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColBDICode, Width: 2, Kind: fixedwidth.Category},
		fixedwidth.Field{Name: ColTicker, Width: 12, Kind: fixedwidth.Text},
		fixedwidth.Field{Name: ColMarketType, Width: 3, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColShortName, Width: 12, Kind: fixedwidth.Text},
		fixedwidth.Field{Name: ColSpecification, Width: 10, Kind: fixedwidth.Category},
		fixedwidth.Field{Name: ColTermDays, Width: 3, Kind: fixedwidth.Text},
		fixedwidth.Field{Name: ColCurrency, Width: 4, Kind: fixedwidth.Text},
		fixedwidth.Field{Name: ColOpen, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColHigh, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColLow, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColAverage, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColClose, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColBestBid, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColBestAsk, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColTradeCount, Width: 5, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColQuantity, Width: 18, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColVolume, Width: 18, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColStrikePrice, Width: 13, Kind: fixedwidth.Scaled, Scale: 2},
		fixedwidth.Field{Name: ColOptionIndicator, Width: 1, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColExpiration, Width: 8, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColQuoteFactor, Width: 7, Kind: fixedwidth.Int},
		fixedwidth.Field{Name: ColStrikePoints, Width: 13, Kind: fixedwidth.Scaled, Scale: 6},
		fixedwidth.Field{Name: ColISIN, Width: 12, Kind: fixedwidth.Text},
		fixedwidth.Field{Name: ColDistribution, Width: 3, Kind: fixedwidth.Int},
	)
}

// PersistedColumns lists the columns kept in the stock_data table, in table
// order.
var PersistedColumns = []string{
	ColTradeDate,
	ColTicker,
	ColShortName,
	ColSpecification,
	ColOpen,
	ColHigh,
	ColLow,
	ColAverage,
	ColClose,
	ColTradeCount,
	ColQuantity,
	ColVolume,
	ColISIN,
}
