// Package filter selects the round-lot common and preferred share quotes out
// of a decoded COTAHIST stream.
package filter

import (
	"strings"

	"github.com/guttosm/b3cotahist/internal/domain/models"
)

// RoundLotBDI is the CODBDI value B3 assigns to round-lot trades.
const RoundLotBDI = "02"

// ShareClass is an ESPECI prefix identifying a share class.
type ShareClass string

const (
	Common     ShareClass = "ON"
	Preferred  ShareClass = "PN"
	PreferredB ShareClass = "PNB"
	PreferredA ShareClass = "PNA"
)

// ShareClasses lists the classes MatchShareClass accepts, in match order.
var ShareClasses = []ShareClass{Common, Preferred, PreferredB, PreferredA}

// IsRoundLot reports whether bdi is exactly the round-lot marker.
func IsRoundLot(bdi string) bool {
	return bdi == RoundLotBDI
}

// MatchShareClass reports the first share class contained in especi.
//
// Matching is a case-insensitive substring test with no other
// normalization, so "PNA N1" and "on nm" both match while "UNT N2" does
// not. Note "PN" is a substring of "PNA" and "PNB": those specifications
// report Preferred.
func MatchShareClass(especi string) (ShareClass, bool) {
	upper := strings.ToUpper(especi)
	for _, c := range ShareClasses {
		if strings.Contains(upper, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Keep reports whether q is a round-lot trade of a common or preferred
// share. Both conditions are required.
func Keep(q models.Quote) bool {
	if !IsRoundLot(q.BDICode) {
		return false
	}
	_, ok := MatchShareClass(q.Specification)
	return ok
}

// Apply returns the quotes Keep accepts, in input order. The result never
// shares a backing array with quotes.
func Apply(quotes []models.Quote) []models.Quote {
	out := make([]models.Quote, 0, len(quotes)/4)
	for _, q := range quotes {
		if Keep(q) {
			out = append(out, q)
		}
	}
	return out
}
