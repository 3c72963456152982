package fetch

import (
	"fmt"
	"time"
)

// MonthlyArchive names the archive of t's month: COTAHIST_M<MMYYYY>.ZIP.
func MonthlyArchive(t time.Time) string {
	return "COTAHIST_M" + t.Format("012006") + ".ZIP"
}

// YearlyArchive names the archive of a whole year: COTAHIST_A<YYYY>.ZIP.
func YearlyArchive(year int) string {
	return fmt.Sprintf("COTAHIST_A%04d.ZIP", year)
}

// DailyArchive names the archive of one session: COTAHIST_D<DDMMYYYY>.ZIP.
func DailyArchive(t time.Time) string {
	return "COTAHIST_D" + t.Format("02012006") + ".ZIP"
}

// MonthRange returns the first day of every month from from's month to
// to's month, inclusive. Empty when to precedes from.
func MonthRange(from, to time.Time) []time.Time {
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, from.Location())

	var out []time.Time
	for !cur.After(end) {
		out = append(out, cur)
		cur = cur.AddDate(0, 1, 0)
	}
	return out
}
