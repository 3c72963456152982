package fetch

import "time"

// LastNBusinessDays returns the last n B3 sessions up to and including
// from's date, most recent first. Weekends and exchange holidays are
// skipped.
func LastNBusinessDays(n int, from time.Time) []time.Time {
	out := make([]time.Time, 0, n)
	d := dateOf(from)
	for len(out) < n {
		if IsBusinessDay(d) {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}

// IsBusinessDay reports whether B3 holds a regular session on d.
func IsBusinessDay(d time.Time) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	_, closed := holidays(d.Year())[d.Format("01-02")]
	return !closed
}

// holidays lists the "MM-DD" dates B3 is closed in year.
func holidays(year int) map[string]struct{} {
	days := map[string]struct{}{
		"01-01": {}, // Confraternização Universal
		"04-21": {}, // Tiradentes
		"05-01": {}, // Dia do Trabalho
		"09-07": {}, // Independência
		"10-12": {}, // Nossa Senhora Aparecida
		"11-02": {}, // Finados
		"11-15": {}, // Proclamação da República
		"12-24": {}, // no session on Christmas Eve
		"12-25": {}, // Natal
		"12-31": {}, // no session on the last day of the year
	}
	if year >= 2024 {
		days["11-20"] = struct{}{} // Consciência Negra, national from 2024
	}

	easter := easterSunday(year)
	for _, offset := range []int{-48, -47, -2, 60} { // carnival Mon/Tue, Good Friday, Corpus Christi
		days[easter.AddDate(0, 0, offset).Format("01-02")] = struct{}{}
	}
	return days
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// easterSunday computes Easter Sunday with the anonymous Gregorian
// (Meeus/Jones/Butcher) algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	n := h + l - 7*m + 114
	return time.Date(year, time.Month(n/31), n%31+1, 0, 0, 0, 0, time.UTC)
}
