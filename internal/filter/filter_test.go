package filter

import (
	"reflect"
	"testing"

	"github.com/guttosm/b3cotahist/internal/domain/models"
)

func quote(ticker, bdi, especi string) models.Quote {
	return models.Quote{Ticker: ticker, BDICode: bdi, Specification: especi, TradeDate: 20240102}
}

func TestMatchShareClass(t *testing.T) {
	cases := []struct {
		especi string
		want   ShareClass
		ok     bool
	}{
		{"ON", Common, true},
		{"ON  NM", Common, true},
		{"on nm", Common, true},
		{"PN  N2", Preferred, true},
		{"PNA N1", Preferred, true},
		{"PNB", Preferred, true},
		{"UNT N2", "", false},
		{"CI", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.especi, func(t *testing.T) {
			got, ok := MatchShareClass(tc.especi)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("MatchShareClass(%q)=%q,%v want %q,%v", tc.especi, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestKeep(t *testing.T) {
	cases := []struct {
		name string
		q    models.Quote
		want bool
	}{
		{"round lot common", quote("VALE3", "02", "ON  NM"), true},
		{"round lot PNA N1", quote("XXXX5", "02", "PNA N1"), true},
		{"units excluded", quote("TAEE11", "02", "UNT N2"), false},
		{"odd lot ON excluded", quote("VALE3F", "96", "ON  NM"), false},
		{"options excluded", quote("PETRA100", "78", "ON"), false},
		{"blank bdi excluded", quote("VALE3", "", "ON"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Keep(tc.q); got != tc.want {
				t.Fatalf("Keep=%v want %v", got, tc.want)
			}
		})
	}
}

func TestApply_OrderAndIdempotence(t *testing.T) {
	in := []models.Quote{
		quote("A", "02", "ON"),
		quote("B", "96", "ON"),
		quote("C", "02", "UNT"),
		quote("D", "02", "pn"),
		quote("E", "02", "PNB N1"),
	}
	once := Apply(in)
	want := []models.Quote{in[0], in[3], in[4]}
	if !reflect.DeepEqual(once, want) {
		t.Fatalf("Apply: want %+v got %+v", want, once)
	}
	twice := Apply(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("Apply is not idempotent: %+v vs %+v", once, twice)
	}

	twice[0].Ticker = "Z"
	if once[0].Ticker != "A" {
		t.Fatalf("Apply must not alias its input")
	}
}

func TestApply_Empty(t *testing.T) {
	if got := Apply(nil); len(got) != 0 {
		t.Fatalf("want empty, got %v", got)
	}
}
