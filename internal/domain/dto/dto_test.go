package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/guttosm/b3cotahist/internal/domain/models"
)

func TestErrorResponse_Error(t *testing.T) {
	e := ErrorResponse{Message: "oops"}
	if e.Error() != "oops" {
		t.Fatalf("want 'oops' got %q", e.Error())
	}
	e2 := ErrorResponse{Message: "oops", ErrorDetails: "bad"}
	if e2.Error() != "oops: bad" {
		t.Fatalf("want 'oops: bad' got %q", e2.Error())
	}
}

func TestNewErrorResponse(t *testing.T) {
	// without inner error
	e := NewErrorResponse("msg", nil)
	if e.Message != "msg" || e.ErrorDetails != "" {
		t.Fatalf("unexpected %+v", e)
	}
	if e.Timestamp.IsZero() || time.Since(e.Timestamp) > time.Second {
		t.Fatalf("timestamp not set")
	}

	// with inner error
	err := errors.New("boom")
	e2 := NewErrorResponse("msg", err)
	if e2.ErrorDetails != "boom" || e2.Message != "msg" {
		t.Fatalf("unexpected %+v", e2)
	}
}

func TestNewTickerResponses_FormatsDates(t *testing.T) {
	out := NewTickerResponses([]models.TickerSummary{{Ticker: "PETR4", ShortName: "PETROBRAS", FirstDate: 20230102, LastDate: 20240131, Sessions: 271}})
	if len(out) != 1 || out[0].FirstDate != "2023-01-02" || out[0].LastDate != "2024-01-31" {
		t.Fatalf("unexpected %+v", out)
	}
}

func TestNewQuotesResponse_ReturnInPercent(t *testing.T) {
	d := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	out := NewQuotesResponse("PETR4", []models.DailyPoint{{Date: d, Close: 38.12, Return: 0.5}})
	if out.Quotes[0].Date != "2024-01-31" || out.Quotes[0].Return != 50 {
		t.Fatalf("unexpected %+v", out)
	}
}
