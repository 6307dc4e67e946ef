package memo

import (
	"testing"
	"time"
)

func TestNewRecord(t *testing.T) {
	c := Candidate{
		Number:            7,
		Title:             "Memo 7",
		URL:               "https://example.com/7",
		PostDate:          NewDate(2025, time.May, 30),
		EffectiveDateHint: NewDate(2025, time.June, 2),
	}

	r := NewRecord(c)

	if r.Number != 7 || r.Title != "Memo 7" || r.URL != "https://example.com/7" {
		t.Errorf("Listing fields not copied: %+v", r)
	}
	if r.PostDate != c.PostDate || r.EffectiveDate != c.EffectiveDateHint {
		t.Errorf("Dates not copied: %+v", r)
	}
}

func TestRecord_Apply(t *testing.T) {
	r := Record{EffectiveDate: NewDate(2025, time.June, 2), OptionSymbols: "OLD"}

	r.Apply(Fields{Subject: "Merger", NewSymbols: "NEW1", EffectiveDate: NewDate(2025, time.June, 9)})

	if r.Subject != "Merger" {
		t.Errorf("Expected subject, got %q", r.Subject)
	}
	if r.OptionSymbols != "OLD" {
		t.Errorf("Absent option symbols should keep the previous value, got %q", r.OptionSymbols)
	}
	if r.NewSymbols != "NEW1" {
		t.Errorf("Expected new symbols, got %q", r.NewSymbols)
	}
	if r.EffectiveDate.String() != "2025-06-09" {
		t.Errorf("Extracted effective date should win, got %q", r.EffectiveDate)
	}

	r.Apply(Fields{})
	if r.EffectiveDate.String() != "2025-06-09" {
		t.Errorf("Missing extracted date should keep the hint, got %q", r.EffectiveDate)
	}
}
