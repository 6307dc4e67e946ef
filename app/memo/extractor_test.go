package memo

import "testing"

const memoText = `Information Memo #56789
Date: 05/30/2025
Subject: ABC Corp - 1-for-10 Reverse Stock Split
Option Symbols: ABC
New Symbols: ABC1
Effective Date: June 2, 2025

ABC Corp has announced a 1-for-10 reverse stock split.`

func TestExtractor_Run(t *testing.T) {
	fields := NewExtractor().Run(memoText)

	if fields.Subject != "ABC Corp - 1-for-10 Reverse Stock Split" {
		t.Errorf("Unexpected subject: %q", fields.Subject)
	}
	if fields.OptionSymbols != "ABC" {
		t.Errorf("Unexpected option symbols: %q", fields.OptionSymbols)
	}
	if fields.NewSymbols != "ABC1" {
		t.Errorf("Unexpected new symbols: %q", fields.NewSymbols)
	}
	if fields.EffectiveDate.String() != "2025-06-02" {
		t.Errorf("Expected effective date 2025-06-02, got %q", fields.EffectiveDate)
	}
	if fields.EffectiveDateRule != "effective_date_label" {
		t.Errorf("Expected label rule, got %q", fields.EffectiveDateRule)
	}
}

func TestExtractor_LabelWithNumericDate(t *testing.T) {
	fields := NewExtractor().Run("Effective Date: 6/9/2025")

	if fields.EffectiveDate.String() != "2025-06-09" {
		t.Errorf("Expected 2025-06-09, got %q", fields.EffectiveDate)
	}
}

func TestExtractor_InvalidLabelFallsThrough(t *testing.T) {
	text := "Date: 05/30/2025\nEffective Date: February 30, 2025\n"

	fields := NewExtractor().Run(text)

	if fields.EffectiveDate.String() != "2025-05-30" {
		t.Errorf("Expected the Date: line to be used, got %q", fields.EffectiveDate)
	}
	if fields.EffectiveDateRule != "date_field" {
		t.Errorf("Expected date_field rule, got %q", fields.EffectiveDateRule)
	}
}

func TestExtractor_MarketOpenSentence(t *testing.T) {
	fields := NewExtractor().Run("The split is effective at the open on June 10, 2025.")
	if fields.EffectiveDate.String() != "2025-06-10" {
		t.Errorf("Expected 2025-06-10, got %q", fields.EffectiveDate)
	}
	if fields.EffectiveDateRule != "market_open_sentence" {
		t.Errorf("Expected market_open_sentence rule, got %q", fields.EffectiveDateRule)
	}

	fields = NewExtractor().Run("Effective before the opening of business on July 1, 2025, symbols change.")
	if fields.EffectiveDate.String() != "2025-07-01" {
		t.Errorf("Expected 2025-07-01, got %q", fields.EffectiveDate)
	}

	// "Mon." is not a month, so nothing normalizes.
	fields = NewExtractor().Run("Effective before the opening of business on Mon. 9, 2025 and later.")
	if !fields.EffectiveDate.IsZero() {
		t.Errorf("Expected no effective date, got %q", fields.EffectiveDate)
	}
}

func TestExtractor_NewSymbolCascade(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"line", "New Symbol: XYZ1\n", "XYZ1"},
		{"inline", "Option symbol XYZ changes. New Symbols: XYZ2/XYZ3 effective soon", "XYZ2/XYZ3"},
		{"adjusted", "Adjusted Option Symbol: XYZ4 applies", "XYZ4"},
		{"none", "Nothing to see", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewExtractor().Run(tt.text).NewSymbols; got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractor_FirstRuleWins(t *testing.T) {
	text := "New Symbols: AAA1\nAdjusted Option Symbol: BBB1\n"

	if got := NewExtractor().Run(text).NewSymbols; got != "AAA1" {
		t.Errorf("Expected the first rule to win, got %q", got)
	}
}

func TestExtractor_CRLF(t *testing.T) {
	text := "Subject: Merger of DEF\r\nOption Symbol: DEF\r\nDate: 06/03/2025\r\n"

	fields := NewExtractor().Run(text)

	if fields.Subject != "Merger of DEF" {
		t.Errorf("Unexpected subject: %q", fields.Subject)
	}
	if fields.OptionSymbols != "DEF" {
		t.Errorf("Unexpected option symbols: %q", fields.OptionSymbols)
	}
	if fields.EffectiveDate.String() != "2025-06-03" {
		t.Errorf("Expected 2025-06-03, got %q", fields.EffectiveDate)
	}
}

func TestExtractor_Empty(t *testing.T) {
	fields := NewExtractor().Run("")

	if fields != (Fields{}) {
		t.Errorf("Expected empty fields, got %+v", fields)
	}
}
