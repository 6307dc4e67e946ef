package memo

import (
	"regexp"
	"strings"
)

// rule tries to pull one field out of a document's text.
type rule func(text string) (string, bool)

// dateRule is a named rule whose capture must normalize to a date.
type dateRule struct {
	name    string
	pattern *regexp.Regexp
}

const datePhrase = `[A-Za-z]{3,9}\.?\s+\d{1,2},\s*\d{4}`

var (
	reSubject        = regexp.MustCompile(`(?im)^Subject:\s*(.+)$`)
	reOptionSymbols  = regexp.MustCompile(`(?im)^Option Symbols?:\s*(.+)$`)
	reNewSymbolsLine = regexp.MustCompile(`(?im)^New Symbols?:\s*(.+)$`)
	reNewSymbols     = regexp.MustCompile(`(?i)New Symbols?:\s*([A-Za-z0-9/]+)`)
	reAdjustedSymbol = regexp.MustCompile(`(?i)Adjusted Option Symbols?:\s*([A-Za-z0-9/]+)`)
)

var effectiveDateRules = []dateRule{
	{
		name:    "effective_date_label",
		pattern: regexp.MustCompile(`(?i)Effective Date:\s*(` + datePhrase + `|\d{1,2}/\d{1,2}/\d{4})`),
	},
	{
		name:    "date_field",
		pattern: regexp.MustCompile(`(?m)^Date:\s*(\d{1,2}/\d{1,2}/\d{4})\s*$`),
	},
	{
		name:    "market_open_sentence",
		pattern: regexp.MustCompile(`(?i)effective (?:at|before) the (?:open|opening) (?:of (?:the )?business )?(?:on )?(` + datePhrase + `)`),
	},
}

// Extractor reads the labelled fields of a memo document. Each field is a
// cascade: the first rule that yields a usable value wins and later rules
// are not consulted.
type Extractor struct {
	subject       []rule
	optionSymbols []rule
	newSymbols    []rule
	effectiveDate []dateRule
}

func NewExtractor() *Extractor {
	return &Extractor{
		subject:       []rule{captureRule(reSubject)},
		optionSymbols: []rule{captureRule(reOptionSymbols)},
		newSymbols: []rule{
			captureRule(reNewSymbolsLine),
			captureRule(reNewSymbols),
			captureRule(reAdjustedSymbol),
		},
		effectiveDate: effectiveDateRules,
	}
}

func (e *Extractor) Run(text string) Fields {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var fields Fields
	fields.Subject, _ = firstMatch(text, e.subject)
	fields.OptionSymbols, _ = firstMatch(text, e.optionSymbols)
	fields.NewSymbols, _ = firstMatch(text, e.newSymbols)
	fields.EffectiveDate, fields.EffectiveDateRule = e.effective(text)

	return fields
}

// effective walks the date cascade. A rule whose capture does not normalize
// counts as a miss and the next rule is tried.
func (e *Extractor) effective(text string) (Date, string) {
	for _, r := range e.effectiveDate {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		d, err := NormalizeDate(m[1])
		if err != nil {
			continue
		}
		return d, r.name
	}
	return Date{}, ""
}

func firstMatch(text string, rules []rule) (string, bool) {
	for _, r := range rules {
		if v, ok := r(text); ok {
			return v, true
		}
	}
	return "", false
}

func captureRule(re *regexp.Regexp) rule {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		v := strings.TrimSpace(m[1])
		return v, v != ""
	}
}
