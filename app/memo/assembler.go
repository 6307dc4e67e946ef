package memo

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type Assembler struct{}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Run returns the visible records, one per number (first seen wins),
// ordered by number descending.
func (a *Assembler) Run(records []Record) []Record {
	seen := make(map[int]bool, len(records))
	result := make([]Record, 0, len(records))

	for _, record := range records {
		if record.IsFiltered || seen[record.Number] {
			continue
		}
		seen[record.Number] = true
		result = append(result, record)
	}

	slices.SortStableFunc(result, func(x, y Record) int {
		return cmp.Compare(y.Number, x.Number)
	})

	return result
}

// Summary renders the notification text: a heading, one bullet per record
// and a fixed-width table.
func (a *Assembler) Summary(records []Record) string {
	var b strings.Builder

	if len(records) == 0 {
		b.WriteString("*[OCC] No new memos today*\n")
		b.WriteString("No upcoming effective corporate actions found.")
		return b.String()
	}

	b.WriteString("*[OCC] New corporate action / adjustment memos*\n")
	for _, r := range records {
		effective := r.EffectiveDate.String()
		if effective == "" {
			effective = "(not stated)"
		}
		fmt.Fprintf(&b, "- #%d <%s|link> | %s | %s | effective: *%s*\n",
			r.Number, r.URL, Symbols(r), r.Event.Label(), effective)
	}

	b.WriteString(a.Table(records))
	return b.String()
}

// Table renders the fixed-width memo table inside a code block.
func (a *Assembler) Table(records []Record) string {
	var b strings.Builder

	header := fmt.Sprintf("%-8s %-30s %-20s %-12s %-12s", "Memo#", "Symbols", "Event", "Posted", "Effective")
	b.WriteString("```\n")
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("-", len(header)) + "\n")

	for _, r := range records {
		fmt.Fprintf(&b, "%-8s %-30s %-20s %-12s %-12s\n",
			fmt.Sprintf("#%d", r.Number), Symbols(r), r.Event.Label(), r.PostDate, r.EffectiveDate)
	}

	b.WriteString("```")
	return b.String()
}

// Symbols renders the option symbols of a record, with "old → new" when a
// new or adjusted symbol is known.
func Symbols(r Record) string {
	if r.NewSymbols == "" {
		return r.OptionSymbols
	}
	return fmt.Sprintf("%s → %s", r.OptionSymbols, r.NewSymbols)
}
