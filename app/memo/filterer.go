package memo

import (
	"fmt"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run marks every record as kept or filtered. The include-keyword filter
// runs first, then the past-effective exclusion.
func (f *Filterer) Run(records []Record, config FilterConfig, today Date) []Record {
	filtered := make([]Record, 0, len(records))
	for _, record := range records {
		record.IsFiltered, record.FilterReason = f.applyFilters(record, config, today)
		filtered = append(filtered, record)
	}
	return filtered
}

func (f *Filterer) applyFilters(record Record, config FilterConfig, today Date) (bool, string) {
	// Records without document data cannot be judged by keywords and are
	// kept so the failure stays visible.
	if len(config.Include) > 0 && record.Details == "" {
		if !f.matchesAny(record.Title+" "+record.Subject, config.Include) {
			return true, fmt.Sprintf("Excluded by include filter: does not contain any of %v", config.Include)
		}
	}

	if config.ExcludePastEffective && !record.EffectiveDate.IsZero() && record.EffectiveDate.Before(today) {
		return true, fmt.Sprintf("Excluded by past-effective filter: effective %s before %s", record.EffectiveDate, today)
	}

	return false, ""
}

// matchesAny reports whether value contains any word of the keywords.
// "name change" therefore matches on either "name" or "change".
func (f *Filterer) matchesAny(value string, keywords []string) bool {
	value = strings.ToLower(value)
	for _, keyword := range keywords {
		for _, word := range strings.Fields(strings.ToLower(keyword)) {
			if strings.Contains(value, word) {
				return true
			}
		}
	}
	return false
}
