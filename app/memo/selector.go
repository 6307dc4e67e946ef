package memo

// Selector picks the candidates a run will enrich. Watermark and lookback
// selection are alternatives; a run uses exactly one of them.
type Selector struct{}

func NewSelector() *Selector {
	return &Selector{}
}

// ByWatermark keeps candidates numbered strictly above watermark.
func (s *Selector) ByWatermark(candidates []Candidate, watermark int) []Candidate {
	selected := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Number > watermark {
			selected = append(selected, c)
		}
	}
	return selected
}

// ByLookback keeps candidates posted on or after today minus days.
// Candidates without a post date are never selected in this mode.
func (s *Selector) ByLookback(candidates []Candidate, today Date, days int) []Candidate {
	cutoff := today.AddDays(-days)

	selected := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.PostDate.IsZero() || c.PostDate.Before(cutoff) {
			continue
		}
		selected = append(selected, c)
	}
	return selected
}
