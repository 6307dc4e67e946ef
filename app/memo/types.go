package memo

// Listing types

type Candidate struct {
	Number            int
	Title             string
	URL               string
	PostDate          Date // zero when the listing row carries no date
	EffectiveDateHint Date
}

// Document is a fetched memo body as returned by the fetch collaborator.
type Document struct {
	URL         string
	ContentType string
	Body        []byte
}

// Extraction types

type Fields struct {
	Subject           string
	OptionSymbols     string
	NewSymbols        string
	EffectiveDate     Date
	EffectiveDateRule string // name of the cascade rule that produced EffectiveDate
}

// Record types

type Record struct {
	Number        int
	Title         string
	URL           string
	PostDate      Date
	EffectiveDate Date
	Event         Category
	Subject       string
	OptionSymbols string
	NewSymbols    string
	Details       string // set only when the document could not be fetched or read

	IsFiltered   bool
	FilterReason string
}

// NewRecord starts a record from the listing data of a candidate.
func NewRecord(c Candidate) Record {
	return Record{
		Number:        c.Number,
		Title:         c.Title,
		URL:           c.URL,
		PostDate:      c.PostDate,
		EffectiveDate: c.EffectiveDateHint,
	}
}

// Apply merges extracted fields into the record. Extracted values win over
// listing hints; absent extracted values keep what the record already has.
func (r *Record) Apply(f Fields) {
	r.Subject = f.Subject
	if f.OptionSymbols != "" {
		r.OptionSymbols = f.OptionSymbols
	}
	if f.NewSymbols != "" {
		r.NewSymbols = f.NewSymbols
	}
	if !f.EffectiveDate.IsZero() {
		r.EffectiveDate = f.EffectiveDate
	}
}

// Filter configuration

type FilterConfig struct {
	Include              []string
	ExcludePastEffective bool
}
