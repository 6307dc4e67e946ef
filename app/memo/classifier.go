package memo

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var reSplitRatio = regexp.MustCompile(`\b\d+\s*for\s*\d+\b`)

type Classifier struct {
	taxonomy *Taxonomy
}

func NewClassifier(taxonomy *Taxonomy) *Classifier {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &Classifier{taxonomy: taxonomy}
}

// Run returns the first taxonomy category with a keyword contained in the
// lowercased title and subject. When none matches, two word-level fallbacks
// are tried: "reverse" together with "split", then "stock split" or an
// "N for M" ratio.
func (c *Classifier) Run(title, subject string) Category {
	text := strings.ToLower(title + " " + subject)

	for _, entry := range c.taxonomy.entries {
		for _, keyword := range entry.Keywords {
			if strings.Contains(text, keyword) {
				return Category(entry.Name)
			}
		}
	}

	if strings.Contains(text, "reverse") && strings.Contains(text, "split") {
		return CategoryReverseSplit
	}
	if strings.Contains(text, "stock split") || reSplitRatio.MatchString(text) {
		return CategorySplit
	}

	return CategoryNone
}

// Label returns the category in title case ("Name/Symbol Change").
func (c Category) Label() string {
	return cases.Title(language.English).String(string(c))
}
