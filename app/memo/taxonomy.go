package memo

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yml
var defaultTaxonomy []byte

type Category string

const (
	CategoryNone         Category = ""
	CategoryReverseSplit Category = "reverse split"
	CategorySplit        Category = "split"
	CategoryNameChange   Category = "name/symbol change"
	CategoryMerger       Category = "merger"
	CategoryTender       Category = "tender"
	CategoryLiquidation  Category = "liquidation"
)

type taxonomyFile struct {
	Categories []taxonomyEntry `yaml:"categories"`
}

type taxonomyEntry struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the ordered category/keyword table used by the classifier.
// It is read once and never modified afterwards.
type Taxonomy struct {
	entries []taxonomyEntry
}

// LoadTaxonomy reads a taxonomy YAML file. An empty path selects the
// built-in table.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data := defaultTaxonomy
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read taxonomy: %w", err)
		}
	}

	t, err := ParseTaxonomy(data)
	if err != nil {
		return nil, err
	}

	slog.Debug("Taxonomy loaded", "path", path, "categories", len(t.entries))
	return t, nil
}

// DefaultTaxonomy returns the built-in table.
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("built-in taxonomy is invalid: %v", err))
	}
	return t
}

func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("taxonomy has no categories")
	}

	seen := make(map[string]bool, len(file.Categories))
	entries := make([]taxonomyEntry, 0, len(file.Categories))
	for i, entry := range file.Categories {
		name := strings.ToLower(strings.TrimSpace(entry.Name))
		if name == "" {
			return nil, fmt.Errorf("category at index %d has no name", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		if len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("category %q must have at least one keyword", name)
		}
		seen[name] = true

		keywords := make([]string, 0, len(entry.Keywords))
		for _, k := range entry.Keywords {
			// Only leading space is trimmed: "split " relies on its trailing one.
			if k = strings.ToLower(strings.TrimLeft(k, " \t")); k != "" {
				keywords = append(keywords, k)
			}
		}
		entries = append(entries, taxonomyEntry{Name: name, Keywords: keywords})
	}

	return &Taxonomy{entries: entries}, nil
}

func (t *Taxonomy) Categories() []Category {
	categories := make([]Category, len(t.entries))
	for i, e := range t.entries {
		categories[i] = Category(e.Name)
	}
	return categories
}
