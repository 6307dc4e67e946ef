package memo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadTaxonomy_BuiltIn(t *testing.T) {
	taxonomy, err := LoadTaxonomy("")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := []Category{
		CategoryReverseSplit,
		CategorySplit,
		CategoryNameChange,
		CategoryMerger,
		CategoryTender,
		CategoryLiquidation,
	}

	got := taxonomy.Categories()
	if len(got) != len(want) {
		t.Fatalf("Expected %d categories, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Category %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestLoadTaxonomy_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yml")
	content := `
categories:
  - name: Spinoff
    keywords: [spin-off, spinoff]
  - name: merger
    keywords: [merger]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	taxonomy, err := LoadTaxonomy(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got := taxonomy.Categories()
	if len(got) != 2 || got[0] != "spinoff" || got[1] != CategoryMerger {
		t.Errorf("Unexpected categories: %v", got)
	}
}

func TestLoadTaxonomy_MissingFile(t *testing.T) {
	_, err := LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	if !strings.Contains(err.Error(), "failed to read taxonomy") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"bad yaml", "categories: [", "failed to parse YAML"},
		{"empty", "categories: []", "no categories"},
		{"no name", "categories:\n  - keywords: [x]\n", "has no name"},
		{"duplicate", "categories:\n  - name: merger\n    keywords: [a]\n  - name: Merger\n    keywords: [b]\n", "duplicate category"},
		{"no keywords", "categories:\n  - name: merger\n", "at least one keyword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaxonomy([]byte(tt.content))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error containing %q, got %v", tt.errText, err)
			}
		})
	}
}

func TestParseTaxonomy_KeepsTrailingSpace(t *testing.T) {
	taxonomy, err := ParseTaxonomy([]byte("categories:\n  - name: split\n    keywords: [\"  Split \"]\n"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := taxonomy.entries[0].Keywords[0]; got != "split " {
		t.Errorf("Expected %q, got %q", "split ", got)
	}
}
