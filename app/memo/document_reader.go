package memo

import (
	"bytes"
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"
)

// DocumentReader turns a fetched memo body into plain text. PDF bodies are
// rebuilt line by line from glyph positions so label rules anchored at line
// starts still apply.
type DocumentReader struct{}

func NewDocumentReader() *DocumentReader {
	return &DocumentReader{}
}

func (r *DocumentReader) Run(doc Document) (string, error) {
	if len(doc.Body) == 0 {
		return "", fmt.Errorf("%w: empty body", ErrDocument)
	}

	var (
		text string
		err  error
	)

	switch {
	case r.isPDF(doc):
		text, err = r.pdfText(doc.Body)
	case r.isHTML(doc):
		text, err = r.htmlText(doc)
	default:
		text = string(doc.Body)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text extracted", ErrDocument)
	}

	slog.Debug("Document text extracted", "url", doc.URL, "content_type", doc.ContentType, "length", len(text))
	return text, nil
}

func (r *DocumentReader) isPDF(doc Document) bool {
	if strings.Contains(strings.ToLower(doc.ContentType), "application/pdf") {
		return true
	}
	if u, err := url.Parse(doc.URL); err == nil && strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return true
	}
	return http.DetectContentType(doc.Body) == "application/pdf"
}

func (r *DocumentReader) isHTML(doc Document) bool {
	contentType := strings.ToLower(doc.ContentType)
	if contentType == "" {
		contentType = strings.ToLower(http.DetectContentType(doc.Body))
	}
	return strings.Contains(contentType, "text/html")
}

func (r *DocumentReader) pdfText(data []byte) (text string, err error) {
	// The PDF library panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			text, err = "", fmt.Errorf("%w: malformed PDF: %v", ErrDocument, p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF: %v", ErrDocument, err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		for _, line := range r.lines(page.Content().Text) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String(), nil
}

// lines groups the glyphs of a page into text lines: top to bottom by
// baseline, left to right within a line.
func (r *DocumentReader) lines(glyphs []pdf.Text) []string {
	rows := make(map[float64][]pdf.Text)
	for _, g := range glyphs {
		y := math.Round(g.Y)
		rows[y] = append(rows[y], g)
	}

	baselines := make([]float64, 0, len(rows))
	for y := range rows {
		baselines = append(baselines, y)
	}
	slices.SortFunc(baselines, func(a, b float64) int {
		return cmp.Compare(b, a)
	})

	lines := make([]string, 0, len(baselines))
	for _, y := range baselines {
		row := rows[y]
		slices.SortStableFunc(row, func(a, b pdf.Text) int {
			return cmp.Compare(a.X, b.X)
		})
		lines = append(lines, r.joinRow(row))
	}
	return lines
}

// joinRow concatenates the glyph runs of one line, inserting a space where
// the horizontal gap between runs is wider than a fraction of the font size.
func (r *DocumentReader) joinRow(texts []pdf.Text) string {
	var b strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			gap := t.X - (prev.X + prev.W)
			if gap > prev.FontSize*0.2 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.S)
	}
	return b.String()
}

// htmlText prefers the readability article body and falls back to the whole
// page when readability finds nothing. Block elements become line breaks.
func (r *DocumentReader) htmlText(doc Document) (string, error) {
	pageURL, _ := url.Parse(doc.URL)

	markup := doc.Body
	article, err := readability.FromReader(bytes.NewReader(doc.Body), pageURL)
	if err != nil {
		slog.Debug("Readability extraction failed, using full page", "url", doc.URL, "error", err)
	} else if article.Content != "" {
		markup = []byte(article.Content)
	}

	page, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse HTML: %v", ErrDocument, err)
	}
	page.Find("script, style, noscript").Remove()

	var b strings.Builder
	for _, n := range page.Nodes {
		writeBlockText(&b, n)
	}

	lines := strings.Split(b.String(), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, "\n"), nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "pre": true,
}

func writeBlockText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeBlockText(b, c)
	}

	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteByte('\n')
	}
}
