package memo

import (
	"bytes"
	"cmp"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// contextLookback bounds how many sibling nodes before a memo link are read
// when looking for its post and effective dates.
const contextLookback = 12

var (
	reMemoNumber = regexp.MustCompile(`/infomemos\?number=(\d+)`)
	reListDate   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`)
)

type Parser struct {
	baseURL *url.URL
}

// NewParser returns a listing parser. Relative memo links are resolved
// against baseURL when it is non-nil.
func NewParser(baseURL *url.URL) *Parser {
	return &Parser{baseURL: baseURL}
}

// Run turns listing markup into candidates ordered by number, newest first.
// A number seen more than once keeps its first occurrence.
func (p *Parser) Run(data []byte) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	seen := make(map[int]bool)
	var candidates []Candidate

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := reMemoNumber.FindStringSubmatch(href)
		if m == nil {
			return
		}

		number, err := strconv.Atoi(m[1])
		if err != nil || number <= 0 || seen[number] {
			return
		}
		seen[number] = true

		candidate := Candidate{
			Number: number,
			Title:  strings.TrimSpace(link.Text()),
			URL:    p.resolve(href),
		}

		dates := p.contextDates(link.Get(0))
		if len(dates) >= 1 {
			candidate.PostDate = dates[0]
		}
		if len(dates) >= 2 {
			candidate.EffectiveDateHint = dates[1]
		}

		candidates = append(candidates, candidate)
	})

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		return cmp.Compare(b.Number, a.Number)
	})

	return candidates, nil
}

// MaxNumber returns the highest memo number in candidates, or 0.
func (p *Parser) MaxNumber(candidates []Candidate) int {
	highest := 0
	for _, c := range candidates {
		highest = max(highest, c.Number)
	}
	return highest
}

// contextDates reads the siblings preceding the link's parent in reading
// order and returns the dates found there. Tokens that fail to normalize
// keep their slot as a zero Date so the post/effective order is preserved.
func (p *Parser) contextDates(link *html.Node) []Date {
	if link == nil || link.Parent == nil {
		return nil
	}

	var fragments []string
	sibling := link.Parent.PrevSibling
	for i := 0; sibling != nil && i < contextLookback; i++ {
		if text := nodeText(sibling); text != "" {
			fragments = append(fragments, text)
		}
		sibling = sibling.PrevSibling
	}
	slices.Reverse(fragments)

	var dates []Date
	for _, fragment := range fragments {
		for _, token := range reListDate.FindAllString(fragment, -1) {
			d, _ := NormalizeDate(token)
			dates = append(dates, d)
		}
	}

	return dates
}

func (p *Parser) resolve(href string) string {
	if p.baseURL == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.baseURL.ResolveReference(ref).String()
}

func nodeText(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data)
	case html.ElementNode:
		return strings.Join(strings.Fields(goquery.NewDocumentFromNode(n).Text()), " ")
	default:
		return ""
	}
}
