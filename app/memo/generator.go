package memo

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
)

// Generator renders records as an RSS 2.0 channel.
type Generator struct {
	title    string
	link     string
	selfLink string
	version  string
}

func NewGenerator(title, link, selfLink, version string) *Generator {
	return &Generator{
		title:    cmp.Or(title, "OCC Information Memos"),
		link:     link,
		selfLink: selfLink,
		version:  version,
	}
}

func (g *Generator) Run(records []Record, lastBuild time.Time) (string, error) {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.title, 4)
	g.writeElement(&buf, "link", g.link, 4)
	g.writeElement(&buf, "description", fmt.Sprintf("Corporate action memos discovered from %s", g.link), 4)

	if g.selfLink != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(g.selfLink)))
	}

	g.writeElement(&buf, "lastBuildDate", lastBuild.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("memo-comb/%s", g.version), 4)

	for _, record := range records {
		g.writeItem(&buf, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, record Record) {
	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"false\">")
	xml.EscapeText(buf, []byte("occ-memo-"+strconv.Itoa(record.Number)))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", fmt.Sprintf("#%d %s", record.Number, record.Title), 6)
	g.writeElement(buf, "link", record.URL, 6)
	g.writeElement(buf, "description", cmp.Or(g.describe(record), "No details available"), 6)

	if !record.PostDate.IsZero() {
		g.writeElement(buf, "pubDate", record.PostDate.Time().Format(time.RFC1123Z), 6)
	}

	if record.Event != CategoryNone {
		g.writeElement(buf, "category", record.Event.Label(), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) describe(record Record) string {
	var parts []string
	if record.Subject != "" {
		parts = append(parts, record.Subject)
	}
	if symbols := Symbols(record); symbols != "" {
		parts = append(parts, "Symbols: "+symbols)
	}
	if !record.EffectiveDate.IsZero() {
		parts = append(parts, "Effective: "+record.EffectiveDate.String())
	}
	if record.Details != "" {
		parts = append(parts, record.Details)
	}

	return strings.Join(parts, " | ")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
