// Package richtext renders CMS rich-text blocks as HTML.
package richtext

import (
	"html/template"
	"strings"

	"github.com/joeblew999/geophoto/internal/gallery"
)

// HTML renders each block as a paragraph of styled spans. Text is escaped.
func HTML(blocks []gallery.Block) template.HTML {
	var b strings.Builder
	for _, block := range blocks {
		b.WriteString("<p>")
		for _, span := range block.Children {
			b.WriteString(`<span style="`)
			b.WriteString(style(span))
			b.WriteString(`">`)
			b.WriteString(template.HTMLEscapeString(span.Text))
			b.WriteString("</span>")
		}
		b.WriteString("</p>")
	}
	return template.HTML(b.String())
}

// Plain returns the text content with paragraphs separated by blank lines.
func Plain(blocks []gallery.Block) string {
	paras := make([]string, 0, len(blocks))
	for _, block := range blocks {
		var b strings.Builder
		for _, span := range block.Children {
			b.WriteString(span.Text)
		}
		paras = append(paras, b.String())
	}
	return strings.Join(paras, "\n\n")
}

func style(s gallery.Span) string {
	weight, fontStyle, decoration := "normal", "normal", "none"
	if s.Bold {
		weight = "bold"
	}
	if s.Italic {
		fontStyle = "italic"
	}
	if s.Underline {
		decoration = "underline"
	}
	return "font-weight: " + weight + "; font-style: " + fontStyle + "; text-decoration: " + decoration
}
