package fragment

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Sanitizer post-processes the free-text summary and description of a
// documentation block before it is placed into the document.
type Sanitizer func(text string) string

// NoSanitizer returns the text unchanged.
func NoSanitizer(text string) string {
	return text
}

// BRSanitizer converts newlines to HTML line breaks. It is the default.
func BRSanitizer(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), "\n", "<br/>")
}

// MarkdownSanitizer renders the text as CommonMark with the common
// extensions enabled and returns the HTML.
func MarkdownSanitizer(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})

	return strings.TrimSpace(string(markdown.ToHTML([]byte(text), p, renderer)))
}
