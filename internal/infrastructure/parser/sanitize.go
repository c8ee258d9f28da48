package parser

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// cleanText strips markup from scraped text, decodes entities and collapses
// whitespace.
func cleanText(raw string) string {
	text := html.UnescapeString(strictPolicy.Sanitize(raw))
	return strings.Join(strings.Fields(text), " ")
}
