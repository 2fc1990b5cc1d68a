// Package htmlsanitize strips markup from free-text fields (project and task
// titles/descriptions) before they are stored.
package htmlsanitize

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// policy removes every tag; script/style contents are dropped entirely.
var policy = bluemonday.StrictPolicy()

// markup matches text that is unmistakably HTML: a closing tag, a
// self-closing tag, or an opening tag carrying an attribute.
var markup = regexp.MustCompile(`</[a-zA-Z][a-zA-Z0-9-]*\s*>|<[a-zA-Z][a-zA-Z0-9-]*(\s[^<>]*)?/>|<[a-zA-Z][a-zA-Z0-9-]*\s+[a-zA-Z-]+\s*=`)

// HasMarkup reports whether s contains HTML elements rather than text that
// merely uses angle brackets ("a<b", "List<String>").
func HasMarkup(s string) bool {
	return markup.MatchString(s)
}

// PlainText returns s with surrounding space trimmed. When s contains HTML
// elements they are removed; anything else is kept as given and escaping is
// left to whatever renders it. Entities escaped by the policy are decoded
// again so that "R&D" survives unchanged.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !HasMarkup(s) {
		return s
	}
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
