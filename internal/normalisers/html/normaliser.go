// Package html strips markup from rendered post bodies, producing the
// plain text handed to the chunker.
package html

import (
	"html"
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for HTML stripping performance.
var (
	scriptTag    = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag     = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag  = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	svgTag       = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments = regexp.MustCompile(`(?s)<!--.*?-->`)
	allTags      = regexp.MustCompile(`<[^>]+>`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// Sanitise converts a rendered HTML body to plain text. Script, style,
// noscript and svg content is removed entirely, remaining tags are
// stripped, entities are decoded, and all whitespace collapses to
// single spaces with the result trimmed.
//
// The stripping is structural and best-effort: malformed markup
// degrades to whatever text survives tag removal, it never fails.
func Sanitise(raw string) string {
	content := scriptTag.ReplaceAllString(raw, " ")
	content = styleTag.ReplaceAllString(content, " ")
	content = noscriptTag.ReplaceAllString(content, " ")
	content = svgTag.ReplaceAllString(content, " ")
	content = htmlComments.ReplaceAllString(content, " ")

	// Replace remaining tags with a space so adjacent block elements
	// do not run their words together.
	content = allTags.ReplaceAllString(content, " ")

	content = html.UnescapeString(content)

	content = whitespace.ReplaceAllString(content, " ")
	return strings.TrimSpace(content)
}
