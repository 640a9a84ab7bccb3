package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// deaccenter decomposes to NFD, drops combining marks, and recomposes,
	// turning "Maïs" into "Mais".
	deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	nonWordRe    = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes free text: lowercase, accents stripped, anything
// outside word characters / whitespace / hyphen replaced by a space, runs of
// whitespace collapsed, leading and trailing space trimmed. Total and
// idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	text = strings.ToLower(text)
	if stripped, _, err := transform.String(deaccenter, text); err == nil {
		text = stripped
	}
	text = nonWordRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
