package nlp

import "strings"

// PhraseMatcher is a whole-token phrase matcher over the crop variant
// catalog. It is the process-wide matcher resource: built once at startup,
// shared across requests, never reinitialized per message. It backs the
// secondary crop-extraction pass and agrees with the primary pass semantics
// (whole-token, case- and accent-insensitive matches).
type PhraseMatcher struct {
	phrases []phrase
}

type phrase struct {
	canonical string
	tokens    []string
}

// NewPhraseMatcher builds the matcher from the normalized crop variants.
func NewPhraseMatcher() *PhraseMatcher {
	m := &PhraseMatcher{}
	for _, crop := range cropCatalog {
		for _, v := range crop.variants {
			tokens := strings.Fields(Normalize(v))
			if len(tokens) == 0 {
				continue
			}
			m.phrases = append(m.phrases, phrase{canonical: crop.name, tokens: tokens})
		}
	}
	return m
}

// Match scans the normalized message tokens for the first phrase occurring as
// a contiguous token sequence and returns its canonical crop name.
func (m *PhraseMatcher) Match(message string) (string, bool) {
	if m == nil {
		return "", false
	}

	tokens := strings.Fields(Normalize(message))
	for _, p := range m.phrases {
		if containsSequence(tokens, p.tokens) {
			return p.canonical, true
		}
	}
	return "", false
}

func containsSequence(tokens, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(tokens) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(tokens); i++ {
		for j, s := range seq {
			if tokens[i+j] != s {
				continue outer
			}
		}
		return true
	}
	return false
}
