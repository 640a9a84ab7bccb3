// Package nlp implements the message-understanding pipeline: text
// normalization, rule-based intent classification with a keyword fallback
// pass, crop and region extraction against the reference catalogs, and
// keyword-count sentiment scoring.
package nlp

import "github.com/agrisahel/smartagribot/internal/domain"

// Analysis is the complete understanding of one message.
type Analysis struct {
	Intent    Intent
	Crop      string
	Region    *domain.Region
	Sentiment Sentiment
}

// Analyzer bundles the stateless pipeline functions with the shared phrase
// matcher. Construct once at startup and reuse across requests.
type Analyzer struct {
	matcher *PhraseMatcher
}

// NewAnalyzer builds an Analyzer with the phrase matcher loaded.
func NewAnalyzer() *Analyzer {
	return &Analyzer{matcher: NewPhraseMatcher()}
}

// Analyze runs intent classification, entity extraction, and sentiment
// scoring over one message.
func (a *Analyzer) Analyze(message string, regions []domain.Region) Analysis {
	return Analysis{
		Intent:    ClassifyIntent(message),
		Crop:      a.ExtractCrop(message),
		Region:    ExtractRegion(message, regions),
		Sentiment: ScoreSentiment(message),
	}
}

// ExtractCrop runs the primary variant pass, then consults the phrase matcher
// when the primary pass finds nothing. A nil matcher (resource unavailable)
// degrades to the primary pass alone.
func (a *Analyzer) ExtractCrop(message string) string {
	if crop := ExtractCrop(message); crop != "" {
		return crop
	}
	if crop, ok := a.matcher.Match(message); ok {
		return crop
	}
	return ""
}
