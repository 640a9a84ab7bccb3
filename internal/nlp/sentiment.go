package nlp

import "strings"

// Sentiment is the polarity of a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

var (
	positiveWords = wordSet("bon", "excellent", "merci", "super", "bien", "parfait", "genial")
	negativeWords = wordSet("probleme", "urgent", "mauvais", "inquiet", "aide", "sos", "grave")
)

func wordSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// ScoreSentiment counts positive and negative keywords over the normalized
// tokens of the message. Ties, including zero matches on both sides, are
// neutral.
func ScoreSentiment(message string) Sentiment {
	var pos, neg int
	for _, token := range strings.Fields(Normalize(message)) {
		if _, ok := positiveWords[token]; ok {
			pos++
		}
		if _, ok := negativeWords[token]; ok {
			neg++
		}
	}

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}
