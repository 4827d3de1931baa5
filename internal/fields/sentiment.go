package fields

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// polarity scores text in [-1,1]: term-count difference over total matches.
// No matches at all is a flat zero.
func (t *KeywordTables) polarity(text string) float64 {
	pos := 0
	for _, re := range t.Positive {
		pos += len(re.FindAllStringIndex(text, -1))
	}
	neg := 0
	for _, re := range t.Negative {
		neg += len(re.FindAllStringIndex(text, -1))
	}
	total := pos + neg
	if total == 0 {
		return 0
	}
	return float64(pos-neg) / float64(total)
}

// sentimentLabel maps a continuous polarity onto the four fixed buckets.
// Thresholds are fixed: >0.3 positive, <-0.3 negative, |p|<0.1 neutral,
// everything in between is mixed.
func sentimentLabel(polarity float64) string {
	switch {
	case polarity > 0.3:
		return SentimentPositive
	case polarity < -0.3:
		return SentimentNegative
	case polarity > -0.1 && polarity < 0.1:
		return SentimentNeutral
	default:
		return SentimentMixed
	}
}
