// Package classify guesses a document's domain type from extracted text by
// scoring it against weighted keyword/pattern tables.
package classify

import (
	"log/slog"

	"github.com/talahq/docintake/constants"
)

// Classification is the classifier verdict plus its full score breakdown.
type Classification struct {
	Type   constants.DocumentType
	Scores map[string]int
	// Confidence is the winning category's share of the total score mass,
	// in [0,1]. Zero total scores yield zero confidence.
	Confidence float32
}

type Classifier struct {
	tables *Tables
	logger *slog.Logger
}

func NewClassifier(tables *Tables, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{tables: tables, logger: logger}
}

// Score counts pattern matches per category. Overlapping matches are counted
// independently; nothing is deduplicated.
func (c *Classifier) Score(text string) map[string]int {
	scores := make(map[string]int, len(c.tables.Categories))
	for _, cat := range c.tables.Categories {
		n := 0
		for _, re := range cat.Patterns {
			n += len(re.FindAllStringIndex(text, -1))
		}
		scores[cat.Name] = n
	}
	return scores
}

// Classify applies the fixed priority decision rule. The table order IS the
// tie-break: categories have different natural keyword densities, so "pick
// the max" would misfile sparse-signal types. Do not reorder.
func (c *Classifier) Classify(text string) Classification {
	scores := c.Score(text)

	maxScore := 0
	total := 0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
		total += s
	}

	out := Classification{Type: constants.TypeOther, Scores: scores}
	if maxScore < c.tables.MinSignal {
		c.logger.Debug("classification signal too weak", "max_score", maxScore)
		return out
	}

	for _, cat := range c.tables.Categories {
		if scores[cat.Name] >= cat.Threshold {
			out.Type = typeForCategory(cat.Name)
			out.Confidence = float32(scores[cat.Name]) / float32(total)
			c.logger.Debug("document classified",
				"type", out.Type, "score", scores[cat.Name], "confidence", out.Confidence)
			return out
		}
	}
	return out
}

func typeForCategory(name string) constants.DocumentType {
	switch name {
	case "assessment":
		return constants.TypeAssessment
	case "interview":
		return constants.TypeInterview
	case "cv":
		return constants.TypeCV
	}
	return constants.TypeOther
}
