package fields

import (
	_ "embed"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var keywordsYAML []byte

// ScoringConstants are the recommendation weights. They are observed,
// tuned values; do not re-derive them.
type ScoringConstants struct {
	StrengthWeight   int `yaml:"strength_weight"`
	HighRiskWeight   int `yaml:"high_risk_weight"`
	MediumRiskWeight int `yaml:"medium_risk_weight"`
	ConcernWeight    int `yaml:"concern_weight"`
	SentimentBonus   int `yaml:"sentiment_bonus"`
	RejectBelow      int `yaml:"reject_below"`
	ProceedAbove     int `yaml:"proceed_above"`
	MaxQuotes        int `yaml:"max_quotes"`
	MaxFlags         int `yaml:"max_flags"`
}

type keywordFile struct {
	Version    int              `yaml:"version"`
	Scoring    ScoringConstants `yaml:"scoring"`
	HighRisk   []string         `yaml:"high_risk"`
	MediumRisk []string         `yaml:"medium_risk"`
	Strengths  []string         `yaml:"strengths"`
	Concerns   []string         `yaml:"concerns"`
	Positive   []string         `yaml:"positive"`
	Negative   []string         `yaml:"negative"`
}

// KeywordTables holds the compiled interview keyword tables.
type KeywordTables struct {
	Scoring    ScoringConstants
	HighRisk   []*regexp.Regexp
	MediumRisk []*regexp.Regexp
	Strengths  []*regexp.Regexp
	Concerns   []*regexp.Regexp
	Positive   []*regexp.Regexp
	Negative   []*regexp.Regexp
}

// LoadKeywordTables parses and compiles the embedded keyword tables.
func LoadKeywordTables() (*KeywordTables, error) {
	var kf keywordFile
	if err := yaml.Unmarshal(keywordsYAML, &kf); err != nil {
		return nil, fmt.Errorf("parse keywords: %w", err)
	}
	t := &KeywordTables{Scoring: kf.Scoring}
	var err error
	if t.HighRisk, err = compileAll(kf.HighRisk); err != nil {
		return nil, err
	}
	if t.MediumRisk, err = compileAll(kf.MediumRisk); err != nil {
		return nil, err
	}
	if t.Strengths, err = compileAll(kf.Strengths); err != nil {
		return nil, err
	}
	if t.Concerns, err = compileAll(kf.Concerns); err != nil {
		return nil, err
	}
	if t.Positive, err = compileAll(kf.Positive); err != nil {
		return nil, err
	}
	if t.Negative, err = compileAll(kf.Negative); err != nil {
		return nil, err
	}
	return t, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			return nil, fmt.Errorf("keywords: pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func anyMatch(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
