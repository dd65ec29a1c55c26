package services

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"mercari-ingest/config"
	"mercari-ingest/models"
)

// ConditionClassifier maps free-text condition descriptions onto a
// StandardCondition using an ordered list of whole-word phrase rules.
type ConditionClassifier struct {
	rules    []conditionRule
	fallback models.StandardCondition
}

// RE2's \b only knows ASCII word characters, so phrase edges are checked
// against any Unicode letter or digit instead.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

type conditionRule struct {
	pattern   *regexp.Regexp
	condition models.StandardCondition
}

// NewConditionClassifier compiles the vocabulary's condition rules. Rule order
// is preserved: longer phrases must come before the shorter ones they contain.
func NewConditionClassifier(vocab *config.Vocabulary) *ConditionClassifier {
	c := &ConditionClassifier{fallback: vocab.DefaultCondition}
	for _, r := range vocab.Conditions {
		alts := make([]string, 0, len(r.Phrases))
		for _, p := range r.Phrases {
			alts = append(alts, regexp.QuoteMeta(fold(strings.TrimSpace(p))))
		}
		c.rules = append(c.rules, conditionRule{
			pattern:   regexp.MustCompile(wordStart + `(?:` + strings.Join(alts, "|") + `)` + wordEnd),
			condition: r.Condition,
		})
	}
	return c
}

// Classify returns the condition of the first matching rule, or the
// vocabulary default when nothing matches. It never fails.
func (c *ConditionClassifier) Classify(text string) models.StandardCondition {
	folded := fold(text)
	for _, r := range c.rules {
		if r.pattern.MatchString(folded) {
			return r.condition
		}
	}
	return c.fallback
}

// fold returns the caseless form of s. A Caser is stateful, so one is
// created per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
