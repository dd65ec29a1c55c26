package models

import (
	"fmt"
	"strings"
)

// StandardCondition is the platform-agnostic item condition, ordered from
// best (ConditionNew) to worst (ConditionPoor).
type StandardCondition int

const (
	ConditionNew StandardCondition = iota
	ConditionLikeNew
	ConditionVeryGood
	ConditionGood
	ConditionAcceptable
	ConditionPoor
)

var conditionNames = [...]string{
	ConditionNew:        "NEW",
	ConditionLikeNew:    "LIKE_NEW",
	ConditionVeryGood:   "VERY_GOOD",
	ConditionGood:       "GOOD",
	ConditionAcceptable: "ACCEPTABLE",
	ConditionPoor:       "POOR",
}

// Conditions lists every StandardCondition in best-to-worst order.
func Conditions() []StandardCondition {
	return []StandardCondition{
		ConditionNew, ConditionLikeNew, ConditionVeryGood,
		ConditionGood, ConditionAcceptable, ConditionPoor,
	}
}

func (c StandardCondition) String() string {
	if c < 0 || int(c) >= len(conditionNames) {
		return fmt.Sprintf("StandardCondition(%d)", int(c))
	}
	return conditionNames[c]
}

// ParseCondition returns the condition with the given name, e.g. "LIKE_NEW".
// Matching ignores case and surrounding whitespace.
func ParseCondition(name string) (StandardCondition, error) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for i, n := range conditionNames {
		if n == name {
			return StandardCondition(i), nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", name)
}

func (c StandardCondition) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(conditionNames) {
		return nil, fmt.Errorf("invalid condition %d", int(c))
	}
	return []byte(conditionNames[c]), nil
}

func (c *StandardCondition) UnmarshalText(b []byte) error {
	parsed, err := ParseCondition(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
