package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"mercari-ingest/models"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// Vocabulary is the brand list and condition rule set used by the normalizer.
type Vocabulary struct {
	Brands           []string                 `yaml:"brands"`
	Conditions       []ConditionRule          `yaml:"conditions"`
	DefaultCondition models.StandardCondition `yaml:"default_condition"`
}

// ConditionRule maps any of its phrases to a single condition.
type ConditionRule struct {
	Condition models.StandardCondition `yaml:"condition"`
	Phrases   []string                 `yaml:"phrases"`
}

// vocabularyFile is the on-disk shape. The rule condition is a pointer so a
// missing key can be told apart from NEW, the enum's zero value.
type vocabularyFile struct {
	Brands     []string `yaml:"brands"`
	Conditions []struct {
		Condition *models.StandardCondition `yaml:"condition"`
		Phrases   []string                  `yaml:"phrases"`
	} `yaml:"conditions"`
	DefaultCondition *models.StandardCondition `yaml:"default_condition"`
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("config: embedded vocabulary is invalid: %v", err))
	}
	return v
}

// LoadVocabulary reads a YAML vocabulary file. An empty path yields the
// built-in vocabulary.
func LoadVocabulary(path string) (*Vocabulary, error) {
	if path == "" {
		return DefaultVocabulary(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: read %q: %w", path, err)
	}

	v, err := ParseVocabulary(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %q: %w", path, err)
	}
	return v, nil
}

// ParseVocabulary decodes and validates a YAML vocabulary document. Unknown
// keys are rejected and every condition rule must name its condition.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	var f vocabularyFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	v := &Vocabulary{Brands: f.Brands, DefaultCondition: models.ConditionGood}
	if f.DefaultCondition != nil {
		v.DefaultCondition = *f.DefaultCondition
	}
	for i, r := range f.Conditions {
		if r.Condition == nil {
			return nil, fmt.Errorf("condition rule %d has no condition", i)
		}
		v.Conditions = append(v.Conditions, ConditionRule{Condition: *r.Condition, Phrases: r.Phrases})
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vocabulary) validate() error {
	for i, b := range v.Brands {
		if strings.TrimSpace(b) == "" {
			return fmt.Errorf("brand at index %d is empty", i)
		}
	}
	for i, rule := range v.Conditions {
		if len(rule.Phrases) == 0 {
			return fmt.Errorf("condition rule %d (%s) has no phrases", i, rule.Condition)
		}
		for _, p := range rule.Phrases {
			if strings.TrimSpace(p) == "" {
				return fmt.Errorf("condition rule %d (%s) has an empty phrase", i, rule.Condition)
			}
		}
	}
	return nil
}
