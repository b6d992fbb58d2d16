package aggregate

import (
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// Strategy selects how mentions of a category are weighted.
type Strategy string

const (
	Plain        Strategy = "plain"
	SentenceType Strategy = "sentence_type"
	Heading      Strategy = "heading"
)

// Weights applied to replicated mentions.
const (
	BoostedWeight  = 15
	BaseWeight     = 10
	ExcludedWeight = 1
)

// Derived describes a numeric column read from the sentences of the winning entity.
type Derived struct {
	Column string `yaml:"column"`
	// Parser is "int" or "float".
	Parser string `yaml:"parser"`
	// Weighted replicates each sentence by its mention weight.
	Weighted bool `yaml:"weighted"`
}

// Category is one aggregation rule.
type Category struct {
	Label                string   `yaml:"label"`
	Column               string   `yaml:"column"`
	Strategy             Strategy `yaml:"strategy"`
	BoostedSentenceTypes []string `yaml:"boosted_sentence_types"`
	HeadingPattern       string   `yaml:"heading_pattern"`
	Exclude              []string `yaml:"exclude"`
	Derived              *Derived `yaml:"derived"`

	heading *regexp.Regexp
}

type ruleFile struct {
	Categories []Category `yaml:"categories"`
}

// Rules is a validated, compiled rule set.
type Rules struct {
	Categories []Category
}

// DefaultRules returns the embedded rule set.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRulesYAML)
}

// ParseRules decodes and validates a YAML rule set. Heading patterns are
// matched case-insensitively at the start of the heading.
func ParseRules(data []byte) (*Rules, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode aggregation rules: %w", err)
	}
	if len(file.Categories) == 0 {
		return nil, fmt.Errorf("aggregation rules define no categories")
	}

	seen := make(map[string]struct{}, len(file.Categories))
	for i := range file.Categories {
		c := &file.Categories[i]
		c.Label = strings.TrimSpace(c.Label)
		c.Column = strings.TrimSpace(c.Column)
		if c.Label == "" || c.Column == "" {
			return nil, fmt.Errorf("category %d: label and column are required", i)
		}
		if _, ok := seen[c.Label]; ok {
			return nil, fmt.Errorf("category %s: duplicate label", c.Label)
		}
		seen[c.Label] = struct{}{}

		switch c.Strategy {
		case Plain:
		case SentenceType:
			if len(c.BoostedSentenceTypes) == 0 {
				return nil, fmt.Errorf("category %s: boosted_sentence_types is required", c.Label)
			}
		case Heading:
			if strings.TrimSpace(c.HeadingPattern) == "" {
				return nil, fmt.Errorf("category %s: heading_pattern is required", c.Label)
			}
			re, err := regexp.Compile(`(?i)^(?:` + c.HeadingPattern + `)`)
			if err != nil {
				return nil, fmt.Errorf("category %s: compile heading pattern: %w", c.Label, err)
			}
			c.heading = re
		default:
			return nil, fmt.Errorf("category %s: unknown strategy %q", c.Label, c.Strategy)
		}

		if c.Derived != nil && c.Derived.Parser != "int" && c.Derived.Parser != "float" {
			return nil, fmt.Errorf("category %s: unknown derived parser %q", c.Label, c.Derived.Parser)
		}
	}
	return &Rules{Categories: file.Categories}, nil
}

// weight returns the replication factor of one mention.
func (c *Category) weight(m Mention) int {
	count := max(m.EntityCount, 1)
	switch c.Strategy {
	case SentenceType:
		if slices.Contains(c.BoostedSentenceTypes, m.SentenceType) {
			return BoostedWeight * count
		}
		return BaseWeight * count
	case Heading:
		if slices.Contains(c.Exclude, m.EntityName) {
			return ExcludedWeight * count
		}
		if c.heading.MatchString(m.Heading) {
			return BoostedWeight * count
		}
		return BaseWeight * count
	default:
		return 1
	}
}
