package categorize

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// rulesFile is the on-disk shape of a category table:
//
//	categories:
//	  - category: Food & Dining
//	    keywords: [restaurant, cafe]
//
// A YAML sequence keeps its order, which the table depends on.
type rulesFile struct {
	Categories []Rule `yaml:"categories"`
}

var ErrNoRules = errors.New("no category rules defined")

// ParseRulesYAML decodes an ordered category table.
func ParseRulesYAML(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse category rules: %w", err)
	}
	rules := make([]Rule, 0, len(f.Categories))
	for i, r := range f.Categories {
		if r.Category == "" {
			return nil, fmt.Errorf("category rule %d: missing category name", i)
		}
		if len(r.Keywords) == 0 {
			return nil, fmt.Errorf("category rule %q: no keywords", r.Category)
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return nil, ErrNoRules
	}
	return rules, nil
}

// LoadRulesYAML reads a category table from path.
func LoadRulesYAML(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read category rules %s: %w", path, err)
	}
	return ParseRulesYAML(data)
}

// FromFile returns a Categorizer over the table at path, or the default
// table when path is empty.
func FromFile(path string) (*Categorizer, error) {
	if path == "" {
		return Default(), nil
	}
	rules, err := LoadRulesYAML(path)
	if err != nil {
		return nil, err
	}
	return New(rules), nil
}

// MarshalRulesYAML encodes rules in the format ParseRulesYAML reads.
func MarshalRulesYAML(rules []Rule) ([]byte, error) {
	return yaml.Marshal(rulesFile{Categories: rules})
}
