package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule is a named script, as stored in rule files and in the
// configuration file.
type Rule struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"`
	Script      string `yaml:"script"`
}

// RulesFile is the layout of a rule file.
type RulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a rule file and compiles every rule, so a broken rule is
// reported when the file is loaded rather than when it is used.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}

// ParseRules decodes rule file contents.
func ParseRules(data []byte) ([]Rule, error) {
	var f RulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := CheckRules(f.Rules); err != nil {
		return nil, err
	}
	return f.Rules, nil
}

// CheckRules compiles each rule and rejects unnamed or duplicate rules.
func CheckRules(rules []Rule) error {
	seen := make(map[string]bool, len(rules))
	for i, r := range rules {
		if r.Name == "" {
			return fmt.Errorf("rule #%d has no name", i+1)
		}
		if seen[r.Name] {
			return fmt.Errorf("duplicate rule %q", r.Name)
		}
		seen[r.Name] = true
		if _, err := Compile(r.Script); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// FindRule returns the rule called name.
func FindRule(rules []Rule, name string) (Rule, bool) {
	for _, r := range rules {
		if r.Name == name {
			return r, true
		}
	}
	return Rule{}, false
}
