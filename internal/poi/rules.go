package poi

import (
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var rulesYAML []byte

// Rule qualifies a record for a category when the record carries Key with
// one of Values.
type Rule struct {
	Key      string   `yaml:"key"`
	Category Category `yaml:"category"`
	Values   []string `yaml:"values"`
}

// RuleTable is the versioned tag-to-category lookup used by the classifier.
type RuleTable struct {
	Version int    `yaml:"version"`
	Rules   []Rule `yaml:"rules"`

	// byKey indexes value sets by tag key for O(1) classification.
	byKey map[string][]compiledRule
}

type compiledRule struct {
	category Category
	values   map[string]struct{}
}

// ParseRuleTable parses and indexes a YAML rule table.
func ParseRuleTable(data []byte) (*RuleTable, error) {
	var t RuleTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "poi: parse rule table")
	}
	if len(t.Rules) == 0 {
		return nil, eris.New("poi: rule table has no rules")
	}

	valid := make(map[Category]bool, len(AllCategories))
	for _, c := range AllCategories {
		valid[c] = true
	}

	t.byKey = make(map[string][]compiledRule)
	for _, r := range t.Rules {
		if r.Key == "" {
			return nil, eris.New("poi: rule with empty tag key")
		}
		if !valid[r.Category] {
			return nil, eris.Errorf("poi: rule for unknown category %q", r.Category)
		}
		if len(r.Values) == 0 {
			return nil, eris.Errorf("poi: rule %s/%s has no values", r.Key, r.Category)
		}
		set := make(map[string]struct{}, len(r.Values))
		for _, v := range r.Values {
			set[v] = struct{}{}
		}
		t.byKey[r.Key] = append(t.byKey[r.Key], compiledRule{category: r.Category, values: set})
	}
	return &t, nil
}

// DefaultRules returns the embedded rule table. The embedded table is
// validated by tests, so a parse failure here is a build defect.
func DefaultRules() *RuleTable {
	t, err := ParseRuleTable(rulesYAML)
	if err != nil {
		panic(err)
	}
	return t
}

// Categories returns the set of categories the given tags qualify for.
// Membership is decided independently per category and each category is
// reported at most once, no matter how many rules matched it.
func (t *RuleTable) Categories(tags map[string]string) []Category {
	matched := make(map[Category]bool, 2)
	for key, value := range tags {
		for _, cr := range t.byKey[key] {
			if _, ok := cr.values[value]; ok {
				matched[cr.category] = true
			}
		}
	}
	if len(matched) == 0 {
		return nil
	}

	out := make([]Category, 0, len(matched))
	for _, c := range AllCategories {
		if matched[c] {
			out = append(out, c)
		}
	}
	return out
}
