package resolver

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// Pattern prefixes selecting the match strategy. Bare patterns are literal
// substrings of the normalized task text.
const (
	regexPrefix = "re:"
	globPrefix  = "glob:"
)

type compiledRule struct {
	rule  routing.RoutingRule
	match func(task *routing.Task) bool
}

// RuleSet is a compiled, ordered routing table. Rules are held sorted by
// priority descending, pattern length descending, target id ascending, so
// evaluation order is deterministic.
type RuleSet struct {
	rules []compiledRule
}

// ruleFile is the YAML shape of a routing table file.
type ruleFile struct {
	Rules []routing.RoutingRule `yaml:"rules"`
}

// LoadRules reads and compiles a routing table from a YAML file.
func LoadRules(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading rules file %q", path)
	}
	rs, err := ParseRules(data)
	return rs, errors.Wrapf(err, "rules file %q", path)
}

// ParseRules compiles a routing table from YAML bytes.
func ParseRules(data []byte) (*RuleSet, error) {
	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "unmarshaling rules")
	}
	return NewRuleSet(file.Rules)
}

// NewRuleSet compiles routing rules. Empty patterns or targets and invalid
// regex/glob patterns fail compilation; the table is static configuration and
// must be correct before it serves requests.
func NewRuleSet(rules []routing.RoutingRule) (*RuleSet, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Pattern == "" {
			return nil, errors.New("routing rule with empty pattern")
		}
		if rule.TargetSkillID == "" {
			return nil, errors.Errorf("routing rule %q has no target skill id", rule.Pattern)
		}

		match, err := compilePattern(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledRule{rule: rule, match: match})
	}

	sort.SliceStable(compiled, func(a, b int) bool {
		ra, rb := compiled[a].rule, compiled[b].rule
		if ra.Priority != rb.Priority {
			return ra.Priority > rb.Priority
		}
		if len(ra.Pattern) != len(rb.Pattern) {
			return len(ra.Pattern) > len(rb.Pattern)
		}
		return ra.TargetSkillID < rb.TargetSkillID
	})

	return &RuleSet{rules: compiled}, nil
}

func compilePattern(pattern string) (func(*routing.Task) bool, error) {
	switch {
	case strings.HasPrefix(pattern, regexPrefix):
		re, err := regexp.Compile(strings.TrimPrefix(pattern, regexPrefix))
		if err != nil {
			return nil, errors.Wrapf(err, "compiling regex pattern %q", pattern)
		}
		return func(t *routing.Task) bool {
			return re.MatchString(t.NormalizedText)
		}, nil

	case strings.HasPrefix(pattern, globPrefix):
		g, err := glob.Compile(strings.TrimPrefix(pattern, globPrefix))
		if err != nil {
			return nil, errors.Wrapf(err, "compiling glob pattern %q", pattern)
		}
		return func(t *routing.Task) bool {
			for _, term := range t.Terms {
				if g.Match(term) {
					return true
				}
			}
			return false
		}, nil

	default:
		literal := routing.NormalizeText(pattern)
		if literal == "" {
			return nil, errors.Errorf("pattern %q normalizes to nothing", pattern)
		}
		return func(t *routing.Task) bool {
			return strings.Contains(t.NormalizedText, literal)
		}, nil
	}
}

// Len returns the number of compiled rules.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Match evaluates every rule against the task and returns the matching rules
// in winning order: priority descending, longer (more specific) patterns
// first on ties.
func (rs *RuleSet) Match(task *routing.Task) []routing.RoutingRule {
	if task.Blank() {
		return nil
	}

	var matched []routing.RoutingRule
	for _, cr := range rs.rules {
		if cr.match(task) {
			matched = append(matched, cr.rule)
		}
	}
	return matched
}

// DefaultRules is the built-in routing table used when no rules file is
// configured. Targets follow the ids of the standard skill corpus; stale
// targets are skipped at resolution time.
func DefaultRules() *RuleSet {
	rs, err := NewRuleSet([]routing.RoutingRule{
		{Pattern: "terraform", TargetSkillID: "terraform-iac", Priority: 100},
		{Pattern: "glob:kube*", TargetSkillID: "kubernetes-operations", Priority: 90},
		{Pattern: "kubectl", TargetSkillID: "kubernetes-operations", Priority: 90},
		{Pattern: "helm", TargetSkillID: "kubernetes-operations", Priority: 80},
		{Pattern: "prometheus", TargetSkillID: "prometheus-observability", Priority: 80},
		{Pattern: "grafana", TargetSkillID: "prometheus-observability", Priority: 70},
		{Pattern: "docker", TargetSkillID: "docker-compose", Priority: 70},
		{Pattern: "re:cloud costs?|finops", TargetSkillID: "finops-cloud-cost-optimization", Priority: 60},
		{Pattern: "model training", TargetSkillID: "ml-model-training", Priority: 60},
		{Pattern: "glob:llm*", TargetSkillID: "ml-llm-engineering", Priority: 50},
	})
	if err != nil {
		// The built-in table is compiled in tests; a bad entry is a bug.
		panic(err)
	}
	return rs
}
