// Package routing defines the shared value types of the skill routing
// pipeline: skill documents, routing rules, tasks, and the routing decision
// returned to callers. All types here are plain data; the behavior lives in
// the index, matcher, classifier, resolver, and assembler packages.
package routing

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Domain is the closed set of top-level skill domains. Unknown domain tags
// fail the index build rather than silently falling through matching.
type Domain string

const (
	DomainOps    Domain = "OPS"
	DomainML     Domain = "ML"
	DomainDev    Domain = "DEV"
	DomainFinOps Domain = "FINOPS"
)

// ParseDomain canonicalizes a domain tag. Matching is case-insensitive.
func ParseDomain(s string) (Domain, error) {
	switch Domain(strings.ToUpper(strings.TrimSpace(s))) {
	case DomainOps:
		return DomainOps, nil
	case DomainML:
		return DomainML, nil
	case DomainDev:
		return DomainDev, nil
	case DomainFinOps:
		return DomainFinOps, nil
	}
	return "", errors.Errorf("unknown domain %q (expected one of OPS, ML, DEV, FINOPS)", s)
}

// ModelTier is the coarse task-complexity classification that maps to a
// downstream model capability level.
type ModelTier string

const (
	// TierMechanical covers single-tool imperative operations.
	TierMechanical ModelTier = "mechanical"
	// TierAnalytical covers review, debugging, and comparison of a bounded artifact.
	TierAnalytical ModelTier = "analytical"
	// TierArchitectural covers multi-component design and strategy work.
	TierArchitectural ModelTier = "architectural"
)

// SkillDocument is the canonical, normalized shape of one corpus document.
// Instances are built once at index time and immutable thereafter.
type SkillDocument struct {
	ID          string   `json:"id"`
	Domain      Domain   `json:"domain"`
	Category    string   `json:"category"`
	Description string   `json:"description,omitempty"`
	Triggers    []string `json:"triggers"`
	// ContentRef is an opaque handle resolved by the corpus source when the
	// assembler needs the full text; the body is not eagerly loaded.
	ContentRef string `json:"content_ref"`
	// SizeHint is the approximate body length in bytes, for budget planning.
	SizeHint int `json:"size_hint"`
}

// HasTrigger reports whether the document carries the given trigger term.
// Triggers are stored sorted, so this is a binary search.
func (d *SkillDocument) HasTrigger(term string) bool {
	i := sort.SearchStrings(d.Triggers, term)
	return i < len(d.Triggers) && d.Triggers[i] == term
}

// RoutingRule is one entry of the static routing table: a pattern that, when
// it matches the task text, routes to a specific skill document. Patterns are
// literal substrings by default; "re:" and "glob:" prefixes select regexp and
// glob matching respectively.
type RoutingRule struct {
	Pattern       string `yaml:"pattern" json:"pattern"`
	TargetSkillID string `yaml:"target" json:"target"`
	Priority      int    `yaml:"priority" json:"priority"`
}

// Task is the per-request view of an incoming request string.
type Task struct {
	RawText string
	// NormalizedText is the lowercased, punctuation-stripped form of RawText.
	NormalizedText string
	// Terms are the normalized tokens of RawText, stop words removed.
	Terms []string
	// DomainHint, when set, hard-filters matching to that domain.
	DomainHint Domain
}

// Blank reports whether the task carries no matchable content.
func (t *Task) Blank() bool {
	return len(t.Terms) == 0
}

// ContextEntry is one document excerpt inside the assembled bundle.
type ContextEntry struct {
	SkillID string `json:"skill_id"`
	Text    string `json:"text"`
	// Partial is true when the text was truncated to fit the budget or when
	// the content could not be retrieved at all.
	Partial bool `json:"partial"`
	// Unavailable is true when content retrieval failed or timed out; the
	// document stays selected, but its text is empty.
	Unavailable bool `json:"unavailable,omitempty"`
}

// Decision is the immutable output of one route() call.
type Decision struct {
	// SelectedSkills lists document ids, highest relevance first, no duplicates.
	SelectedSkills []string       `json:"selected_skills"`
	ModelTier      ModelTier      `json:"model_tier"`
	Context        []ContextEntry `json:"context"`
	// Unmatched is true exactly when SelectedSkills is empty: no rule fired
	// and no document cleared the minimum score. It is an outcome, not an error.
	Unmatched bool `json:"unmatched"`
}

// BundleSize returns the total character length of the assembled context.
func (d *Decision) BundleSize() int {
	n := 0
	for _, e := range d.Context {
		n += len(e.Text)
	}
	return n
}
