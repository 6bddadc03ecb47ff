// Package matcher scores skill documents against a task by trigger overlap.
// Scoring is a pure function of its inputs; identical task and index produce
// identical rankings.
package matcher

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// DefaultMinScore is the ranking cutoff: documents scoring below it are
// dropped from the candidate list.
const DefaultMinScore = 0.15

// domainBonus doubles the weight of a trigger that names the document's own
// domain or category; exact domain hits are strong signals.
const domainBonus = 2.0

// Match pairs a document with its score for a task.
type Match struct {
	Document *routing.SkillDocument
	Score    float64
}

// Matcher ranks documents for tasks.
type Matcher struct {
	minScore float64
}

// Option configures a Matcher.
type Option func(*Matcher) error

// WithMinScore overrides the ranking cutoff.
func WithMinScore(min float64) Option {
	return func(m *Matcher) error {
		if min < 0 || min > 1 {
			return errors.Errorf("min score must be in [0,1], got %v", min)
		}
		m.minScore = min
		return nil
	}
}

// New creates a Matcher.
func New(opts ...Option) (*Matcher, error) {
	m := &Matcher{minScore: DefaultMinScore}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MinScore returns the configured ranking cutoff.
func (m *Matcher) MinScore() float64 {
	return m.minScore
}

// Score returns the fraction of the document's triggers present in the task,
// in [0,1]. Triggers equal to the document's domain or category name weigh
// double. Documents without triggers and blank tasks score zero.
func (m *Matcher) Score(task *routing.Task, doc *routing.SkillDocument) float64 {
	if task.Blank() || len(doc.Triggers) == 0 {
		return 0
	}

	domainName := strings.ToLower(string(doc.Domain))
	categoryName := strings.ToLower(doc.Category)

	var matched, total float64
	for _, trigger := range doc.Triggers {
		weight := 1.0
		if trigger == domainName || trigger == categoryName {
			weight = domainBonus
		}
		total += weight
		if triggerMatches(task, trigger) {
			matched += weight
		}
	}

	if total == 0 {
		return 0
	}
	score := matched / total
	if score > 1 {
		score = 1
	}
	return score
}

// triggerMatches reports whether the task contains the trigger: whole-word
// for single-word triggers, substring of the normalized text for phrases.
func triggerMatches(task *routing.Task, trigger string) bool {
	if strings.ContainsRune(trigger, ' ') {
		return strings.Contains(task.NormalizedText, trigger)
	}
	for _, term := range task.Terms {
		if term == trigger {
			return true
		}
	}
	return false
}

// Rank scores every document and returns those at or above the cutoff,
// sorted by score descending, ties broken by id ascending.
func (m *Matcher) Rank(task *routing.Task, docs []*routing.SkillDocument) []Match {
	if task.Blank() {
		return nil
	}

	var matches []Match
	for _, doc := range docs {
		score := m.Score(task, doc)
		if score >= m.minScore && score > 0 {
			matches = append(matches, Match{Document: doc, Score: score})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Document.ID < matches[b].Document.ID
	})

	return matches
}
