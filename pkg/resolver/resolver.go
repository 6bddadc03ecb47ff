// Package resolver merges trigger-match rankings with the static routing
// table into the final ordered skill selection. Resolution never errors on
// unmatched input; an empty selection is a valid, explicit outcome.
package resolver

import (
	"context"

	"github.com/pkg/errors"

	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/logger"
	"github.com/faion-net/skillrouter/pkg/matcher"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// DefaultMaxSkills bounds how many skills one task resolves to.
const DefaultMaxSkills = 3

// Resolver selects skill ids for a task.
type Resolver struct {
	maxSkills int
}

// Option configures a Resolver.
type Option func(*Resolver) error

// WithMaxSkills overrides the selection size limit.
func WithMaxSkills(max int) Option {
	return func(r *Resolver) error {
		if max < 1 {
			return errors.Errorf("max skills must be at least 1, got %d", max)
		}
		r.maxSkills = max
		return nil
	}
}

// New creates a Resolver.
func New(opts ...Option) (*Resolver, error) {
	r := &Resolver{maxSkills: DefaultMaxSkills}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Resolve merges rule matches and ranked documents into a deduplicated,
// ordered selection of at most maxSkills ids. Rule targets win over ranked
// documents. Targets absent from the index are skipped with a warning: a
// stale table must not fabricate selections. When the task carries a domain
// hint, rule targets outside that domain are skipped too.
func (r *Resolver) Resolve(ctx context.Context, task *routing.Task, ranked []matcher.Match, rules *RuleSet, idx *index.Index) []string {
	var selected []string
	seen := map[string]bool{}

	add := func(id string) bool {
		if seen[id] || len(selected) >= r.maxSkills {
			return len(selected) < r.maxSkills
		}
		seen[id] = true
		selected = append(selected, id)
		return true
	}

	for _, rule := range rules.Match(task) {
		doc, err := idx.Get(rule.TargetSkillID)
		if err != nil {
			logger.G(ctx).WithField("target", rule.TargetSkillID).
				WithField("pattern", rule.Pattern).
				Warn("routing rule targets unknown skill, skipping")
			continue
		}
		if task.DomainHint != "" && doc.Domain != task.DomainHint {
			continue
		}
		if !add(rule.TargetSkillID) {
			break
		}
	}

	for _, match := range ranked {
		if len(selected) >= r.maxSkills {
			break
		}
		add(match.Document.ID)
	}

	if len(selected) == 0 {
		logger.G(ctx).Debug("no rule or ranked document cleared the threshold")
	}
	return selected
}
