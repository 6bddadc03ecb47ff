// Package router is the public entry point of the skill routing pipeline:
// one Route call runs trigger matching, complexity classification, skill
// resolution, and context assembly over the current index snapshot.
package router

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/faion-net/skillrouter/pkg/assembler"
	"github.com/faion-net/skillrouter/pkg/classifier"
	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/logger"
	"github.com/faion-net/skillrouter/pkg/matcher"
	"github.com/faion-net/skillrouter/pkg/resolver"
	"github.com/faion-net/skillrouter/pkg/telemetry"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// SnapshotProvider serves the current index snapshot. index.Store implements
// it; FixedSnapshot wraps a one-shot index for CLI use.
type SnapshotProvider interface {
	Current() *index.Index
}

type fixedSnapshot struct {
	idx *index.Index
}

func (f fixedSnapshot) Current() *index.Index {
	return f.idx
}

// FixedSnapshot wraps a single immutable index as a SnapshotProvider.
func FixedSnapshot(idx *index.Index) SnapshotProvider {
	return fixedSnapshot{idx: idx}
}

// Router composes the routing pipeline. It is stateless per call; the index
// snapshot is the only long-lived state, owned by the provider.
type Router struct {
	snapshots  SnapshotProvider
	rules      *resolver.RuleSet
	matcher    *matcher.Matcher
	classifier *classifier.Classifier
	resolver   *resolver.Resolver
	assembler  *assembler.Assembler
}

// Option configures a Router.
type Option func(*Router) error

// WithMatcher replaces the default trigger matcher.
func WithMatcher(m *matcher.Matcher) Option {
	return func(r *Router) error {
		r.matcher = m
		return nil
	}
}

// WithResolver replaces the default skill resolver.
func WithResolver(res *resolver.Resolver) Option {
	return func(r *Router) error {
		r.resolver = res
		return nil
	}
}

// WithAssembler replaces the default context assembler.
func WithAssembler(a *assembler.Assembler) Option {
	return func(r *Router) error {
		r.assembler = a
		return nil
	}
}

// New creates a Router over the given snapshot provider and routing table.
func New(snapshots SnapshotProvider, rules *resolver.RuleSet, opts ...Option) (*Router, error) {
	if snapshots == nil {
		return nil, errors.New("router needs a snapshot provider")
	}
	if rules == nil {
		rules = resolver.DefaultRules()
	}

	r := &Router{
		snapshots:  snapshots,
		rules:      rules,
		classifier: classifier.New(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	var err error
	if r.matcher == nil {
		if r.matcher, err = matcher.New(); err != nil {
			return nil, err
		}
	}
	if r.resolver == nil {
		if r.resolver, err = resolver.New(); err != nil {
			return nil, err
		}
	}
	if r.assembler == nil {
		if r.assembler, err = assembler.New(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// BudgetChars exposes the assembler's bundle limit for display purposes.
func (r *Router) BudgetChars() int {
	return r.assembler.BudgetChars()
}

// Route runs the full pipeline for one task. A task that matches nothing
// returns Unmatched=true with empty selection and bundle; that is a valid
// outcome, not an error. When a domain hint is supplied, documents outside
// that domain are excluded before scoring.
func (r *Router) Route(ctx context.Context, rawText string, domainHint routing.Domain) (*routing.Decision, error) {
	snapshot := r.snapshots.Current()
	if snapshot == nil {
		return nil, errors.New("no index snapshot available")
	}

	requestID := uuid.NewString()
	log := logger.G(ctx).WithField("request_id", requestID)
	ctx = logger.WithLogger(ctx, log)

	task := routing.NewTask(rawText, domainHint)
	decision := &routing.Decision{}

	err := telemetry.WithSpan(ctx, "route", func(ctx context.Context) error {
		candidates := r.candidates(snapshot, domainHint)

		var ranked []matcher.Match
		_ = telemetry.WithSpan(ctx, "match", func(ctx context.Context) error {
			ranked = r.matcher.Rank(task, candidates)
			telemetry.SetAttributes(ctx, attribute.Int("ranked", len(ranked)))
			return nil
		})

		_ = telemetry.WithSpan(ctx, "classify", func(ctx context.Context) error {
			decision.ModelTier = r.classifier.Classify(task)
			telemetry.SetAttributes(ctx, attribute.String("tier", string(decision.ModelTier)))
			return nil
		})

		_ = telemetry.WithSpan(ctx, "resolve", func(ctx context.Context) error {
			decision.SelectedSkills = r.resolver.Resolve(ctx, task, ranked, r.rules, snapshot)
			return nil
		})

		decision.Unmatched = len(decision.SelectedSkills) == 0
		if decision.Unmatched {
			log.WithField("tier", decision.ModelTier).Debug("task matched no skill")
			return nil
		}

		return telemetry.WithSpan(ctx, "assemble", func(ctx context.Context) error {
			decision.Context = r.assembler.Assemble(ctx, decision.SelectedSkills, snapshot)
			telemetry.SetAttributes(ctx, attribute.Int("bundle_chars", decision.BundleSize()))
			return nil
		})
	},
		attribute.String("request_id", requestID),
		attribute.Int("task_chars", len(rawText)),
	)
	if err != nil {
		return nil, err
	}

	log.WithField("skills", decision.SelectedSkills).
		WithField("tier", decision.ModelTier).
		WithField("unmatched", decision.Unmatched).
		Debug("routing decision made")
	return decision, nil
}

// candidates returns the snapshot's documents, hard-filtered by the domain
// hint when one is set.
func (r *Router) candidates(snapshot *index.Index, hint routing.Domain) []*routing.SkillDocument {
	all := snapshot.All()
	if hint == "" {
		return all
	}

	filtered := make([]*routing.SkillDocument, 0, len(all))
	for _, doc := range all {
		if doc.Domain == hint {
			filtered = append(filtered, doc)
		}
	}
	return filtered
}
