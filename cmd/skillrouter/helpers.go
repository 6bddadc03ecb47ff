package main

import (
	"context"

	"github.com/faion-net/skillrouter/pkg/assembler"
	"github.com/faion-net/skillrouter/pkg/config"
	"github.com/faion-net/skillrouter/pkg/corpus"
	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/matcher"
	"github.com/faion-net/skillrouter/pkg/resolver"
	"github.com/faion-net/skillrouter/pkg/router"
)

// newCorpusSource builds the filesystem source from the configured roots and
// include globs.
func newCorpusSource(cfg config.Config) (*corpus.FSSource, error) {
	opts := []corpus.FSOption{
		corpus.WithRoots(cfg.CorpusRoots...),
		corpus.WithReadAttempts(cfg.ReadAttempts),
	}
	if len(cfg.Includes) > 0 {
		opts = append(opts, corpus.WithIncludes(cfg.Includes...))
	}
	return corpus.NewFSSource(opts...)
}

// loadRuleSet loads the configured routing table, or the built-in defaults
// when no rules file is set.
func loadRuleSet(cfg config.Config) (*resolver.RuleSet, error) {
	if cfg.RulesFile == "" {
		return resolver.DefaultRules(), nil
	}
	return resolver.LoadRules(cfg.RulesFile)
}

// newPipeline assembles a router over the given snapshot provider with the
// configured thresholds.
func newPipeline(cfg config.Config, snapshots router.SnapshotProvider) (*router.Router, error) {
	rules, err := loadRuleSet(cfg)
	if err != nil {
		return nil, err
	}

	m, err := matcher.New(matcher.WithMinScore(cfg.MinScore))
	if err != nil {
		return nil, err
	}
	res, err := resolver.New(resolver.WithMaxSkills(cfg.MaxSkills))
	if err != nil {
		return nil, err
	}
	a, err := assembler.New(
		assembler.WithBudgetChars(cfg.BudgetChars),
		assembler.WithFetchTimeout(cfg.FetchTimeout),
	)
	if err != nil {
		return nil, err
	}

	return router.New(snapshots, rules,
		router.WithMatcher(m),
		router.WithResolver(res),
		router.WithAssembler(a),
	)
}

// buildOnce builds a one-shot index for CLI commands that do not serve.
func buildOnce(ctx context.Context, cfg config.Config) (*index.Index, error) {
	source, err := newCorpusSource(cfg)
	if err != nil {
		return nil, err
	}
	return index.Build(ctx, source)
}
