package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/faion-net/skillrouter/pkg/config"
	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/presenter"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the skill corpus and routing table",
	Long: `Validate builds the full index and loads the routing table, reporting every
problem found: malformed frontmatter, unknown domains, duplicate ids, and
invalid rule patterns. The index build is all-or-nothing, so a corpus that
validates here will also load for route and serve.`,
	Run: func(cmd *cobra.Command, args []string) {
		runValidateCommand(cmd)
	},
}

func runValidateCommand(cmd *cobra.Command) {
	ctx := cmd.Context()
	p := presenter.Default()

	cfg, err := config.FromViper()
	if err != nil {
		p.Error(err, "invalid configuration")
		os.Exit(1)
	}

	failed := false

	idx, err := buildOnce(ctx, cfg)
	if err != nil {
		failed = true
		var buildErr *index.BuildError
		if errors.As(err, &buildErr) {
			p.Error(errors.Errorf("%d document(s) failed validation", len(buildErr.Failures())), "corpus")
			for _, cause := range buildErr.Failures() {
				p.Info(fmt.Sprintf("  - %v", cause))
			}
		} else {
			p.Error(err, "corpus")
		}
	} else {
		p.Success(fmt.Sprintf("corpus valid: %d documents across %d domain(s)", idx.Len(), len(idx.Domains())))
	}

	rules, err := loadRuleSet(cfg)
	if err != nil {
		failed = true
		p.Error(err, "routing table")
	} else {
		p.Success(fmt.Sprintf("routing table valid: %d rule(s)", rules.Len()))
	}

	if failed {
		os.Exit(1)
	}
}
