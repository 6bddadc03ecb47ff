package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faion-net/skillrouter/pkg/config"
	"github.com/faion-net/skillrouter/pkg/presenter"
	"github.com/faion-net/skillrouter/pkg/router"
	"github.com/faion-net/skillrouter/pkg/types/routing"
)

// RouteConfig holds configuration for the route command.
type RouteConfig struct {
	Domain    string
	JSON      bool
	Budget    int
	MaxSkills int
	Quiet     bool
}

var routeCmd = &cobra.Command{
	Use:   "route <task>",
	Short: "Route a task to skill documents and print the decision",
	Long: `Route matches the task text against the indexed skill corpus, classifies its
complexity, and prints the selected skills, model tier, and assembled context.

A task that matches nothing is a valid outcome: the decision reports
unmatched=true with an empty selection.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		routeConfig := getRouteConfigFromFlags(cmd)
		task := strings.Join(args, " ")
		runRouteCommand(cmd, task, routeConfig)
	},
}

func init() {
	routeCmd.Flags().String("domain", "", "Restrict matching to one domain (OPS, ML, DEV, FINOPS)")
	routeCmd.Flags().Bool("json", false, "Print the decision as JSON")
	routeCmd.Flags().Int("budget", 0, "Context bundle budget in characters (overrides config)")
	routeCmd.Flags().Int("max-skills", 0, "Maximum selected skills (overrides config)")
	routeCmd.Flags().Bool("quiet", false, "Suppress decorative output")
}

func getRouteConfigFromFlags(cmd *cobra.Command) *RouteConfig {
	routeConfig := &RouteConfig{}
	routeConfig.Domain, _ = cmd.Flags().GetString("domain")
	routeConfig.JSON, _ = cmd.Flags().GetBool("json")
	routeConfig.Budget, _ = cmd.Flags().GetInt("budget")
	routeConfig.MaxSkills, _ = cmd.Flags().GetInt("max-skills")
	routeConfig.Quiet, _ = cmd.Flags().GetBool("quiet")
	return routeConfig
}

func runRouteCommand(cmd *cobra.Command, task string, routeConfig *RouteConfig) {
	ctx := cmd.Context()
	p := presenter.Default()
	p.SetQuiet(routeConfig.Quiet || routeConfig.JSON)

	cfg, err := config.FromViper()
	if err != nil {
		p.Error(err, "invalid configuration")
		os.Exit(1)
	}
	if routeConfig.Budget > 0 {
		cfg.BudgetChars = routeConfig.Budget
	}
	if routeConfig.MaxSkills > 0 {
		cfg.MaxSkills = routeConfig.MaxSkills
	}

	var hint routing.Domain
	if routeConfig.Domain != "" {
		hint, err = routing.ParseDomain(routeConfig.Domain)
		if err != nil {
			p.Error(err, "invalid domain")
			os.Exit(1)
		}
	}

	shutdown := initTelemetry(ctx, cfg)
	defer shutdown(ctx)

	idx, err := buildOnce(ctx, cfg)
	if err != nil {
		p.Error(err, "index build failed")
		os.Exit(1)
	}

	pipeline, err := newPipeline(cfg, router.FixedSnapshot(idx))
	if err != nil {
		p.Error(err, "router setup failed")
		os.Exit(1)
	}

	decision, err := pipeline.Route(ctx, task, hint)
	if err != nil {
		p.Error(err, "routing failed")
		os.Exit(1)
	}

	if routeConfig.JSON {
		out, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			p.Error(err, "encoding decision")
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	printDecision(p, decision, pipeline.BudgetChars())
}

func printDecision(p presenter.Presenter, decision *routing.Decision, budget int) {
	if decision.Unmatched {
		p.Warning("no skill matched this task")
		p.Info(fmt.Sprintf("Model tier: %s", decision.ModelTier))
		return
	}

	p.Section("Selected skills")
	for i, id := range decision.SelectedSkills {
		p.Info(fmt.Sprintf("%d. %s", i+1, id))
	}

	partial, unavailable := 0, 0
	for _, entry := range decision.Context {
		if entry.Partial {
			partial++
		}
		if entry.Unavailable {
			unavailable++
		}
	}

	p.Separator()
	p.Stats(&presenter.DecisionStats{
		SkillCount:  len(decision.SelectedSkills),
		ModelTier:   decision.ModelTier,
		BundleChars: decision.BundleSize(),
		BudgetChars: budget,
		Partial:     partial,
		Unavailable: unavailable,
	})

	for _, entry := range decision.Context {
		if entry.Unavailable {
			continue
		}
		p.Separator()
		p.Section(entry.SkillID)
		p.Info(entry.Text)
	}
}
