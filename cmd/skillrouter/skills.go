package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/faion-net/skillrouter/pkg/config"
	"github.com/faion-net/skillrouter/pkg/presenter"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "List the indexed skill documents",
	Run: func(cmd *cobra.Command, args []string) {
		asJSON, _ := cmd.Flags().GetBool("json")
		runSkillsCommand(cmd, asJSON)
	},
}

func init() {
	skillsCmd.Flags().Bool("json", false, "Print the document list as JSON")
}

func runSkillsCommand(cmd *cobra.Command, asJSON bool) {
	ctx := cmd.Context()
	p := presenter.Default()

	cfg, err := config.FromViper()
	if err != nil {
		p.Error(err, "invalid configuration")
		os.Exit(1)
	}

	idx, err := buildOnce(ctx, cfg)
	if err != nil {
		p.Error(err, "index build failed")
		os.Exit(1)
	}

	docs := idx.All()
	if asJSON {
		out, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			p.Error(err, "encoding documents")
			os.Exit(1)
		}
		fmt.Println(string(out))
		return
	}

	p.Section(fmt.Sprintf("Indexed skills (%d)", len(docs)))
	for _, doc := range docs {
		line := fmt.Sprintf("%-40s %-8s %-20s %d triggers", doc.ID, doc.Domain, doc.Category, len(doc.Triggers))
		p.Info(line)
		if doc.Description != "" {
			p.Info(fmt.Sprintf("%40s %s", "", strings.TrimSpace(doc.Description)))
		}
	}
}
