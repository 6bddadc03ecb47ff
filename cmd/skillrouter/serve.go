package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/faion-net/skillrouter/pkg/config"
	"github.com/faion-net/skillrouter/pkg/index"
	"github.com/faion-net/skillrouter/pkg/presenter"
	"github.com/faion-net/skillrouter/pkg/server"
)

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Listen string
	Watch  bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the routing API over HTTP",
	Long: `Serve builds the index once and exposes it over HTTP: POST /api/route routes a
task, GET /api/skills lists the indexed documents, GET /healthz reports status.

With --watch, corpus changes trigger a debounced rebuild; the serving snapshot
is swapped atomically and never observed half-built.`,
	Run: func(cmd *cobra.Command, args []string) {
		serveConfig := getServeConfigFromFlags(cmd)
		runServeCommand(cmd, serveConfig)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "Listen address (overrides config)")
	serveCmd.Flags().Bool("watch", false, "Rebuild the index when corpus files change")
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	serveConfig := &ServeConfig{}
	serveConfig.Listen, _ = cmd.Flags().GetString("listen")
	serveConfig.Watch, _ = cmd.Flags().GetBool("watch")
	return serveConfig
}

func runServeCommand(cmd *cobra.Command, serveConfig *ServeConfig) {
	ctx := cmd.Context()
	p := presenter.Default()

	cfg, err := config.FromViper()
	if err != nil {
		p.Error(err, "invalid configuration")
		os.Exit(1)
	}
	if serveConfig.Listen != "" {
		cfg.Listen = serveConfig.Listen
	}

	shutdown := initTelemetry(ctx, cfg)
	defer shutdown(ctx)

	source, err := newCorpusSource(cfg)
	if err != nil {
		p.Error(err, "corpus setup failed")
		os.Exit(1)
	}

	store, err := index.NewStore(ctx, source)
	if err != nil {
		p.Error(err, "initial index build failed")
		os.Exit(1)
	}

	pipeline, err := newPipeline(cfg, store)
	if err != nil {
		p.Error(err, "router setup failed")
		os.Exit(1)
	}

	srv, err := server.New(cfg.Listen, store, pipeline)
	if err != nil {
		p.Error(err, "server setup failed")
		os.Exit(1)
	}

	group, ctx := errgroup.WithContext(ctx)

	if serveConfig.Watch {
		watcher, err := index.NewWatcher(store, cfg.CorpusRoots)
		if err != nil {
			p.Error(err, "corpus watcher setup failed")
			os.Exit(1)
		}
		group.Go(func() error {
			return watcher.Watch(ctx)
		})
		p.Info("corpus watcher enabled")
	}

	p.Success(fmt.Sprintf("routing API listening on http://%s", cfg.Listen))
	p.Info("Press Ctrl+C to stop the server")

	group.Go(func() error {
		return srv.Start(ctx)
	})

	if err := group.Wait(); err != nil {
		p.Error(err, "server failed")
		os.Exit(1)
	}
	p.Info("server stopped")
}
