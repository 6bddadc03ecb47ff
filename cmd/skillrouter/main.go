package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/faion-net/skillrouter/pkg/config"
	"github.com/faion-net/skillrouter/pkg/logger"
	"github.com/faion-net/skillrouter/pkg/presenter"
	"github.com/faion-net/skillrouter/pkg/telemetry"
)

const version = "0.1.0"

func init() {
	viper.SetEnvPrefix("SKILLROUTER")
	viper.AutomaticEnv()

	viper.SetConfigName("skillrouter-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/.skillrouter")
	viper.AddConfigPath(".")

	// Config file is optional; env vars and flags cover the rest.
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "skillrouter",
	Short: "Route tasks to skill documents and assemble context bundles",
	Long: `skillrouter matches free-text task requests against an indexed corpus of
Markdown skill documents, classifies task complexity into a model tier, and
assembles a budgeted context bundle from the selected documents.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return err
			}
		}

		if level := viper.GetString("log_level"); level != "" {
			if err := logger.SetLogLevel(level); err != nil {
				return err
			}
		}
		if format := viper.GetString("log_format"); format != "" {
			logger.SetLogFormat(format)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
		os.Exit(1)
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.PersistentFlags().String("config", "", "Config file path (overrides search paths)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (json, text, fmt)")
	rootCmd.PersistentFlags().String("profile", "", "Named configuration profile to apply")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("profile", rootCmd.PersistentFlags().Lookup("profile"))

	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(skillsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initTelemetry starts the tracer when configured and returns its shutdown
// function. Commands that route call this; listing commands skip it.
func initTelemetry(ctx context.Context, cfg config.Config) func(context.Context) error {
	shutdown, err := telemetry.InitTracer(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "skillrouter",
		ServiceVersion: version,
		SamplerType:    cfg.Tracing.SamplerType,
		SamplerRatio:   cfg.Tracing.SamplerRatio,
	})
	if err != nil {
		presenter.Default().Warning(fmt.Sprintf("tracing disabled: %v", err))
		return func(context.Context) error { return nil }
	}
	return shutdown
}
