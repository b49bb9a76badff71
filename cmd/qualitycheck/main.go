// qualitycheck scores Korean news items for evidence-backed summaries.
//
// Usage:
//
//	qualitycheck < items.json          # score stdin, print JSON results
//	qualitycheck pipeline              # feeds -> scrape -> summarize -> score
//	qualitycheck serve --interval 1h   # HTTP API plus scheduled pipeline
//	qualitycheck report --png out.png  # render the latest run
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/config"
)

var version = "dev"

// app carries state shared by all commands.
type app struct {
	configPath string
	logLevel   string
	dsn        string

	cfg    config.Config
	cfgErr error
	logger *slog.Logger
}

// setup loads configuration and installs the stderr logger. Stdout is
// reserved for results. A config error is kept rather than returned so
// the batch scorer can still run with defaults.
func (a *app) setup() {
	a.cfg, a.cfgErr = config.Load(a.configPath)
	if a.dsn != "" {
		a.cfg.Store.DSN = a.dsn
	}
	if a.logLevel != "" {
		a.cfg.LogLevel = a.logLevel
	}

	lvl, err := a.cfg.SlogLevel()
	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(a.logger)
	if err != nil {
		a.logger.Warn("invalid log level, using info", "error", err)
	}
	if a.cfgErr != nil {
		a.logger.Warn("config not loaded, using defaults", "error", a.cfgErr)
	}
}

// requireConfig is used by commands that must not run on defaults after
// a broken config file.
func (a *app) requireConfig() error {
	if a.cfgErr != nil {
		return fmt.Errorf("load config: %w", a.cfgErr)
	}
	return nil
}

func main() {
	a := &app{}
	rootCmd := newRootCmd(a)

	rootCmd.AddCommand(checkCmd(a))
	rootCmd.AddCommand(pipelineCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(resultsCmd(a))
	rootCmd.AddCommand(reportCmd(a))
	rootCmd.AddCommand(mcpCmd(a))
	rootCmd.AddCommand(hashSecretCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	var opts batchOptions

	cmd := &cobra.Command{
		Use:   "qualitycheck",
		Short: "Evidence-based quality scoring for Korean news summaries",
		Long: "qualitycheck reads news items as JSON from stdin and writes one quality result per item to stdout.\n" +
			"Malformed input yields [] and a message on stderr; the exit code is always 0.",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.setup()
		},
		Run: func(cmd *cobra.Command, args []string) {
			runBatch(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./qualitycheck.yaml, then ~/.qualitycheck.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.PersistentFlags().StringVar(&a.dsn, "db", "", "SQLite database path, overrides store.dsn")
	opts.bind(cmd)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "qualitycheck %s\n", version)
		},
	}
}
