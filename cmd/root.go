// Package cmd defines the CLI commands for the linkhound executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/JakeFAU/linkhound/internal/config"
	"github.com/JakeFAU/linkhound/internal/crawl"
)

// Exit codes for fatal errors.
const (
	exitFailure  = 1
	exitConfig   = 2
	exitSnapshot = 3
)

var cfgFile string

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.Init(v)

	cmd := &cobra.Command{
		Use:   "linkhound",
		Short: "A depth-bounded sampling web crawler.",
		Long: `linkhound crawls the web from one or more seed URLs, following a
configurable percentage of the links on each page down to a depth limit.
Crawl state checkpoints to disk so an interrupted run can resume, and the
visited graph is exported as CSV and JSON when the crawl ends.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if cfgFile != "" {
				v.SetConfigFile(cfgFile)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., /etc/linkhound/, $HOME/.linkhound/)")
	cmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	if err := v.BindPFlag("logging.level", cmd.PersistentFlags().Lookup("log-level")); err != nil {
		panic(fmt.Sprintf("bind log-level flag: %v", err))
	}

	cmd.AddCommand(newCrawlCmd(v))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the CLI. SIGINT/SIGTERM cancel the context so an in-progress
// crawl checkpoints and exits cleanly.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "linkhound: %v\n", err)
		stop()
		os.Exit(exitCode(err)) //nolint:gocritic // deliberate exit after cleanup
	}
}

// exitCode maps the error taxonomy onto process exit codes: configuration
// problems 2, snapshot mismatches 3, everything else 1.
func exitCode(err error) int {
	var cfgErr *crawl.ConfigError
	if errors.As(err, &cfgErr) {
		return exitConfig
	}
	if errors.Is(err, crawl.ErrIncompatibleSnapshot) {
		return exitSnapshot
	}
	return exitFailure
}
