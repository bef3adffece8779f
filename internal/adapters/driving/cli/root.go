// Package cli implements the wpask command-line interface. Commands hold no
// business logic; they translate flags and arguments into calls on the
// driving ports and render the results.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quillstack-labs/wpask-cli/internal/core/ports/driving"
	"github.com/quillstack-labs/wpask-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services are injected by main before Execute runs. Tests swap them for
// mocks.
var (
	askService    driving.AskService
	searchService driving.SearchService
)

var (
	verboseFlag    bool
	queryFlag      string
	maxResultsFlag int
)

var rootCmd = &cobra.Command{
	Use:   "wpask",
	Short: "Ask questions about your WordPress site",
	Long: `wpask is an AI-powered search terminal for WordPress sites.

Questions are answered by a language model that searches the site's
content through the WordPress REST API and cites the posts it used.

Run with --query for a single question, or without arguments for an
interactive session.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "ask a single question and exit")
	rootCmd.Flags().IntVarP(&maxResultsFlag, "max-results", "n", 0, "maximum search results per tool call")
}

// SetServices injects the driving ports. Must be called before Execute.
func SetServices(ask driving.AskService, search driving.SearchService) {
	askService = ask
	searchService = search
}

// Pinger checks connectivity to an upstream dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Connection checks run before an interactive session starts. Either may be
// nil, in which case the check is skipped.
var (
	sourcePinger  Pinger
	backendPinger Pinger
)

// SetPingers injects the connection checks for the content source and the
// model backend.
func SetPingers(source, backend Pinger) {
	sourcePinger = source
	backendPinger = backend
}

// checkConnections verifies upstream connectivity. An unreachable content
// source aborts; an unreachable backend only warns, the registry may still
// find a working candidate later.
func checkConnections(cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if sourcePinger != nil {
		if err := sourcePinger.Ping(ctx); err != nil {
			return fmt.Errorf("wordpress connection check failed: %w", err)
		}
	}
	if backendPinger != nil {
		if err := backendPinger.Ping(ctx); err != nil {
			fmt.Fprintln(cmd.OutOrStdout(),
				errorStyle.Render("Warning: model backend unreachable: "+err.Error()))
		}
	}
	return nil
}

// SetVersion overrides the build-time version string.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command with the given context. Cancelling the
// context aborts any in-flight query.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// queryContext derives the context bounding one query: the parent plus
// interrupt signals. The stop func releases the signal registration, so an
// interrupt at the idle prompt keeps its default behavior, and a cancelled
// query never poisons the next one. Overridable in tests.
var queryContext = func(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runRoot(cmd *cobra.Command, _ []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	if queryFlag != "" {
		return runSingleQuery(cmd, queryFlag)
	}

	if err := checkConnections(cmd); err != nil {
		return err
	}
	return runInteractive(cmd)
}

func runSingleQuery(cmd *cobra.Command, text string) error {
	ctx, stop := queryContext(cmd.Context())
	defer stop()

	if err := askQuestion(ctx, cmd, text); err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	return nil
}
