package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/quillstack-labs/wpask-cli/internal/core/domain"
	"github.com/quillstack-labs/wpask-cli/internal/logger"
)

// Result-count bounds, injected by main from configuration.
var (
	defaultMaxResults = domain.DefaultMaxResults
	maxResultsLimit   = 20
)

// SetLimits injects the configured result-count bounds.
func SetLimits(defaultMax, limit int) {
	if defaultMax > 0 {
		defaultMaxResults = defaultMax
	}
	if limit > 0 {
		maxResultsLimit = limit
	}
}

// askQuestion runs one query through the ask service and renders the event
// stream as it arrives. The context bounds this query only.
func askQuestion(ctx context.Context, cmd *cobra.Command, text string) error {
	maxResults := maxResultsFlag
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	query := domain.NewQuery(text, maxResults, maxResultsLimit)

	out := cmd.OutOrStdout()
	streaming := false

	err := askService.Ask(ctx, query, func(ev domain.StreamEvent) {
		switch ev.Kind {
		case domain.EventFragment:
			streaming = true
			fmt.Fprint(out, ev.Fragment)

		case domain.EventToolStarted:
			if streaming {
				fmt.Fprintln(out)
				streaming = false
			}
			fmt.Fprintln(out, toolStyle.Render(
				fmt.Sprintf("Searching site for %q...", ev.Invocation.Query)))

		case domain.EventToolFinished:
			if ev.Invocation.Err != nil {
				fmt.Fprintln(out, toolStyle.Render("Search failed, the model will continue without it."))
				return
			}
			fmt.Fprintln(out, toolStyle.Render(
				fmt.Sprintf("Found %d result(s).", len(ev.Invocation.Records))))

		case domain.EventFinal:
			if streaming {
				fmt.Fprintln(out)
			}
			printCitations(cmd, ev.Final.Citations)
			fmt.Fprintln(out, toolStyle.Render("Answered by "+ev.Final.Model))

		case domain.EventFailed:
			if streaming {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, errorStyle.Render("Error: "+ev.ErrMessage))
		}
	})
	return err
}

func printCitations(cmd *cobra.Command, citations []domain.ContentRecord) {
	if len(citations) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Sources:"))
	for i, c := range citations {
		title := c.Title
		if title == "" {
			title = c.URL
		}
		fmt.Fprintf(out, "  [%d] %s\n", i+1, title)
		fmt.Fprintf(out, "      %s\n", citationStyle.Render(c.URL))
	}
}

const interactiveHelp = `Commands:
  help         show this message
  clear        clear the screen
  exit, quit   leave the session

Anything else is sent as a question.`

// runInteractive reads questions line by line until EOF or an exit command.
func runInteractive(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, headerStyle.Render("wpask "+version))
	fmt.Fprintln(out, "Ask a question about the site. Type 'help' for commands.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(out, "Bye.")
			return nil
		case "help":
			fmt.Fprintln(out, interactiveHelp)
			continue
		case "clear":
			// ANSI clear screen and home.
			fmt.Fprint(out, "\033[2J\033[H")
			continue
		}

		// Each question gets its own signal-scoped context: an interrupt
		// cancels the in-flight query, never the session.
		qctx, stop := queryContext(cmd.Context())
		err := askQuestion(qctx, cmd, line)
		stop()
		if err != nil {
			// The failure was already rendered from the event stream.
			// Keep the session alive for the next question.
			logger.Debug("query failed: %v", err)
		}
		fmt.Fprintln(out)
	}
}
