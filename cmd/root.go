// Package cmd implements the domainchat command-line interface.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcaohuy/domainchat/internal/log"
)

// NewRootCmd wires the cobra root command.
func NewRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "domainchat",
		Short: "Domain-scoped conversational query service",
		Long: "domainchat answers questions against a domain knowledge base,\n" +
			"falling back to humor for out-of-domain queries and recording\n" +
			"those queries as reusable suggestions.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCommand(&verbose))
	root.AddCommand(newVersionCommand())

	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// newLogger builds the process logger from the verbose flag, or from
// DOMAINCHAT_DEBUG when the flag is absent.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose || os.Getenv("DOMAINCHAT_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: true})
}
