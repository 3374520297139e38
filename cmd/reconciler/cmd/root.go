package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Reconcile fund NAV composition against custodian records",
	Long: `Reconciler compares a fund's internal registry snapshot with the
custodian bank's snapshot of the same fund and prints a severity-classified
reconciliation result as JSON.

It works offline on two snapshot files, using the same engine as the API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.WarnLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(level).With().Timestamp().Logger()
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExitCode maps command errors to process exit codes: 2 when the run
// completed but was not approved under --strict, 1 otherwise
func ExitCode(err error) int {
	if errors.Is(err, ErrNotApproved) {
		return 2
	}
	return 1
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging on stderr")
}
