package cmd

import (
	"os"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "timing-bloom",
	Short: "Streaming dedupe service backed by a time-decaying bloom filter",
	Long: `timing-bloom consumes events from Kafka and suppresses ones whose
dedupe key has already been observed within a configurable decay window.

Membership is tracked with a nibble-packed, tick-decaying bloom filter
that ages entries out automatically instead of evicting on a fixed byte
budget, and scales itself up or down as sustained key volume changes.
`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
