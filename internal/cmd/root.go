package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "medtrack",
	Short: "MedTrack - pharmaceutical sales-force backend",
	Long: `MedTrack records field visits by medical representatives, the samples they
leave with doctors and the orders they take, and reports on revenue and activity.

Run "medtrack serve" to start the HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
