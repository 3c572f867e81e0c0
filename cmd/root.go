package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "casebrief",
	Short: "Conversational intake for business advisory sessions",
	Long: `casebrief interviews a user about a business challenge, asking a small
number of follow-up questions until it knows the problem, the people
involved, the objective, the scenario, the geography and the constraints.
The finished brief is handed to a panel of advisory roles.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".casebrief.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (development logging)")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
