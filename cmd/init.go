package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/casebrief/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize casebrief configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose a language model provider and question budget, then writes .casebrief.yml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
