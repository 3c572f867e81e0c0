package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/casebrief/internal/brief"
)

var briefCmd = &cobra.Command{
	Use:   "brief <file>",
	Short: "Print a saved brief",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		b, err := brief.Load(args[0])
		if err != nil {
			return err
		}
		if b == nil {
			return fmt.Errorf("no brief at %s", args[0])
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(b)
		}

		fmt.Printf("Session %s (%s, %s)\n\n", b.SessionID, b.Reason, b.CompletedAt.Format("2006-01-02 15:04"))
		fmt.Print(b.Text())
		if missing := b.Missing(); len(missing) > 0 {
			fmt.Printf("Not provided: %v\n", missing)
		}
		return nil
	},
}

func init() {
	briefCmd.Flags().Bool("json", false, "print the brief as JSON")
	rootCmd.AddCommand(briefCmd)
}
