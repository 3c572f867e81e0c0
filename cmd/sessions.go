package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recent intake sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		sessions, err := a.intake.Sessions(ctx, limit)
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No intake sessions yet. Use `casebrief intake` to start one.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSER\tSTATUS\tREASON\tQUESTIONS\tUPDATED")
		for _, s := range sessions {
			reason := string(s.Reason)
			if reason == "" {
				reason = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				s.ID, s.UserID, s.Status, reason, s.TurnsUsed, s.UpdatedAt.Format("2006-01-02 15:04"))
		}
		w.Flush()

		if total, err := a.intake.Count(ctx); err == nil && total > len(sessions) {
			fmt.Printf("\nShowing %d of %d sessions\n", len(sessions), total)
		}
		return nil
	},
}

var sessionsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete sessions and audit entries older than a number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		days, _ := cmd.Flags().GetInt("days")
		if days < 1 {
			return fmt.Errorf("--days must be at least 1")
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		n, err := a.intake.Prune(ctx, time.Now().AddDate(0, 0, -days))
		if err != nil {
			return fmt.Errorf("pruning sessions: %w", err)
		}
		fmt.Printf("Removed %d sessions idle for more than %d days\n", n, days)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().Int("limit", 50, "maximum sessions to list")
	sessionsPruneCmd.Flags().Int("days", 30, "remove sessions not updated for this many days")
	sessionsCmd.AddCommand(sessionsPruneCmd)
	rootCmd.AddCommand(sessionsCmd)
}
