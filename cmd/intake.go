package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/casebrief/internal/brief"
	"github.com/ziadkadry99/casebrief/internal/collector"
	"github.com/ziadkadry99/casebrief/internal/intake"
	"github.com/ziadkadry99/casebrief/internal/progress"
)

var intakeCmd = &cobra.Command{
	Use:   "intake",
	Short: "Run an interactive intake dialogue",
	Long: `Asks you to describe a business challenge, then asks a few follow-up
questions until the brief is complete or the question budget runs out.
The finished brief is written as JSON and, unless --no-experts is set,
an advisory panel is selected for it.`,
	RunE: runIntake,
}

func init() {
	intakeCmd.Flags().String("user", "", "user id recorded with the session")
	intakeCmd.Flags().String("resume", "", "resume an existing session by id")
	intakeCmd.Flags().String("out", "", "brief output path (default <data_dir>/briefs/<session>.json)")
	intakeCmd.Flags().Bool("no-experts", false, "skip advisory panel selection")
	rootCmd.AddCommand(intakeCmd)
}

func runIntake(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	userID, _ := cmd.Flags().GetString("user")
	resumeID, _ := cmd.Flags().GetString("resume")
	outPath, _ := cmd.Flags().GetString("out")
	noExperts, _ := cmd.Flags().GetBool("no-experts")

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	reporter := progress.NewReporter(os.Stderr)
	submit := func(sessionID, text, slot string) (*intake.SubmitResponse, error) {
		reporter.Start("Thinking")
		defer reporter.Stop()
		return a.intake.Submit(ctx, sessionID, text, slot)
	}

	var res *intake.SubmitResponse
	if resumeID != "" {
		sess, err := a.intake.Session(ctx, resumeID)
		if err != nil {
			return fmt.Errorf("resuming session: %w", err)
		}
		if sess.Status == collector.StatusComplete {
			collected, err := a.intake.Context(ctx, sess.ID)
			if err != nil {
				return err
			}
			res = &intake.SubmitResponse{SessionID: sess.ID, Result: &collector.Result{
				Status:  collector.StatusComplete,
				Reason:  sess.Reason,
				Context: collected,
			}}
		} else if res, err = submit(sess.ID, "", ""); err != nil {
			return err
		}
	} else {
		sess, err := a.intake.Start(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Println("Tell us about the business challenge you are facing.")
		fmt.Printf("(session %s, press Ctrl+C to pause)\n\n", sess.ID)

		text, err := ask("Your challenge", sess.ID)
		if err != nil {
			return err
		}
		if res, err = submit(sess.ID, text, ""); err != nil {
			return err
		}
	}

	for res.Status == collector.StatusIncomplete {
		fmt.Printf("\n%s\n", res.Question)
		text, err := ask(strings.ToUpper(res.Slot[:1])+res.Slot[1:], res.SessionID)
		if err != nil {
			return err
		}
		if res, err = submit(res.SessionID, text, res.Slot); err != nil {
			return err
		}
	}

	var panel []string
	if !noExperts {
		reporter.Start("Selecting advisors")
		p, err := a.intake.SelectExperts(ctx, res.SessionID)
		reporter.Stop()
		if err != nil {
			return fmt.Errorf("selecting experts: %w", err)
		}
		panel = p.Experts
	}

	b := brief.New(res.SessionID, a.intake.Slots(), res.Context, res.Reason, panel)
	if outPath == "" {
		outPath = filepath.Join(a.cfg.DataDir, "briefs", res.SessionID+".json")
	}
	if err := b.Save(outPath); err != nil {
		return err
	}

	fmt.Printf("\nIntake complete (%s).\n\n%s", res.Reason, b.Text())
	if missing := b.Missing(); len(missing) > 0 {
		fmt.Printf("Not provided: %s\n", strings.Join(missing, ", "))
	}
	fmt.Printf("\nBrief saved to %s\n", outPath)
	return nil
}

// ask reads one answer. An interrupt pauses the session instead of failing.
func ask(label, sessionID string) (string, error) {
	p := promptui.Prompt{
		Label:     label,
		AllowEdit: true,
	}
	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return "", fmt.Errorf("intake paused; resume with `casebrief intake --resume %s`", sessionID)
		}
		return "", err
	}
	return result, nil
}
