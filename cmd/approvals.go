package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sohith73/flashfire-CRM/internal/approval"
	"github.com/sohith73/flashfire-CRM/internal/store"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Review and decide pending claim approvals",
}

// formatApprovals writes a tabular list of pending approvals.
func formatApprovals(out *os.File, approvals []crm.ApprovalRequest) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "APPROVAL\tBOOKING\tBDA\tCLIENT\tREQUESTED")
	for _, a := range approvals {
		bda := a.BdaName
		if bda == "" {
			bda = a.BdaEmail
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.ApprovalID, a.BookingID, bda, a.ClientName,
			a.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

// -- approvals list --

var approvalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List pending approvals once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		svc := approval.NewService(newClient())
		pending, err := svc.Pending(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "approvals list")
		}
		if len(pending) == 0 {
			fmt.Fprintln(os.Stderr, "No pending approvals.")
			return nil
		}

		formatApprovals(os.Stdout, pending)
		return nil
	},
}

// -- approvals watch --

var approvalsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll pending approvals until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		interval := approval.DefaultPollInterval
		if secs := cfg.Approvals.PollIntervalSecs; secs > 0 {
			interval = time.Duration(secs) * time.Second
		}

		svc := approval.NewService(newClient())
		poller := approval.NewPoller(svc, interval, func(batch []crm.ApprovalRequest) {
			fmt.Printf("\n%s - %d pending\n", time.Now().Format("15:04:05"), len(batch))
			if len(batch) > 0 {
				formatApprovals(os.Stdout, batch)
			}
		})

		fmt.Fprintf(os.Stderr, "Watching approvals every %s, Ctrl-C to stop.\n", interval)
		if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

// -- approvals decide --

var approvalsDecideCmd = &cobra.Command{
	Use:   "decide <approval-id> <approved|denied>",
	Short: "Approve or deny a pending claim",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		action := crm.ApprovalStatus(args[1])
		svc := approval.NewService(newClient())
		if err := svc.Decide(cmd.Context(), args[0], action); err != nil {
			return eris.Wrap(err, "approvals decide")
		}

		journal(cmd, store.ActionDecision, args[0], string(action))
		fmt.Printf("Approval %s: %s\n", args[0], action)
		return nil
	},
}

func init() {
	approvalsCmd.AddCommand(approvalsListCmd)
	approvalsCmd.AddCommand(approvalsWatchCmd)
	approvalsCmd.AddCommand(approvalsDecideCmd)
	rootCmd.AddCommand(approvalsCmd)
}
