package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sohith73/flashfire-CRM/internal/claim"
	"github.com/sohith73/flashfire-CRM/internal/events"
	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/internal/render"
	"github.com/sohith73/flashfire-CRM/internal/store"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var bdaCmd = &cobra.Command{
	Use:   "bda",
	Short: "Admin views of BDA performance and claims",
}

// -- bda analysis --

var bdaAnalysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Rank BDAs by paid conversions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}
		ctx := cmd.Context()
		client := newClient()

		filter := crm.AnalysisFilter{}
		filter.From, _ = cmd.Flags().GetString("from")
		filter.To, _ = cmd.Flags().GetString("to")
		filter.Status, _ = cmd.Flags().GetString("status")
		filter.PlanName, _ = cmd.Flags().GetString("plan")
		filter.BdaEmail, _ = cmd.Flags().GetString("bda")

		// The report, the admin incentive table, and the pending
		// approvals are independent requests, fetch them concurrently.
		var (
			report  *crm.AnalysisReport
			pending []crm.ApprovalRequest
		)
		inc := incentive.NewStore(client)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			r, err := client.Analysis(gctx, filter)
			if err != nil {
				return eris.Wrap(err, "bda analysis")
			}
			report = r
			return nil
		})
		g.Go(func() error {
			return inc.RefreshAdmin(gctx)
		})
		g.Go(func() error {
			p, err := client.PendingApprovals(gctx)
			if err != nil {
				return eris.Wrap(err, "pending approvals")
			}
			pending = p
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		fmt.Printf("Total leads:       %d\n", report.TotalLeads)
		fmt.Printf("Claimed leads:     %d\n", report.ClaimedLeads)
		fmt.Printf("Paid leads:        %d\n", report.PaidLeads)
		fmt.Printf("Pending approvals: %d\n", len(pending))
		if len(report.StatusBreakdown) > 0 {
			fmt.Println("\nBy status:")
			for _, s := range []crm.BookingStatus{
				crm.StatusScheduled, crm.StatusPaid, crm.StatusCompleted,
				crm.StatusCanceled, crm.StatusNoShow, crm.StatusIgnored,
			} {
				if n, ok := report.StatusBreakdown[string(s)]; ok {
					fmt.Printf("  %-10s %d\n", s, n)
				}
			}
		}

		fmt.Println()
		render.WriteRanking(os.Stdout, report.BdaPerformance)

		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := render.WriteRankingXLSX(path, report.BdaPerformance); err != nil {
				return err
			}
			fmt.Printf("\nRanking written to %s\n", path)
		}
		return nil
	},
}

// -- bda leads --

var bdaLeadsCmd = &cobra.Command{
	Use:   "leads <bda-email>",
	Short: "List the leads claimed by one BDA",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}
		ctx := cmd.Context()
		client := newClient()

		leads, err := client.LeadsByBDA(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "bda leads")
		}
		if len(leads) == 0 {
			fmt.Fprintln(os.Stderr, "No claimed leads.")
			return nil
		}

		inc := incentive.NewStore(client)
		if err := inc.RefreshAdmin(ctx); err != nil {
			return err
		}
		calc := inc.Calculator()

		render.WriteLeadTable(os.Stdout, leads, calc)
		fmt.Printf("\nTotal incentive: %s\n", render.INR(calc.Total(leads)))

		if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
			if err := render.WriteLeadsXLSX(path, leads); err != nil {
				return err
			}
			fmt.Printf("Leads written to %s\n", path)
		}
		return nil
	},
}

// -- bda unclaim --

var bdaUnclaimCmd = &cobra.Command{
	Use:   "unclaim <client-email>",
	Short: "Release a lead back to the unclaimed pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		actor := claim.Actor{
			Email: cfg.Actor.Email,
			Name:  cfg.Actor.Name,
			Admin: true,
		}
		confirm := claim.ConfirmFunc(promptConfirm)
		if yes, _ := cmd.Flags().GetBool("yes"); yes {
			confirm = claim.AlwaysConfirm
		}
		wf := claim.NewWorkflow(newClient(), events.NewBus(), actor, confirm)

		lead, err := wf.Search(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "bda unclaim")
		}
		if !lead.Claimed() {
			return eris.Errorf("booking %s is not claimed", lead.BookingID)
		}

		if err := wf.Unclaim(cmd.Context()); err != nil {
			return eris.Wrap(err, "bda unclaim")
		}

		journal(cmd, store.ActionUnclaimed, lead.BookingID, "")
		fmt.Printf("Booking %s released\n", lead.BookingID)
		return nil
	},
}

func init() {
	bdaAnalysisCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	bdaAnalysisCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")
	bdaAnalysisCmd.Flags().String("status", "", "filter by booking status")
	bdaAnalysisCmd.Flags().String("plan", "", "filter by payment plan")
	bdaAnalysisCmd.Flags().String("bda", "", "restrict to one BDA email")
	bdaAnalysisCmd.Flags().String("xlsx", "", "also write the ranking to this XLSX file")

	bdaLeadsCmd.Flags().String("xlsx", "", "also write the leads to this XLSX file")

	bdaUnclaimCmd.Flags().Bool("yes", false, "skip confirmation prompt")

	bdaCmd.AddCommand(bdaAnalysisCmd)
	bdaCmd.AddCommand(bdaLeadsCmd)
	bdaCmd.AddCommand(bdaUnclaimCmd)
	rootCmd.AddCommand(bdaCmd)
}
