package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/internal/render"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List the leads claimed by the configured BDA",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("bda"); err != nil {
			return err
		}
		ctx := cmd.Context()
		client := newClient()

		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")

		leads, pagination, err := client.MyLeads(ctx, page, limit)
		if err != nil {
			leads, err = cachedLeads(cmd)
			if err != nil {
				return eris.Wrap(err, "leads")
			}
			fmt.Fprintln(os.Stderr, "API unreachable, showing cached snapshot.")
			pagination = nil
		} else {
			snapshotLeads(cmd, leads)
		}

		inc := incentive.NewStore(client)
		inc.Refresh(ctx)
		calc := inc.Calculator()

		render.WriteLeadTable(os.Stdout, leads, calc)

		paidCount := 0
		for _, l := range leads {
			if l.BookingStatus == crm.StatusPaid {
				paidCount++
			}
		}
		fmt.Printf("\nPaid: %d of %d leads\n", paidCount, len(leads))
		fmt.Printf("Projected incentive: %s\n", render.INR(calc.Total(leads)))

		legacy, _ := cmd.Flags().GetBool("legacy")
		percent, _ := cmd.Flags().GetFloat64("legacy-percent")
		switch {
		case percent > 0:
			fmt.Printf("Legacy %.1f%% payout:  %s\n",
				percent, render.INR(incentive.LegacyPercentTotalAt(leads, percent)))
		case legacy:
			fmt.Printf("Legacy scheme payout: %s\n",
				render.INR(incentive.LegacyPercentTotal(leads, inc.Table())))
		}

		if check, _ := cmd.Flags().GetBool("check-paid"); check {
			reportUnconfirmedPayments(cmd, leads)
		}

		if pagination != nil && pagination.Pages > 1 {
			fmt.Printf("\nPage %d of %d (%d leads total)\n",
				pagination.Page, pagination.Pages, pagination.Total)
		}
		return nil
	},
}

// reportUnconfirmedPayments cross-checks leads marked paid against the
// contact payment records and flags any mismatch. A contact missing from
// the response counts as unpaid.
func reportUnconfirmedPayments(cmd *cobra.Command, leads []crm.Lead) {
	ids := make([]string, 0, len(leads))
	for _, l := range leads {
		if l.BookingStatus == crm.StatusPaid {
			ids = append(ids, l.ClientEmail)
		}
	}
	if len(ids) == 0 {
		return
	}

	paid, err := newClient().ContactsPaid(cmd.Context(), ids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: contact payment check failed: %v\n", err)
		return
	}

	var unconfirmed []string
	for _, id := range ids {
		if !paid[id] {
			unconfirmed = append(unconfirmed, id)
		}
	}
	if len(unconfirmed) == 0 {
		fmt.Printf("\nAll %d paid leads confirmed against contact records.\n", len(ids))
		return
	}
	fmt.Printf("\nPaid leads without a confirmed payment record:\n")
	for _, id := range unconfirmed {
		fmt.Printf("  %s\n", id)
	}
}

// snapshotLeads best-effort saves the fetched page to the local store so
// the list stays readable offline.
func snapshotLeads(cmd *cobra.Command, leads []crm.Lead) {
	st, err := initStore(cmd)
	if err != nil {
		zap.L().Warn("lead snapshot skipped", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck

	if err := st.SaveLeads(cmd.Context(), cfg.Actor.Email, leads); err != nil {
		zap.L().Warn("lead snapshot failed", zap.Error(err))
	}
}

// cachedLeads loads the last snapshot for the configured BDA.
func cachedLeads(cmd *cobra.Command) ([]crm.Lead, error) {
	st, err := initStore(cmd)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	return st.Leads(cmd.Context(), cfg.Actor.Email)
}

func init() {
	leadsCmd.Flags().Int("page", 1, "page number")
	leadsCmd.Flags().Int("limit", 50, "leads per page")
	leadsCmd.Flags().Bool("legacy", false, "also show the legacy revenue-share payout from the config's per-plan rates")
	leadsCmd.Flags().Float64("legacy-percent", 0, "override the per-plan rates with one uniform percent (implies --legacy)")
	leadsCmd.Flags().Bool("check-paid", false, "cross-check paid leads against contact payment records")

	rootCmd.AddCommand(leadsCmd)
}
