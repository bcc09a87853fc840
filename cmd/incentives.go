package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/internal/render"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var incentivesCmd = &cobra.Command{
	Use:   "incentives",
	Short: "Inspect and manage the incentive configuration",
}

// parseAmount parses a non-negative decimal amount, rejecting trailing
// garbage that Sscanf-style parsing would silently drop.
func parseAmount(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "parse amount %q", s)
	}
	if v < 0 {
		return 0, eris.Errorf("amount %q is negative", s)
	}
	return v, nil
}

// fetchAdminTable loads the admin incentive table, falling back to the
// local snapshot when the API is unreachable.
func fetchAdminTable(cmd *cobra.Command) (*incentive.Table, error) {
	ctx := cmd.Context()
	inc := incentive.NewStore(newClient())

	if err := inc.RefreshAdmin(ctx); err != nil {
		st, stErr := initStore(cmd)
		if stErr != nil {
			return nil, err
		}
		defer st.Close() //nolint:errcheck

		entries, stErr := st.IncentiveTable(ctx)
		if stErr != nil || len(entries) == 0 {
			return nil, err
		}
		fmt.Fprintln(os.Stderr, "API unreachable, showing cached snapshot.")
		return incentive.NewTable(entries).WithDefaultCAD(), nil
	}

	// Refresh succeeded, snapshot for offline use.
	table := inc.Table()
	if st, err := initStore(cmd); err == nil {
		defer st.Close() //nolint:errcheck
		_ = st.SaveIncentiveTable(ctx, table.ConfigEntries())
	}
	return table, nil
}

// -- incentives show --

var incentivesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the incentive table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		table, err := fetchAdminTable(cmd)
		if err != nil {
			return eris.Wrap(err, "incentives show")
		}

		render.WriteIncentiveTable(os.Stdout, table)
		return nil
	},
}

// -- incentives set --

var incentivesSetCmd = &cobra.Command{
	Use:   "set <plan> <per-lead-inr>",
	Short: "Set the per-lead incentive for one plan and currency",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}
		ctx := cmd.Context()

		plan := strings.ToUpper(args[0])
		perLead, err := parseAmount(args[1])
		if err != nil {
			return eris.Errorf("invalid per-lead amount %q", args[1])
		}

		currency, _ := cmd.Flags().GetString("currency")
		currency = strings.ToUpper(currency)
		basePrice, _ := cmd.Flags().GetFloat64("base-price")

		inc := incentive.NewStore(newClient())
		if err := inc.RefreshAdmin(ctx); err != nil {
			return eris.Wrap(err, "incentives set")
		}

		// Replace or append the (plan, currency) row, then save the
		// whole table back.
		entries := inc.Table().Entries()
		found := false
		for i := range entries {
			if entries[i].PlanName == plan && entries[i].Currency == currency {
				entries[i].PerLeadINR = perLead
				if basePrice > 0 {
					entries[i].BasePrice = basePrice
				}
				found = true
				break
			}
		}
		if !found {
			if basePrice <= 0 {
				return eris.Errorf("no existing %s/%s row, pass --base-price to create one", plan, currency)
			}
			entries = append(entries, incentive.Entry{
				PlanName:   plan,
				Currency:   currency,
				BasePrice:  basePrice,
				PerLeadINR: perLead,
			})
		}

		table := incentive.FromEntries(entries)
		if err := inc.Save(ctx, table); err != nil {
			return eris.Wrap(err, "incentives set")
		}

		fmt.Printf("%s/%s per-lead incentive is now %s\n", plan, currency, render.INR(perLead))
		return nil
	},
}

// -- incentives export --

var incentivesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the incentive table as YAML (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		table, err := fetchAdminTable(cmd)
		if err != nil {
			return eris.Wrap(err, "incentives export")
		}

		out := os.Stdout
		if len(args) == 1 {
			f, err := os.Create(args[0])
			if err != nil {
				return eris.Wrapf(err, "incentives export: create %s", args[0])
			}
			defer f.Close() //nolint:errcheck
			out = f
		}

		return render.ExportIncentives(out, table)
	},
}

// -- incentives import --

var incentivesImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace the incentive table from a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("admin"); err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return eris.Wrapf(err, "incentives import: open %s", args[0])
		}
		defer f.Close() //nolint:errcheck

		table, err := render.ImportIncentives(f)
		if err != nil {
			return err
		}

		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			ok, err := promptConfirm(fmt.Sprintf("Replace the incentive table with %d rows from %s?",
				table.Len(), args[0]))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(os.Stderr, "Aborted.")
				return nil
			}
		}

		inc := incentive.NewStore(newClient())
		if err := inc.Save(cmd.Context(), table); err != nil {
			return eris.Wrap(err, "incentives import")
		}

		fmt.Printf("Imported %d incentive rows\n", table.Len())
		return nil
	},
}

// -- incentives estimate --

var incentivesEstimateCmd = &cobra.Command{
	Use:   "estimate <plan> <price>",
	Short: "Estimate the incentive for one paid lead",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("bda"); err != nil {
			return err
		}
		ctx := cmd.Context()

		price, err := parseAmount(args[1])
		if err != nil || price <= 0 {
			return eris.Errorf("invalid price %q", args[1])
		}
		currency, _ := cmd.Flags().GetString("currency")

		inc := incentive.NewStore(newClient())
		inc.Refresh(ctx)
		calc := inc.Calculator()

		lead := &crm.Lead{
			BookingStatus: crm.StatusPaid,
			PaymentPlan: &crm.PaymentPlan{
				Name:     strings.ToUpper(args[0]),
				Price:    price,
				Currency: strings.ToUpper(currency),
			},
		}

		amount := calc.Amount(lead)
		fmt.Printf("Incentive for a paid %s lead at %s: %s\n",
			strings.ToUpper(args[0]), render.Money(price, strings.ToUpper(currency)), render.INR(amount))
		return nil
	},
}

func init() {
	incentivesSetCmd.Flags().String("currency", "USD", "currency of the row to change")
	incentivesSetCmd.Flags().Float64("base-price", 0, "base plan price (required when creating a new row)")

	incentivesImportCmd.Flags().Bool("yes", false, "skip confirmation prompt")

	incentivesEstimateCmd.Flags().String("currency", "USD", "plan currency")

	incentivesCmd.AddCommand(incentivesShowCmd)
	incentivesCmd.AddCommand(incentivesSetCmd)
	incentivesCmd.AddCommand(incentivesExportCmd)
	incentivesCmd.AddCommand(incentivesImportCmd)
	incentivesCmd.AddCommand(incentivesEstimateCmd)
	rootCmd.AddCommand(incentivesCmd)
}
