package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sohith73/flashfire-CRM/internal/claim"
	"github.com/sohith73/flashfire-CRM/internal/events"
	"github.com/sohith73/flashfire-CRM/internal/render"
	"github.com/sohith73/flashfire-CRM/internal/store"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

var leadCmd = &cobra.Command{
	Use:   "lead",
	Short: "Search, claim, and update a single lead",
}

// newWorkflow builds a claim workflow for the configured actor. The
// confirm function honors the command's --yes flag.
func newWorkflow(cmd *cobra.Command) (*claim.Workflow, error) {
	if err := cfg.Validate("bda"); err != nil {
		return nil, err
	}

	actor := claim.Actor{
		Email: cfg.Actor.Email,
		Name:  cfg.Actor.Name,
		Admin: cfg.Actor.Admin,
	}

	confirm := claim.ConfirmFunc(promptConfirm)
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		confirm = claim.AlwaysConfirm
	}

	return claim.NewWorkflow(newClient(), events.NewBus(), actor, confirm), nil
}

// journal best-effort records an action in the local claim journal.
func journal(cmd *cobra.Command, action store.JournalAction, bookingID, detail string) {
	st, err := initStore(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal unavailable: %v\n", err)
		return
	}
	defer st.Close() //nolint:errcheck

	_, err = st.AppendJournal(cmd.Context(), store.JournalEntry{
		Action:    action,
		BookingID: bookingID,
		Actor:     cfg.Actor.Email,
		Detail:    detail,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: journal write failed: %v\n", err)
	}
}

// -- lead search --

var leadSearchCmd = &cobra.Command{
	Use:   "search <client-email>",
	Short: "Look up a lead by client email",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := newWorkflow(cmd)
		if err != nil {
			return err
		}

		lead, err := wf.Search(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "lead search")
		}

		render.WriteLead(os.Stdout, lead)
		return nil
	},
}

// -- lead claim --

var leadClaimCmd = &cobra.Command{
	Use:   "claim <client-email>",
	Short: "Claim the lead for the configured BDA",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := newWorkflow(cmd)
		if err != nil {
			return err
		}

		if _, err := wf.Search(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "lead claim")
		}

		lead, err := wf.Claim(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "lead claim")
		}

		journal(cmd, store.ActionClaimed, lead.BookingID, "")
		fmt.Printf("Claimed booking %s for %s\n", lead.BookingID, cfg.Actor.Email)
		return nil
	},
}

// -- lead update --

var leadUpdateCmd = &cobra.Command{
	Use:   "update <client-email>",
	Short: "Update the editable fields of a claimed lead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := newWorkflow(cmd)
		if err != nil {
			return err
		}

		if _, err := wf.Search(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "lead update")
		}

		update, detail, err := buildLeadUpdate(cmd)
		if err != nil {
			return err
		}

		lead, err := wf.Update(cmd.Context(), update)
		if err != nil {
			return eris.Wrap(err, "lead update")
		}

		journal(cmd, store.ActionUpdated, lead.BookingID, detail)
		render.WriteLead(os.Stdout, lead)
		return nil
	},
}

// buildLeadUpdate collects the set flags into a sparse update. Unset
// flags stay nil so the server leaves those fields alone.
func buildLeadUpdate(cmd *cobra.Command) (crm.LeadUpdate, string, error) {
	var update crm.LeadUpdate
	var changed []string

	if cmd.Flags().Changed("name") {
		v, _ := cmd.Flags().GetString("name")
		update.ClientName = &v
		changed = append(changed, "name")
	}
	if cmd.Flags().Changed("phone") {
		v, _ := cmd.Flags().GetString("phone")
		update.ClientPhone = &v
		changed = append(changed, "phone")
	}
	if cmd.Flags().Changed("notes") {
		v, _ := cmd.Flags().GetString("notes")
		update.MeetingNotes = &v
		changed = append(changed, "notes")
	}
	if cmd.Flags().Changed("context") {
		v, _ := cmd.Flags().GetString("context")
		update.AnythingToKnow = &v
		changed = append(changed, "context")
	}
	if cmd.Flags().Changed("meeting-time") {
		v, _ := cmd.Flags().GetString("meeting-time")
		when, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return update, "", eris.Wrapf(err, "parse --meeting-time %q (want RFC3339)", v)
		}
		update.ScheduledEventStartTime = &when
		changed = append(changed, "meeting-time")
	}

	if len(changed) == 0 {
		return update, "", eris.New("lead update: no fields given (see --help)")
	}
	return update, fmt.Sprintf("fields: %v", changed), nil
}

// -- lead status --

var leadStatusCmd = &cobra.Command{
	Use:   "status <client-email> <new-status>",
	Short: "Move a lead to a new booking status",
	Long:  "Valid statuses: scheduled, paid, completed, canceled, no-show, ignored. Moving to paid requires --plan.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		wf, err := newWorkflow(cmd)
		if err != nil {
			return err
		}

		status := crm.BookingStatus(args[1])
		if !claim.ValidStatus(args[1]) {
			return eris.Errorf("unknown status %q", args[1])
		}

		if _, err := wf.Search(cmd.Context(), args[0]); err != nil {
			return eris.Wrap(err, "lead status")
		}

		plan, err := planFromFlags(cmd)
		if err != nil {
			return err
		}

		lead, err := wf.SetStatus(cmd.Context(), status, plan)
		if err != nil {
			return eris.Wrap(err, "lead status")
		}

		journal(cmd, store.ActionStatusChanged, lead.BookingID, string(status))
		fmt.Printf("Booking %s is now %s\n", lead.BookingID, lead.BookingStatus)
		return nil
	},
}

// planFromFlags builds a payment plan from --plan/--price/--currency.
// Returns nil when --plan is unset.
func planFromFlags(cmd *cobra.Command) (*crm.PaymentPlan, error) {
	if !cmd.Flags().Changed("plan") {
		return nil, nil
	}

	name, _ := cmd.Flags().GetString("plan")
	price, _ := cmd.Flags().GetFloat64("price")
	currency, _ := cmd.Flags().GetString("currency")

	if price <= 0 {
		// Fall back to the tier's reference USD price.
		for _, opt := range crm.PlanOptions {
			if string(opt.Name) == name {
				price = opt.PriceUSD
				if currency == "" {
					currency = "USD"
				}
				break
			}
		}
	}
	if price <= 0 {
		return nil, eris.Errorf("unknown plan %q, pass --price explicitly", name)
	}

	return &crm.PaymentPlan{Name: name, Price: price, Currency: currency}, nil
}

func init() {
	for _, c := range []*cobra.Command{leadClaimCmd, leadUpdateCmd, leadStatusCmd} {
		c.Flags().Bool("yes", false, "skip confirmation prompts")
	}

	leadUpdateCmd.Flags().String("name", "", "client name")
	leadUpdateCmd.Flags().String("phone", "", "client phone")
	leadUpdateCmd.Flags().String("notes", "", "meeting notes")
	leadUpdateCmd.Flags().String("context", "", "anything to know before the meeting")
	leadUpdateCmd.Flags().String("meeting-time", "", "scheduled meeting time (RFC3339)")

	leadStatusCmd.Flags().String("plan", "", "payment plan name (PRIME, IGNITE, PROFESSIONAL, EXECUTIVE)")
	leadStatusCmd.Flags().Float64("price", 0, "plan price (defaults to the tier's USD price)")
	leadStatusCmd.Flags().String("currency", "", "plan currency (default USD)")

	leadCmd.AddCommand(leadSearchCmd)
	leadCmd.AddCommand(leadClaimCmd)
	leadCmd.AddCommand(leadUpdateCmd)
	leadCmd.AddCommand(leadStatusCmd)
	rootCmd.AddCommand(leadCmd)
}
