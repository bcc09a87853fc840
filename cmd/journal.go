package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sohith73/flashfire-CRM/internal/store"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the local record of claim actions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := initStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		filter := store.JournalFilter{}
		filter.BookingID, _ = cmd.Flags().GetString("booking")
		filter.Actor, _ = cmd.Flags().GetString("actor")
		filter.Limit, _ = cmd.Flags().GetInt("limit")

		entries, err := st.Journal(cmd.Context(), filter)
		if err != nil {
			return eris.Wrap(err, "journal")
		}
		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No journal entries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "WHEN\tACTION\tBOOKING\tACTOR\tDETAIL")
		for _, e := range entries {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.At.Format("2006-01-02 15:04:05"), e.Action, e.BookingID, e.Actor, e.Detail)
		}
		_ = w.Flush()
		return nil
	},
}

func init() {
	journalCmd.Flags().String("booking", "", "filter by booking ID")
	journalCmd.Flags().String("actor", "", "filter by actor email")
	journalCmd.Flags().Int("limit", 100, "max entries to display")

	rootCmd.AddCommand(journalCmd)
}
