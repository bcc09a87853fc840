package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var meetingsCmd = &cobra.Command{
	Use:   "meetings",
	Short: "List meeting recordings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("bda"); err != nil {
			return err
		}

		page, _ := cmd.Flags().GetInt("page")
		limit, _ := cmd.Flags().GetInt("limit")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		links, pagination, err := newClient().MeetingLinks(cmd.Context(), page, limit, from, to)
		if err != nil {
			return eris.Wrap(err, "meetings")
		}
		if len(links) == 0 {
			fmt.Fprintln(os.Stderr, "No recordings found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "BOOKING\tCLIENT\tDATE\tRECORDING")
		for _, l := range links {
			date := ""
			if l.DateOfMeet != nil {
				date = l.DateOfMeet.Format("2006-01-02")
			}
			url := l.MeetingVideoURL
			if url == "" {
				url = "-"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.BookingID, l.ClientName, date, url)
		}
		_ = w.Flush()

		if pagination != nil && pagination.Pages > 1 {
			fmt.Printf("\nPage %d of %d (%d recordings total)\n",
				pagination.Page, pagination.Pages, pagination.Total)
		}
		return nil
	},
}

func init() {
	meetingsCmd.Flags().Int("page", 1, "page number")
	meetingsCmd.Flags().Int("limit", 50, "recordings per page")
	meetingsCmd.Flags().String("from", "", "start date (YYYY-MM-DD)")
	meetingsCmd.Flags().String("to", "", "end date (YYYY-MM-DD)")

	rootCmd.AddCommand(meetingsCmd)
}
