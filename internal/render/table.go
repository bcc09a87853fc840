package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// StatusBadge returns a short fixed-width label for a booking status.
func StatusBadge(s crm.BookingStatus) string {
	switch s {
	case crm.StatusScheduled:
		return "[SCHED]"
	case crm.StatusPaid:
		return "[PAID ]"
	case crm.StatusCompleted:
		return "[DONE ]"
	case crm.StatusCanceled:
		return "[CANCL]"
	case crm.StatusNoShow:
		return "[NOSHW]"
	case crm.StatusIgnored:
		return "[IGNRD]"
	default:
		return "[?????]"
	}
}

// WriteLead prints a single lead in the detail layout.
func WriteLead(w io.Writer, lead *crm.Lead) {
	fmt.Fprintf(w, "Booking:  %s\n", lead.BookingID)
	fmt.Fprintf(w, "Client:   %s <%s>\n", lead.ClientName, lead.ClientEmail)
	if lead.ClientPhone != "" {
		fmt.Fprintf(w, "Phone:    %s\n", lead.ClientPhone)
	}
	fmt.Fprintf(w, "Status:   %s %s\n", StatusBadge(lead.BookingStatus), lead.BookingStatus)
	if lead.ScheduledEventStartTime != nil {
		fmt.Fprintf(w, "Meeting:  %s\n", lead.ScheduledEventStartTime.Format("2006-01-02 15:04 MST"))
	}
	if lead.PaymentPlan != nil {
		fmt.Fprintf(w, "Plan:     %s (%s)\n", lead.PaymentPlan.Name,
			Money(lead.PaymentPlan.Price, lead.PaymentPlan.Currency))
	}
	if lead.Claimed() {
		name := lead.ClaimedBy.Name
		if name == "" {
			name = lead.ClaimedBy.Email
		}
		fmt.Fprintf(w, "Claimed:  %s\n", name)
	} else {
		fmt.Fprintf(w, "Claimed:  -\n")
	}
	if lead.BdaApprovalStatus != "" {
		fmt.Fprintf(w, "Approval: %s\n", lead.BdaApprovalStatus)
	}
	if lead.MeetingNotes != "" {
		fmt.Fprintf(w, "Notes:    %s\n", lead.MeetingNotes)
	}
	if lead.AnythingToKnow != "" {
		fmt.Fprintf(w, "Context:  %s\n", lead.AnythingToKnow)
	}
}

// WriteLeadTable prints leads one per line with an incentive column.
func WriteLeadTable(w io.Writer, leads []crm.Lead, calc *incentive.Calculator) {
	fmt.Fprintf(w, "%-14s %-7s %-24s %-14s %12s\n",
		"BOOKING", "STATUS", "CLIENT", "PLAN", "INCENTIVE")
	for i := range leads {
		lead := &leads[i]
		plan := "-"
		if lead.PaymentPlan != nil && lead.PaymentPlan.Name != "" {
			plan = lead.PaymentPlan.Name
		}
		fmt.Fprintf(w, "%-14s %-7s %-24s %-14s %12s\n",
			truncate(lead.BookingID, 14),
			StatusBadge(lead.BookingStatus),
			truncate(lead.ClientName, 24),
			plan,
			INR(calc.Amount(lead)))
	}
}

// WriteIncentiveTable prints the incentive configuration rows.
func WriteIncentiveTable(w io.Writer, table *incentive.Table) {
	fmt.Fprintf(w, "%-14s %-8s %12s %14s\n", "PLAN", "CURRENCY", "BASE PRICE", "PER LEAD")
	for _, e := range table.Entries() {
		fmt.Fprintf(w, "%-14s %-8s %12s %14s\n",
			e.PlanName, e.Currency, Money(e.BasePrice, e.Currency), INR(e.PerLeadINR))
	}
}

// WriteRanking prints BDA performance rows sorted by paid leads, then
// revenue, descending.
func WriteRanking(w io.Writer, rows []crm.BdaPerformance) {
	sorted := SortRanking(rows)
	fmt.Fprintf(w, "%-4s %-30s %8s %8s %14s\n", "#", "BDA", "LEADS", "PAID", "REVENUE")
	for i, r := range sorted {
		name := r.BdaName
		if name == "" {
			name = r.BdaEmail
		}
		fmt.Fprintf(w, "%-4d %-30s %8d %8d %14s\n",
			i+1, truncate(name, 30), r.TotalLeads, r.PaidLeads, INR(r.Revenue))
	}
}

// SortRanking orders performance rows by paid leads, then revenue,
// descending. The input slice is not modified.
func SortRanking(rows []crm.BdaPerformance) []crm.BdaPerformance {
	sorted := make([]crm.BdaPerformance, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].PaidLeads != sorted[j].PaidLeads {
			return sorted[i].PaidLeads > sorted[j].PaidLeads
		}
		return sorted[i].Revenue > sorted[j].Revenue
	})
	return sorted
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return strings.TrimSpace(s[:max-3]) + "..."
}
