package render

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

func TestStatusBadge(t *testing.T) {
	assert.Equal(t, "[PAID ]", StatusBadge(crm.StatusPaid))
	assert.Equal(t, "[SCHED]", StatusBadge(crm.StatusScheduled))
	assert.Equal(t, "[?????]", StatusBadge(crm.BookingStatus("bogus")))
}

func TestWriteLead(t *testing.T) {
	when := time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC)
	lead := &crm.Lead{
		BookingID:               "bk-1",
		ClientName:              "Asha Rao",
		ClientEmail:             "asha@example.com",
		BookingStatus:           crm.StatusPaid,
		ScheduledEventStartTime: &when,
		PaymentPlan:             &crm.PaymentPlan{Name: "PRIME", Price: 119, Currency: "USD"},
		ClaimedBy:               &crm.ClaimedBy{Email: "bda@flashfirejobs.com", Name: "Test BDA"},
		BdaApprovalStatus:       crm.ApprovalApproved,
	}

	var buf bytes.Buffer
	WriteLead(&buf, lead)
	out := buf.String()

	assert.Contains(t, out, "bk-1")
	assert.Contains(t, out, "Asha Rao <asha@example.com>")
	assert.Contains(t, out, "[PAID ] paid")
	assert.Contains(t, out, "PRIME ($119)")
	assert.Contains(t, out, "Claimed:  Test BDA")
	assert.Contains(t, out, "Approval: approved")
}

func TestWriteLead_Unclaimed(t *testing.T) {
	var buf bytes.Buffer
	WriteLead(&buf, &crm.Lead{BookingID: "bk-2", BookingStatus: crm.StatusScheduled})
	assert.Contains(t, buf.String(), "Claimed:  -")
}

func TestWriteLeadTable(t *testing.T) {
	table := incentive.NewTable([]crm.IncentiveConfigEntry{
		{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
	})
	calc := incentive.NewCalculator(table)

	leads := []crm.Lead{
		{
			BookingID:     "bk-1",
			ClientName:    "Asha Rao",
			BookingStatus: crm.StatusPaid,
			PaymentPlan:   &crm.PaymentPlan{Name: "PRIME", Price: 119, Currency: "USD"},
		},
		{BookingID: "bk-2", ClientName: "Ben Okafor", BookingStatus: crm.StatusScheduled},
	}

	var buf bytes.Buffer
	WriteLeadTable(&buf, leads, calc)
	out := buf.String()

	assert.Contains(t, out, "BOOKING")
	assert.Contains(t, out, "₹300")
	assert.Contains(t, out, "[SCHED]")
	assert.Contains(t, out, "₹0")
}

func TestWriteIncentiveTable(t *testing.T) {
	table := incentive.NewTable([]crm.IncentiveConfigEntry{
		{PlanName: "PRIME", Currency: "CAD", BasePrice: 400, PerLeadINR: 139},
	})

	var buf bytes.Buffer
	WriteIncentiveTable(&buf, table)
	out := buf.String()

	assert.Contains(t, out, "PRIME")
	assert.Contains(t, out, "C$400")
	assert.Contains(t, out, "₹139")
}

func TestSortRanking(t *testing.T) {
	rows := []crm.BdaPerformance{
		{BdaEmail: "low@x.com", PaidLeads: 1, Revenue: 500},
		{BdaEmail: "top@x.com", PaidLeads: 5, Revenue: 100},
		{BdaEmail: "mid@x.com", PaidLeads: 1, Revenue: 900},
	}

	sorted := SortRanking(rows)
	require.Len(t, sorted, 3)
	assert.Equal(t, "top@x.com", sorted[0].BdaEmail)
	assert.Equal(t, "mid@x.com", sorted[1].BdaEmail)
	assert.Equal(t, "low@x.com", sorted[2].BdaEmail)

	// Input untouched
	assert.Equal(t, "low@x.com", rows[0].BdaEmail)
}

func TestWriteRanking(t *testing.T) {
	var buf bytes.Buffer
	WriteRanking(&buf, []crm.BdaPerformance{
		{BdaEmail: "bda@flashfirejobs.com", BdaName: "Test BDA", TotalLeads: 10, PaidLeads: 4, Revenue: 120000},
	})
	out := buf.String()

	assert.Contains(t, out, "Test BDA")
	assert.Contains(t, out, "₹1,20,000")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a very l...", truncate("a very long client name", 11))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
