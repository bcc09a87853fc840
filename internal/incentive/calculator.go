package incentive

import "github.com/sohith73/flashfire-CRM/pkg/crm"

// INRPerUSD is the fixed conversion rate used by the legacy percentage
// scheme. The flat scheme is currency-aware and never uses it.
const INRPerUSD = 91.67

// Calculator computes flat per-lead incentives in INR from the config table.
type Calculator struct {
	table *Table
}

// NewCalculator creates a Calculator over the given table.
func NewCalculator(table *Table) *Calculator {
	return &Calculator{table: table}
}

// Amount returns the INR incentive owed for a lead, or zero when the lead
// does not qualify: a pending or denied approval, a non-paid status, a
// missing plan, a non-positive price, or no matching config row.
func (c *Calculator) Amount(lead *crm.Lead) float64 {
	if lead == nil {
		return 0
	}
	if lead.BdaApprovalStatus != "" && lead.BdaApprovalStatus != crm.ApprovalApproved {
		return 0
	}
	if lead.BookingStatus != crm.StatusPaid {
		return 0
	}
	if lead.PaymentPlan == nil || lead.PaymentPlan.Name == "" || lead.PaymentPlan.Price <= 0 {
		return 0
	}
	entry, ok := c.table.Lookup(lead.PaymentPlan.Name, lead.PaymentPlan.Currency)
	if !ok {
		return 0
	}
	return entry.PerLeadINR * PaymentRatio(lead.PaymentPlan.Price, entry.BasePrice)
}

// Total sums the incentives for a batch of leads.
func (c *Calculator) Total(leads []crm.Lead) float64 {
	var total float64
	for i := range leads {
		total += c.Amount(&leads[i])
	}
	return total
}

// PaymentRatio prorates a payment against the plan's reference price,
// capped at 1 so overpayment never exceeds the full per-lead incentive.
func PaymentRatio(price, basePrice float64) float64 {
	if price <= 0 {
		return 0
	}
	ratio := price / max(basePrice, 1)
	if ratio > 1 {
		return 1
	}
	return ratio
}

// LegacyPercentAmount is the percentage-of-price scheme kept for parity
// with the BDA-facing leads tab. The rate comes from the lead's plan row
// in the config table, zero when the plan carries no percent. It is
// currency-blind: the amount is treated as USD and converted at the
// fixed rate. Gating on approval and paid status matches the flat scheme.
func LegacyPercentAmount(lead *crm.Lead, table *Table) float64 {
	if !legacyEligible(lead) {
		return 0
	}
	return lead.PaymentPlan.Price * table.Percent(lead.PaymentPlan.Name) * INRPerUSD / 100
}

// LegacyPercentAmountAt applies one uniform percent to a lead instead of
// the table's per-plan rates.
func LegacyPercentAmountAt(lead *crm.Lead, percent float64) float64 {
	if !legacyEligible(lead) {
		return 0
	}
	return lead.PaymentPlan.Price * percent * INRPerUSD / 100
}

func legacyEligible(lead *crm.Lead) bool {
	if lead == nil {
		return false
	}
	if lead.BdaApprovalStatus != "" && lead.BdaApprovalStatus != crm.ApprovalApproved {
		return false
	}
	if lead.BookingStatus != crm.StatusPaid {
		return false
	}
	return lead.PaymentPlan != nil && lead.PaymentPlan.Price > 0
}

// LegacyPercentTotal sums the legacy-scheme incentives for a batch using
// the table's per-plan rates.
func LegacyPercentTotal(leads []crm.Lead, table *Table) float64 {
	var total float64
	for i := range leads {
		total += LegacyPercentAmount(&leads[i], table)
	}
	return total
}

// LegacyPercentTotalAt sums the legacy-scheme incentives at one uniform
// percent.
func LegacyPercentTotalAt(leads []crm.Lead, percent float64) float64 {
	var total float64
	for i := range leads {
		total += LegacyPercentAmountAt(&leads[i], percent)
	}
	return total
}
