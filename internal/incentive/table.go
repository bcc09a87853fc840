// Package incentive holds the BDA incentive configuration table and the
// calculators that turn paid leads into INR payouts.
package incentive

import (
	"strings"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// Entry is one (plan, currency) row of the incentive table.
type Entry struct {
	PlanName   string  `yaml:"plan"`
	Currency   string  `yaml:"currency"`
	BasePrice  float64 `yaml:"base_price"`
	PerLeadINR float64 `yaml:"per_lead_inr"`
	Percent    float64 `yaml:"percent,omitempty"`
}

// Table is an ordered set of incentive entries. Order matters: the
// plan-only fallback lookup returns the first matching row.
type Table struct {
	entries []Entry
}

// NewTable builds a table from API config entries. BasePrice falls back to
// the basePriceUsd field when the currency-specific price is absent, and a
// missing currency defaults to USD.
func NewTable(configs []crm.IncentiveConfigEntry) *Table {
	entries := make([]Entry, 0, len(configs))
	for _, c := range configs {
		base := c.BasePrice
		if base == 0 {
			base = c.BasePriceUSD
		}
		cur := c.Currency
		if cur == "" {
			cur = "USD"
		}
		entries = append(entries, Entry{
			PlanName:   strings.ToUpper(c.PlanName),
			Currency:   strings.ToUpper(cur),
			BasePrice:  base,
			PerLeadINR: c.PerLeadINR,
			Percent:    c.IncentivePercent,
		})
	}
	return &Table{entries: entries}
}

// FromEntries builds a table directly from normalized rows, preserving
// order. Plan names and currencies are upper-cased and a missing
// currency defaults to USD, matching NewTable.
func FromEntries(entries []Entry) *Table {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		cur := strings.ToUpper(e.Currency)
		if cur == "" {
			cur = "USD"
		}
		out = append(out, Entry{
			PlanName:   strings.ToUpper(e.PlanName),
			Currency:   cur,
			BasePrice:  e.BasePrice,
			PerLeadINR: e.PerLeadINR,
			Percent:    e.Percent,
		})
	}
	return &Table{entries: out}
}

// Percent returns the legacy percentage rate for a plan, zero when no
// row carries one. The legacy scheme keys on plan name alone, so the
// first row matching the plan wins regardless of currency.
func (t *Table) Percent(plan string) float64 {
	plan = strings.ToUpper(plan)
	for _, e := range t.entries {
		if e.PlanName == plan {
			return e.Percent
		}
	}
	return 0
}

// Entries returns a copy of the table rows.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup finds the entry for (plan, currency). An exact match wins; failing
// that, the first row with the same plan name in any currency is used. The
// second return is false when no row matches at all.
func (t *Table) Lookup(plan, currency string) (Entry, bool) {
	plan = strings.ToUpper(plan)
	currency = strings.ToUpper(currency)
	if currency == "" {
		currency = "USD"
	}
	for _, e := range t.entries {
		if e.PlanName == plan && e.Currency == currency {
			return e, true
		}
	}
	for _, e := range t.entries {
		if e.PlanName == plan {
			return e, true
		}
	}
	return Entry{}, false
}

// HasCurrency reports whether any row uses the given currency.
func (t *Table) HasCurrency(currency string) bool {
	currency = strings.ToUpper(currency)
	for _, e := range t.entries {
		if e.Currency == currency {
			return true
		}
	}
	return false
}

// WithDefaultCAD returns the table with the stock CAD rows appended when
// the fetched config carries none, matching what the admin page injects.
func (t *Table) WithDefaultCAD() *Table {
	if t.HasCurrency("CAD") {
		return t
	}
	entries := make([]Entry, len(t.entries), len(t.entries)+4)
	copy(entries, t.entries)
	entries = append(entries, DefaultCAD()...)
	return &Table{entries: entries}
}

// DefaultCAD returns the stock CAD pricing rows.
func DefaultCAD() []Entry {
	return []Entry{
		{PlanName: "PRIME", Currency: "CAD", BasePrice: 139, PerLeadINR: 400},
		{PlanName: "IGNITE", Currency: "CAD", BasePrice: 239, PerLeadINR: 600},
		{PlanName: "PROFESSIONAL", Currency: "CAD", BasePrice: 409, PerLeadINR: 1200},
		{PlanName: "EXECUTIVE", Currency: "CAD", BasePrice: 799, PerLeadINR: 2200},
	}
}

// ConfigEntries converts the table back to the API wire shape for a
// full-replace save.
func (t *Table) ConfigEntries() []crm.IncentiveConfigEntry {
	out := make([]crm.IncentiveConfigEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, crm.IncentiveConfigEntry{
			PlanName:         e.PlanName,
			Currency:         e.Currency,
			BasePrice:        e.BasePrice,
			PerLeadINR:       e.PerLeadINR,
			IncentivePercent: e.Percent,
		})
	}
	return out
}
