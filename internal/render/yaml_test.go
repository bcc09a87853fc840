package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohith73/flashfire-CRM/internal/incentive"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

func TestExportImportIncentives(t *testing.T) {
	table := incentive.NewTable([]crm.IncentiveConfigEntry{
		{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
		{PlanName: "PRIME", Currency: "CAD", BasePrice: 400, PerLeadINR: 139},
	})

	var buf bytes.Buffer
	require.NoError(t, ExportIncentives(&buf, table))
	assert.Contains(t, buf.String(), "plan: PRIME")
	assert.Contains(t, buf.String(), "currency: CAD")

	got, err := ImportIncentives(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Entries(), got.Entries())
}

func TestImportIncentives_NormalizesCase(t *testing.T) {
	in := strings.NewReader(`
incentives:
  - plan: prime
    base_price: 119
    per_lead_inr: 300
`)
	got, err := ImportIncentives(in)
	require.NoError(t, err)

	entry, ok := got.Lookup("PRIME", "USD")
	require.True(t, ok)
	assert.Equal(t, 300.0, entry.PerLeadINR)
}

func TestImportIncentives_Empty(t *testing.T) {
	_, err := ImportIncentives(strings.NewReader("incentives: []\n"))
	assert.Error(t, err)
}

func TestImportIncentives_BadYAML(t *testing.T) {
	_, err := ImportIncentives(strings.NewReader("{not yaml"))
	assert.Error(t, err)
}
