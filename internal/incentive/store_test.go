package incentive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// stubClient overrides only the config operations; everything else panics
// through the embedded nil interface if called.
type stubClient struct {
	crm.Client
	config      func(ctx context.Context) ([]crm.IncentiveConfigEntry, error)
	adminConfig func(ctx context.Context) ([]crm.IncentiveConfigEntry, error)
	save        func(ctx context.Context, entries []crm.IncentiveConfigEntry) error
}

func (s *stubClient) IncentiveConfig(ctx context.Context) ([]crm.IncentiveConfigEntry, error) {
	return s.config(ctx)
}

func (s *stubClient) AdminIncentiveConfig(ctx context.Context) ([]crm.IncentiveConfigEntry, error) {
	return s.adminConfig(ctx)
}

func (s *stubClient) SaveIncentiveConfig(ctx context.Context, entries []crm.IncentiveConfigEntry) error {
	return s.save(ctx, entries)
}

func TestStore_Refresh(t *testing.T) {
	t.Parallel()

	store := NewStore(&stubClient{
		config: func(context.Context) ([]crm.IncentiveConfigEntry, error) {
			return []crm.IncentiveConfigEntry{
				{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
			}, nil
		},
	})
	store.Refresh(context.Background())

	assert.Equal(t, 1, store.Table().Len())
	lead := &crm.Lead{
		BookingStatus: crm.StatusPaid,
		PaymentPlan:   &crm.PaymentPlan{Name: "PRIME", Price: 119, Currency: "USD"},
	}
	assert.InDelta(t, 300, store.Calculator().Amount(lead), 1e-9)
}

func TestStore_Refresh_FailureDegradesToZero(t *testing.T) {
	t.Parallel()

	store := NewStore(&stubClient{
		config: func(context.Context) ([]crm.IncentiveConfigEntry, error) {
			return nil, errors.New("connection refused")
		},
	})
	store.Refresh(context.Background())

	assert.Equal(t, 0, store.Table().Len())
	lead := &crm.Lead{
		BookingStatus: crm.StatusPaid,
		PaymentPlan:   &crm.PaymentPlan{Name: "PRIME", Price: 119, Currency: "USD"},
	}
	assert.Zero(t, store.Calculator().Amount(lead))
}

func TestStore_RefreshAdmin(t *testing.T) {
	t.Parallel()

	t.Run("injects default CAD rows", func(t *testing.T) {
		t.Parallel()
		store := NewStore(&stubClient{
			adminConfig: func(context.Context) ([]crm.IncentiveConfigEntry, error) {
				return []crm.IncentiveConfigEntry{
					{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
				}, nil
			},
		})
		require.NoError(t, store.RefreshAdmin(context.Background()))
		assert.Equal(t, 5, store.Table().Len())
		assert.True(t, store.Table().HasCurrency("CAD"))
	})

	t.Run("surfaces fetch error", func(t *testing.T) {
		t.Parallel()
		store := NewStore(&stubClient{
			adminConfig: func(context.Context) ([]crm.IncentiveConfigEntry, error) {
				return nil, errors.New("forbidden")
			},
		})
		require.Error(t, store.RefreshAdmin(context.Background()))
		assert.Equal(t, 0, store.Table().Len())
	})
}

func TestStore_Save(t *testing.T) {
	t.Parallel()

	t.Run("adopts table on success", func(t *testing.T) {
		t.Parallel()
		var saved []crm.IncentiveConfigEntry
		store := NewStore(&stubClient{
			save: func(_ context.Context, entries []crm.IncentiveConfigEntry) error {
				saved = entries
				return nil
			},
		})
		table := NewTable([]crm.IncentiveConfigEntry{
			{PlanName: "IGNITE", Currency: "USD", BasePrice: 199, PerLeadINR: 500},
		})
		require.NoError(t, store.Save(context.Background(), table))
		assert.Len(t, saved, 1)
		assert.Equal(t, 1, store.Table().Len())
	})

	t.Run("keeps old table on failure", func(t *testing.T) {
		t.Parallel()
		store := NewStore(&stubClient{
			save: func(context.Context, []crm.IncentiveConfigEntry) error {
				return errors.New("forbidden")
			},
		})
		table := NewTable([]crm.IncentiveConfigEntry{
			{PlanName: "IGNITE", Currency: "USD", BasePrice: 199, PerLeadINR: 500},
		})
		require.Error(t, store.Save(context.Background(), table))
		assert.Equal(t, 0, store.Table().Len())
	})
}
