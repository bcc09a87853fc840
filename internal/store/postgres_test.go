package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_IncentiveTable_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT configs FROM incentive_snapshot`).
		WillReturnError(pgx.ErrNoRows)

	entries, err := s.IncentiveTable(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncentiveTable(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	configs, err := json.Marshal([]crm.IncentiveConfigEntry{
		{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
	})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT configs FROM incentive_snapshot`).
		WillReturnRows(pgxmock.NewRows([]string{"configs"}).AddRow(configs))

	entries, err := s.IncentiveTable(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 300.0, entries[0].PerLeadINR)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveIncentiveTable_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveIncentiveTable(context.Background(), []crm.IncentiveConfigEntry{
		{PlanName: "PRIME", Currency: "USD", BasePrice: 119, PerLeadINR: 300},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveLeads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM lead_snapshots WHERE bda_email = \$1`).
		WithArgs("bda@flashfirejobs.com").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectCopyFrom(pgx.Identifier{"lead_snapshots"},
		[]string{"booking_id", "bda_email", "lead", "fetched_at"}).
		WillReturnResult(2)

	leads := []crm.Lead{
		{BookingID: "bk-1", BookingStatus: crm.StatusScheduled},
		{BookingID: "bk-2", BookingStatus: crm.StatusPaid},
	}
	err := s.SaveLeads(context.Background(), "bda@flashfirejobs.com", leads)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Leads(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	leadJSON, err := json.Marshal(crm.Lead{BookingID: "bk-1", BookingStatus: crm.StatusPaid})
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT lead FROM lead_snapshots WHERE bda_email = \$1`).
		WithArgs("bda@flashfirejobs.com").
		WillReturnRows(pgxmock.NewRows([]string{"lead"}).AddRow(leadJSON))

	leads, err := s.Leads(context.Background(), "bda@flashfirejobs.com")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, crm.StatusPaid, leads[0].BookingStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendJournal(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO claim_journal`).
		WithArgs(pgxmock.AnyArg(), "claimed", "bk-1", "bda@flashfirejobs.com", "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry, err := s.AppendJournal(context.Background(), JournalEntry{
		Action:    ActionClaimed,
		BookingID: "bk-1",
		Actor:     "bda@flashfirejobs.com",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.At.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Journal_Filtered(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	detail := "scheduled -> paid"
	mock.ExpectQuery(`SELECT id, action, booking_id, actor, detail, at FROM claim_journal`).
		WithArgs("bk-1", 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "action", "booking_id", "actor", "detail", "at"}).
			AddRow("j-1", "status_changed", "bk-1", "bda@flashfirejobs.com", &detail, now))

	entries, err := s.Journal(context.Background(), JournalFilter{BookingID: "bk-1", Limit: 50})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionStatusChanged, entries[0].Action)
	assert.Equal(t, "scheduled -> paid", entries[0].Detail)
	assert.NoError(t, mock.ExpectationsWereMet())
}
