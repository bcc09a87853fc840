// Package store persists local session state: lead snapshots per BDA, the
// last incentive table, and an append-only claim journal. The server stays
// authoritative for all of it; this layer only lets the console show
// recent activity across invocations and lets the dashboard render
// without refetching.
package store

import (
	"context"
	"time"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// JournalAction is the kind of a journal entry.
type JournalAction string

const (
	ActionClaimed       JournalAction = "claimed"
	ActionUpdated       JournalAction = "updated"
	ActionStatusChanged JournalAction = "status_changed"
	ActionUnclaimed     JournalAction = "unclaimed"
	ActionDecision      JournalAction = "decision"
)

// JournalEntry is one recorded action against a booking.
type JournalEntry struct {
	ID        string        `json:"id"`
	Action    JournalAction `json:"action"`
	BookingID string        `json:"bookingId"`
	Actor     string        `json:"actor"`
	Detail    string        `json:"detail,omitempty"`
	At        time.Time     `json:"at"`
}

// JournalFilter narrows journal listings.
type JournalFilter struct {
	BookingID string
	Actor     string
	Limit     int
}

// Store defines the local persistence interface.
type Store interface {
	// Lead snapshots, replaced wholesale per BDA on every fetch.
	SaveLeads(ctx context.Context, bdaEmail string, leads []crm.Lead) error
	Leads(ctx context.Context, bdaEmail string) ([]crm.Lead, error)

	// Incentive table snapshot, single row, replaced on every save.
	SaveIncentiveTable(ctx context.Context, entries []crm.IncentiveConfigEntry) error
	IncentiveTable(ctx context.Context) ([]crm.IncentiveConfigEntry, error)

	// Claim journal.
	AppendJournal(ctx context.Context, entry JournalEntry) (*JournalEntry, error)
	Journal(ctx context.Context, filter JournalFilter) ([]JournalEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
