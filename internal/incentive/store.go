package incentive

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// Store holds the current incentive table and keeps it in sync with the
// API. Reads always succeed: a failed refresh leaves an empty table so
// every incentive computes to zero instead of failing the caller.
type Store struct {
	client crm.Client

	mu    sync.RWMutex
	table *Table
}

// NewStore creates a Store with an empty table.
func NewStore(client crm.Client) *Store {
	return &Store{
		client: client,
		table:  NewTable(nil),
	}
}

// Refresh fetches the BDA-visible config. Fetch failures are logged and
// swallowed; the table degrades to empty.
func (s *Store) Refresh(ctx context.Context) {
	configs, err := s.client.IncentiveConfig(ctx)
	if err != nil {
		zap.L().Warn("incentive config fetch failed, defaulting to zero incentives", zap.Error(err))
		s.set(NewTable(nil))
		return
	}
	s.set(NewTable(configs))
}

// RefreshAdmin fetches the admin config, injecting the stock CAD rows when
// the server table has none. Unlike Refresh, failure is surfaced: an admin
// editing the table must not silently edit an empty one.
func (s *Store) RefreshAdmin(ctx context.Context) error {
	configs, err := s.client.AdminIncentiveConfig(ctx)
	if err != nil {
		return eris.Wrap(err, "refresh admin incentive config")
	}
	s.set(NewTable(configs).WithDefaultCAD())
	return nil
}

// Table returns the current table snapshot.
func (s *Store) Table() *Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.table
}

// Calculator returns a calculator over the current snapshot.
func (s *Store) Calculator() *Calculator {
	return NewCalculator(s.Table())
}

// Save replaces the server-side table with the given one and adopts it as
// the local snapshot on success. There are no partial updates.
func (s *Store) Save(ctx context.Context, table *Table) error {
	if err := s.client.SaveIncentiveConfig(ctx, table.ConfigEntries()); err != nil {
		return eris.Wrap(err, "save incentive config")
	}
	s.set(table)
	return nil
}

func (s *Store) set(t *Table) {
	s.mu.Lock()
	s.table = t
	s.mu.Unlock()
}
