package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lead_snapshots (
	booking_id TEXT NOT NULL,
	bda_email  TEXT NOT NULL,
	lead       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (bda_email, booking_id)
);

CREATE TABLE IF NOT EXISTS incentive_snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	configs  TEXT NOT NULL,
	saved_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS claim_journal (
	id         TEXT PRIMARY KEY,
	action     TEXT NOT NULL,
	booking_id TEXT NOT NULL,
	actor      TEXT NOT NULL,
	detail     TEXT,
	at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lead_snapshots_bda ON lead_snapshots(bda_email);
CREATE INDEX IF NOT EXISTS idx_claim_journal_booking ON claim_journal(booking_id);
CREATE INDEX IF NOT EXISTS idx_claim_journal_actor ON claim_journal(actor);
CREATE INDEX IF NOT EXISTS idx_claim_journal_at ON claim_journal(at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveLeads(ctx context.Context, bdaEmail string, leads []crm.Lead) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save leads")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lead_snapshots WHERE bda_email = ?`, bdaEmail,
	); err != nil {
		return eris.Wrap(err, "sqlite: clear lead snapshots")
	}

	now := time.Now().UTC()
	for i := range leads {
		leadJSON, err := json.Marshal(&leads[i])
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal lead")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO lead_snapshots (booking_id, bda_email, lead, fetched_at) VALUES (?, ?, ?, ?)`,
			leads[i].BookingID, bdaEmail, string(leadJSON), now,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert lead snapshot %s", leads[i].BookingID)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit save leads")
}

func (s *SQLiteStore) Leads(ctx context.Context, bdaEmail string) ([]crm.Lead, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT lead FROM lead_snapshots WHERE bda_email = ? ORDER BY booking_id`,
		bdaEmail,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lead snapshots")
	}
	defer rows.Close()

	var leads []crm.Lead
	for rows.Next() {
		var leadJSON string
		if err := rows.Scan(&leadJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead snapshot")
		}
		var lead crm.Lead
		if err := json.Unmarshal([]byte(leadJSON), &lead); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal lead snapshot")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list lead snapshots iterate")
}

func (s *SQLiteStore) SaveIncentiveTable(ctx context.Context, entries []crm.IncentiveConfigEntry) error {
	configsJSON, err := json.Marshal(entries)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal incentive configs")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO incentive_snapshot (id, configs, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET configs = excluded.configs, saved_at = excluded.saved_at`,
		string(configsJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: save incentive snapshot")
}

func (s *SQLiteStore) IncentiveTable(ctx context.Context) ([]crm.IncentiveConfigEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT configs FROM incentive_snapshot WHERE id = 1`)

	var configsJSON string
	err := row.Scan(&configsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get incentive snapshot")
	}

	var entries []crm.IncentiveConfigEntry
	if err := json.Unmarshal([]byte(configsJSON), &entries); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal incentive snapshot")
	}
	return entries, nil
}

func (s *SQLiteStore) AppendJournal(ctx context.Context, entry JournalEntry) (*JournalEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO claim_journal (id, action, booking_id, actor, detail, at) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, string(entry.Action), entry.BookingID, entry.Actor, entry.Detail, entry.At,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: append journal %s", entry.BookingID)
	}
	return &entry, nil
}

func (s *SQLiteStore) Journal(ctx context.Context, filter JournalFilter) ([]JournalEntry, error) {
	query := `SELECT id, action, booking_id, actor, detail, at FROM claim_journal WHERE 1=1`
	var args []any

	if filter.BookingID != "" {
		query += ` AND booking_id = ?`
		args = append(args, filter.BookingID)
	}
	if filter.Actor != "" {
		query += ` AND actor = ?`
		args = append(args, filter.Actor)
	}
	query += ` ORDER BY at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list journal")
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.BookingID, &e.Actor, &detail, &e.At); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan journal entry")
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list journal iterate")
}
