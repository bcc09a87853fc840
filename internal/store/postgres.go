package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sohith73/flashfire-CRM/internal/db"
	"github.com/sohith73/flashfire-CRM/pkg/crm"
)

// PostgresStore implements Store using pgxpool, for shared team
// deployments where several consoles point at one journal.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"get_leads":          `SELECT lead FROM lead_snapshots WHERE bda_email = $1 ORDER BY booking_id`,
	"clear_leads":        `DELETE FROM lead_snapshots WHERE bda_email = $1`,
	"get_incentives":     `SELECT configs FROM incentive_snapshot WHERE id = 1`,
	"save_incentives":    `INSERT INTO incentive_snapshot (id, configs, saved_at) VALUES (1, $1, $2) ON CONFLICT (id) DO UPDATE SET configs = $1, saved_at = $2`,
	"append_journal":     `INSERT INTO claim_journal (id, action, booking_id, actor, detail, at) VALUES ($1, $2, $3, $4, $5, $6)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS lead_snapshots (
	booking_id TEXT NOT NULL,
	bda_email  TEXT NOT NULL,
	lead       JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (bda_email, booking_id)
);

CREATE TABLE IF NOT EXISTS incentive_snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	configs  JSONB NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS claim_journal (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	action     TEXT NOT NULL,
	booking_id TEXT NOT NULL,
	actor      TEXT NOT NULL,
	detail     TEXT,
	at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lead_snapshots_bda ON lead_snapshots(bda_email);
CREATE INDEX IF NOT EXISTS idx_claim_journal_booking ON claim_journal(booking_id);
CREATE INDEX IF NOT EXISTS idx_claim_journal_actor ON claim_journal(actor);
CREATE INDEX IF NOT EXISTS idx_claim_journal_at ON claim_journal(at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveLeads(ctx context.Context, bdaEmail string, leads []crm.Lead) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM lead_snapshots WHERE bda_email = $1`, bdaEmail,
	); err != nil {
		return eris.Wrap(err, "postgres: clear lead snapshots")
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(leads))
	for i := range leads {
		leadJSON, err := json.Marshal(&leads[i])
		if err != nil {
			return eris.Wrap(err, "postgres: marshal lead")
		}
		rows = append(rows, []any{leads[i].BookingID, bdaEmail, leadJSON, now})
	}

	_, err := db.CopyFrom(ctx, s.pool, "lead_snapshots",
		[]string{"booking_id", "bda_email", "lead", "fetched_at"}, rows)
	return eris.Wrap(err, "postgres: save lead snapshots")
}

func (s *PostgresStore) Leads(ctx context.Context, bdaEmail string) ([]crm.Lead, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT lead FROM lead_snapshots WHERE bda_email = $1 ORDER BY booking_id`,
		bdaEmail,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lead snapshots")
	}
	defer rows.Close()

	var leads []crm.Lead
	for rows.Next() {
		var leadJSON []byte
		if err := rows.Scan(&leadJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead snapshot")
		}
		var lead crm.Lead
		if err := json.Unmarshal(leadJSON, &lead); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal lead snapshot")
		}
		leads = append(leads, lead)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list lead snapshots iterate")
}

func (s *PostgresStore) SaveIncentiveTable(ctx context.Context, entries []crm.IncentiveConfigEntry) error {
	configsJSON, err := json.Marshal(entries)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal incentive configs")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO incentive_snapshot (id, configs, saved_at) VALUES (1, $1, $2)
		 ON CONFLICT (id) DO UPDATE SET configs = $1, saved_at = $2`,
		configsJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: save incentive snapshot")
}

func (s *PostgresStore) IncentiveTable(ctx context.Context) ([]crm.IncentiveConfigEntry, error) {
	var configsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT configs FROM incentive_snapshot WHERE id = 1`,
	).Scan(&configsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get incentive snapshot")
	}

	var entries []crm.IncentiveConfigEntry
	if err := json.Unmarshal(configsJSON, &entries); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal incentive snapshot")
	}
	return entries, nil
}

func (s *PostgresStore) AppendJournal(ctx context.Context, entry JournalEntry) (*JournalEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO claim_journal (id, action, booking_id, actor, detail, at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, string(entry.Action), entry.BookingID, entry.Actor, entry.Detail, entry.At,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: append journal %s", entry.BookingID)
	}
	return &entry, nil
}

func (s *PostgresStore) Journal(ctx context.Context, filter JournalFilter) ([]JournalEntry, error) {
	query := `SELECT id, action, booking_id, actor, detail, at FROM claim_journal WHERE true`
	args := []any{}
	argIdx := 1

	if filter.BookingID != "" {
		query += fmt.Sprintf(` AND booking_id = $%d`, argIdx)
		args = append(args, filter.BookingID)
		argIdx++
	}
	if filter.Actor != "" {
		query += fmt.Sprintf(` AND actor = $%d`, argIdx)
		args = append(args, filter.Actor)
		argIdx++
	}
	query += ` ORDER BY at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list journal")
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var detail *string
		if err := rows.Scan(&e.ID, &e.Action, &e.BookingID, &e.Actor, &detail, &e.At); err != nil {
			return nil, eris.Wrap(err, "postgres: scan journal entry")
		}
		if detail != nil {
			e.Detail = *detail
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list journal iterate")
}
