/*
Package sqlstore provides a database/sql implementation of store.Store.

PURPOSE:
  Persists properties, participants, claims, reconciliations and exceptions
  in SQLite (mattn/go-sqlite3) or PostgreSQL (lib/pq). Queries are written
  once with ? placeholders and rebound to $N for PostgreSQL; the schema
  sticks to types both engines share.

DRIVER SELECTION:
  postgres://... or postgresql://...  -> lib/pq
  anything else                        -> SQLite file path, ":memory:" for tests

STORAGE CONVENTIONS:
  - Money is BIGINT cents
  - Decimal rates are TEXT, parsed with shopspring/decimal
  - Timestamps are fixed-width UTC TEXT so range filters compare lexically
  - Booleans are INTEGER 0/1
  - Exception metadata is a JSON object in TEXT

KEY TABLES:
  properties, participants, rental_agencies, service_bookings
  claims:          idx_claims_status_submitted serves the overdue rule
  reconciliations: one row per (property_id, period_year, period_month)
  exceptions:      idx_exceptions_type_status serves dedup lookups

CONCURRENCY:
  Uses sync.RWMutex around SQLite, which has a single writer. PostgreSQL
  handles its own concurrency; the mutex only serialises this process.

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - store/store.go: the interface implemented here
  - store/memory: in-memory implementation for tests
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/propertyfriends/pf-engine/store"
	"github.com/sirupsen/logrus"
)

var _ store.Store = (*Store)(nil)

// timeLayout is fixed width so stored timestamps sort as strings.
const timeLayout = "2006-01-02T15:04:05.000000Z"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store implements store.Store over database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	mu      sync.RWMutex
	logger  logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New opens the database named by dsn and migrates the schema. A nil logger
// uses the logrus standard logger.
func New(dsn string, logger logrus.FieldLogger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	driver, source, d := "sqlite3", sqliteSource(dsn), dialectSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source, d = "postgres", dsn, dialectPostgres
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if d == dialectSQLite {
		// Each connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, dialect: d, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.WithField("driver", driver).Debug("database ready")
	return s, nil
}

func sqliteSource(dsn string) string {
	if dsn == "" {
		dsn = "pf.db"
	}
	if dsn == ":memory:" || strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_foreign_keys=on&_journal_mode=WAL"
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// SCHEMA
// =============================================================================

var schema = []string{
	`CREATE TABLE IF NOT EXISTS rental_agencies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		management_fee_rate TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		address_line1 TEXT NOT NULL DEFAULT '',
		suburb TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		postcode TEXT NOT NULL DEFAULT '',
		property_label TEXT NOT NULL DEFAULT '',
		building_type TEXT NOT NULL DEFAULT '',
		design_category TEXT NOT NULL DEFAULT '',
		has_ooa INTEGER NOT NULL DEFAULT 0,
		has_breakout_room INTEGER NOT NULL DEFAULT 0,
		has_fire_sprinklers INTEGER NOT NULL DEFAULT 0,
		location_factor TEXT NOT NULL DEFAULT '1',
		sda_enrolment_status TEXT NOT NULL DEFAULT 'pending',
		rental_agency_id TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_enrolment ON properties(sda_enrolment_status)`,
	`CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		ndis_number TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		date_of_birth TEXT,
		plan_management_type TEXT NOT NULL DEFAULT '',
		plan_start_date TEXT,
		plan_end_date TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_plan_end ON participants(plan_end_date)`,
	`CREATE TABLE IF NOT EXISTS service_bookings (
		id TEXT PRIMARY KEY,
		participant_id TEXT NOT NULL,
		property_id TEXT NOT NULL DEFAULT '',
		ndia_booking_id TEXT NOT NULL DEFAULT '',
		allocated_amount BIGINT NOT NULL DEFAULT 0,
		remaining_amount BIGINT NOT NULL DEFAULT 0,
		end_date TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS claims (
		id TEXT PRIMARY KEY,
		claim_reference TEXT NOT NULL,
		property_id TEXT NOT NULL,
		participant_id TEXT NOT NULL,
		claim_pathway TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		sda_amount BIGINT NOT NULL,
		mrrc_amount BIGINT,
		total_amount BIGINT NOT NULL,
		ndis_item_number TEXT NOT NULL,
		status TEXT NOT NULL,
		rejection_reason TEXT NOT NULL DEFAULT '',
		submitted_at TEXT,
		approved_at TEXT,
		paid_at TEXT,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_claims_status_submitted ON claims(status, submitted_at)`,
	`CREATE TABLE IF NOT EXISTS reconciliations (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL,
		period_month INTEGER NOT NULL,
		period_year INTEGER NOT NULL,
		statement_number INTEGER,
		status TEXT NOT NULL,
		total_money_in BIGINT NOT NULL DEFAULT 0,
		net_client_payout BIGINT NOT NULL DEFAULT 0,
		notes TEXT NOT NULL DEFAULT '',
		approved_by TEXT NOT NULL DEFAULT '',
		approved_at TEXT,
		published_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE(property_id, period_year, period_month)
	)`,
	`CREATE TABLE IF NOT EXISTS exceptions (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		severity TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		property_id TEXT NOT NULL DEFAULT '',
		participant_id TEXT NOT NULL DEFAULT '',
		claim_id TEXT NOT NULL DEFAULT '',
		reconciliation_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		assigned_to TEXT NOT NULL DEFAULT '',
		resolved_by TEXT NOT NULL DEFAULT '',
		resolved_at TEXT,
		resolution_notes TEXT NOT NULL DEFAULT '',
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exceptions_type_status ON exceptions(type, status)`,
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// rebind converts ? placeholders to $N for PostgreSQL.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	t := parseTime(v.String)
	return &t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
