package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// store implements Store against a querier
type store struct {
	q querier
}

// Repository provides data access methods
type Repository struct {
	store
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	// A single connection serializes transactions, which is what the
	// ledger and status compare-and-swap rely on for linearizable reads.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := newRepository(db)

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func newRepository(db *sql.DB) *Repository {
	return &Repository{store: store{q: db}, db: db}
}

// DB returns the underlying database connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InTx runs fn in a transaction, committing when fn returns nil and rolling
// back otherwise.
func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&store{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS campaigns (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL,
			creator_id TEXT NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			tokens_per_participant INTEGER NOT NULL CHECK (tokens_per_participant > 0),
			expected_scenarios INTEGER NOT NULL CHECK (expected_scenarios > 0),
			defined_scenarios INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			current_stage INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			CHECK (defined_scenarios <= expected_scenarios)
		)`,
		`CREATE TABLE IF NOT EXISTS scenarios (
			id TEXT PRIMARY KEY,
			campaign_id TEXT,
			proposer_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			options TEXT NOT NULL,
			mechanism TEXT NOT NULL,
			hyperparameters TEXT NOT NULL,
			deadline INTEGER NOT NULL,
			status TEXT NOT NULL,
			stage INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			started_at INTEGER,
			closed_at INTEGER,
			FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
		)`,
		`CREATE TABLE IF NOT EXISTS participations (
			campaign_id TEXT NOT NULL,
			participant_id TEXT NOT NULL,
			total_tokens INTEGER NOT NULL,
			remaining_tokens INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (campaign_id, participant_id),
			FOREIGN KEY (campaign_id) REFERENCES campaigns(id),
			CHECK (remaining_tokens >= 0 AND remaining_tokens <= total_tokens)
		)`,
		`CREATE TABLE IF NOT EXISTS votes (
			id TEXT PRIMARY KEY,
			scenario_id TEXT NOT NULL,
			voter_id TEXT NOT NULL,
			ballot TEXT NOT NULL,
			tokens_invested INTEGER NOT NULL DEFAULT 0 CHECK (tokens_invested >= 0),
			is_abstain BOOLEAN NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			FOREIGN KEY (scenario_id) REFERENCES scenarios(id),
			UNIQUE(scenario_id, voter_id)
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			scenario_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			closed_at INTEGER NOT NULL,
			FOREIGN KEY (scenario_id) REFERENCES scenarios(id)
		)`,
		`CREATE TABLE IF NOT EXISTS campaign_aggregates (
			campaign_id TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			computed_at INTEGER NOT NULL,
			FOREIGN KEY (campaign_id) REFERENCES campaigns(id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_scenarios_campaign_position
			ON scenarios(campaign_id, position) WHERE campaign_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_scenarios_status_deadline ON scenarios(status, deadline)`,
		`CREATE INDEX IF NOT EXISTS idx_campaigns_group ON campaigns(group_id)`,
		`CREATE INDEX IF NOT EXISTS idx_votes_scenario ON votes(scenario_id)`,
	}

	for _, m := range migrations {
		if _, err := r.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ==================== Helpers ====================

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func fromNullUnix(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromUnix(n.Int64)
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if stderrors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func rowsChanged(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
