package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"

	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

//go:embed schema.sql
var sqliteSchema string

// SQLite stores observations in a local SQLite file. The health_data layout
// matches existing database.db files, which open unchanged.
type SQLite struct {
	db      *sql.DB
	clock   clockwork.Clock
	restamp bool
}

// OpenSQLite creates or opens the database at path and ensures the schema.
func OpenSQLite(path string, opts Options) (*SQLite, error) {
	if path == "" {
		return nil, errors.New("db: sqlite path is required")
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("db: open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: connect sqlite: %w", err)
	}

	// SQLite allows a single writer.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("db: %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("db: apply sqlite schema: %w", err)
	}

	return &SQLite{db: conn, clock: opts.clock(), restamp: opts.RestampOnUpdate}, nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database file is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}

const sqliteColumns = `id, village, diarrhea, fever, rainfall, risk, date`

// Create inserts a new observation with a freshly computed tier.
func (s *SQLite) Create(ctx context.Context, in NewObservation) (Observation, error) {
	rec := newRecord(in, s.clock)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO health_data (village, diarrhea, fever, rainfall, risk, date) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Village, rec.Diarrhea, rec.Fever, string(rec.Rainfall), string(rec.Risk), rec.Date,
	)
	if err != nil {
		return Observation{}, fmt.Errorf("db: create: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Observation{}, fmt.Errorf("db: create: %w", err)
	}
	rec.ID = id
	return rec, nil
}

// List returns every observation, most recent first.
func (s *SQLite) List(ctx context.Context) ([]Observation, error) {
	out, err := s.query(ctx, `SELECT `+sqliteColumns+` FROM health_data ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db: list: %w", err)
	}
	return out, nil
}

// SearchVillage returns observations whose village contains text, ignoring case.
func (s *SQLite) SearchVillage(ctx context.Context, text string) ([]Observation, error) {
	out, err := s.query(ctx,
		`SELECT `+sqliteColumns+` FROM health_data WHERE instr(lower(village), lower(?)) > 0 ORDER BY id DESC`,
		text,
	)
	if err != nil {
		return nil, fmt.Errorf("db: search village: %w", err)
	}
	return out, nil
}

const sqliteGetSQL = `SELECT ` + sqliteColumns + ` FROM health_data WHERE id = ?`

// Get returns the observation with the given id or ErrNotFound.
func (s *SQLite) Get(ctx context.Context, id int64) (Observation, error) {
	o, err := scanObservation(s.db.QueryRowContext(ctx, sqliteGetSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Observation{}, ErrNotFound
		}
		return Observation{}, fmt.Errorf("db: get: %w", err)
	}
	return o, nil
}

// Update applies patch and recomputes the tier inside one transaction.
func (s *SQLite) Update(ctx context.Context, id int64, patch ObservationPatch) (Observation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Observation{}, fmt.Errorf("db: update: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	current, err := scanObservation(tx.QueryRowContext(ctx, sqliteGetSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Observation{}, ErrNotFound
		}
		return Observation{}, fmt.Errorf("db: update: %w", err)
	}

	updated := applyPatch(current, patch, s.clock, s.restamp)
	if _, err := tx.ExecContext(ctx,
		`UPDATE health_data SET village = ?, diarrhea = ?, fever = ?, rainfall = ?, risk = ?, date = ? WHERE id = ?`,
		updated.Village, updated.Diarrhea, updated.Fever,
		string(updated.Rainfall), string(updated.Risk), updated.Date, id,
	); err != nil {
		return Observation{}, fmt.Errorf("db: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Observation{}, fmt.Errorf("db: update: commit: %w", err)
	}
	return updated, nil
}

// Delete removes one observation and reports whether it existed.
func (s *SQLite) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM health_data WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("db: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db: delete: %w", err)
	}
	return n > 0, nil
}

// DeleteAll removes every observation and returns how many were removed.
func (s *SQLite) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM health_data`)
	if err != nil {
		return 0, fmt.Errorf("db: delete all: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db: delete all: %w", err)
	}
	return n, nil
}

// Statistics aggregates counts, means and the tier distribution in one query.
func (s *SQLite) Statistics(ctx context.Context) (Statistics, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT risk, COUNT(*), COALESCE(SUM(diarrhea), 0), COALESCE(SUM(fever), 0) FROM health_data GROUP BY risk`,
	)
	if err != nil {
		return Statistics{}, fmt.Errorf("db: statistics: %w", err)
	}
	defer rows.Close()

	groups := make([]tierGroup, 0, 3)
	for rows.Next() {
		var g tierGroup
		var tier string
		if err := rows.Scan(&tier, &g.Count, &g.SumDiarrhea, &g.SumFever); err != nil {
			return Statistics{}, fmt.Errorf("db: statistics: %w", err)
		}
		g.Tier = risk.Tier(tier)
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return Statistics{}, fmt.Errorf("db: statistics: %w", err)
	}
	return newStatistics(groups), nil
}

func (s *SQLite) query(ctx context.Context, query string, args ...any) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	observations := make([]Observation, 0)
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		observations = append(observations, o)
	}
	return observations, rows.Err()
}
