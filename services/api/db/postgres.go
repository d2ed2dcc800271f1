package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// Postgres stores observations in a PostgreSQL health_data table.
type Postgres struct {
	pool    *pgxpool.Pool
	clock   clockwork.Clock
	restamp bool
}

// NewPostgres creates a Store backed by a pgx pool, applying migrations when
// opts.Migrate is set.
func NewPostgres(ctx context.Context, databaseURL string, opts Options) (*Postgres, error) {
	if opts.Migrate {
		if err := RunMigrations(databaseURL); err != nil {
			return nil, err
		}
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("db: parse config: %w", err)
	}
	if opts.MaxConns > 0 {
		poolCfg.MaxConns = opts.MaxConns
	}
	poolCfg.MaxConnLifetime = 1 * time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("db: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}

	return &Postgres{pool: pool, clock: opts.clock(), restamp: opts.RestampOnUpdate}, nil
}

// Close releases the pool resources.
func (s *Postgres) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (s *Postgres) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("db: ping: %w", err)
	}
	return nil
}

const pgColumns = `id, village, diarrhea, fever, rainfall, risk, date`

const pgInsertSQL = `
    INSERT INTO health_data (village, diarrhea, fever, rainfall, risk, date)
    VALUES ($1, $2, $3, $4, $5, $6)
    RETURNING id
`

// Create inserts a new observation with a freshly computed tier.
func (s *Postgres) Create(ctx context.Context, in NewObservation) (Observation, error) {
	rec := newRecord(in, s.clock)
	err := s.pool.QueryRow(ctx, pgInsertSQL,
		rec.Village, rec.Diarrhea, rec.Fever, string(rec.Rainfall), string(rec.Risk), rec.Date,
	).Scan(&rec.ID)
	if err != nil {
		return Observation{}, fmt.Errorf("db: create: %w", err)
	}
	return rec, nil
}

const pgListSQL = `
    SELECT ` + pgColumns + `
    FROM health_data
    ORDER BY id DESC
`

// List returns every observation, most recent first.
func (s *Postgres) List(ctx context.Context) ([]Observation, error) {
	out, err := s.query(ctx, pgListSQL)
	if err != nil {
		return nil, fmt.Errorf("db: list: %w", err)
	}
	return out, nil
}

const pgSearchSQL = `
    SELECT ` + pgColumns + `
    FROM health_data
    WHERE strpos(lower(village), lower($1)) > 0
    ORDER BY id DESC
`

// SearchVillage returns observations whose village contains text, ignoring case.
func (s *Postgres) SearchVillage(ctx context.Context, text string) ([]Observation, error) {
	out, err := s.query(ctx, pgSearchSQL, text)
	if err != nil {
		return nil, fmt.Errorf("db: search village: %w", err)
	}
	return out, nil
}

const pgGetSQL = `
    SELECT ` + pgColumns + `
    FROM health_data
    WHERE id = $1
`

// Get returns the observation with the given id or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, id int64) (Observation, error) {
	o, err := scanObservation(s.pool.QueryRow(ctx, pgGetSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Observation{}, ErrNotFound
		}
		return Observation{}, fmt.Errorf("db: get: %w", err)
	}
	return o, nil
}

const pgUpdateSQL = `
    UPDATE health_data
    SET village = $2, diarrhea = $3, fever = $4, rainfall = $5, risk = $6, date = $7
    WHERE id = $1
`

// Update applies patch and recomputes the tier inside one transaction so the
// row is locked between the read and the write.
func (s *Postgres) Update(ctx context.Context, id int64, patch ObservationPatch) (Observation, error) {
	var updated Observation
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanObservation(tx.QueryRow(ctx, pgGetSQL+" FOR UPDATE", id))
		if err != nil {
			return err
		}
		updated = applyPatch(current, patch, s.clock, s.restamp)
		_, err = tx.Exec(ctx, pgUpdateSQL, id,
			updated.Village, updated.Diarrhea, updated.Fever,
			string(updated.Rainfall), string(updated.Risk), updated.Date,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Observation{}, ErrNotFound
		}
		return Observation{}, fmt.Errorf("db: update: %w", err)
	}
	return updated, nil
}

// Delete removes one observation and reports whether it existed.
func (s *Postgres) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM health_data WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll removes every observation and returns how many were removed.
func (s *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM health_data`)
	if err != nil {
		return 0, fmt.Errorf("db: delete all: %w", err)
	}
	return tag.RowsAffected(), nil
}

const pgStatisticsSQL = `
    SELECT risk, COUNT(*), COALESCE(SUM(diarrhea), 0), COALESCE(SUM(fever), 0)
    FROM health_data
    GROUP BY risk
`

// Statistics aggregates counts, means and the tier distribution in one query.
func (s *Postgres) Statistics(ctx context.Context) (Statistics, error) {
	rows, err := s.pool.Query(ctx, pgStatisticsSQL)
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

func (s *Postgres) query(ctx context.Context, sql string, args ...any) ([]Observation, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
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

// scanner is satisfied by pgx.Row, pgx.Rows and *sql.Row / *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanObservation(row scanner) (Observation, error) {
	var o Observation
	var rainfall, tier string
	if err := row.Scan(
		&o.ID,
		&o.Village,
		&o.Diarrhea,
		&o.Fever,
		&rainfall,
		&tier,
		&o.Date,
	); err != nil {
		return Observation{}, err
	}
	o.Rainfall = risk.Rainfall(rainfall)
	o.Risk = risk.Tier(tier)
	return o, nil
}
