package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// DateLayout is the calendar format of Observation.Date.
const DateLayout = "2006-01-02"

// ErrNotFound is returned when no observation has the requested id.
var ErrNotFound = errors.New("observation not found")

// Observation is one health-surveillance record.
type Observation struct {
	ID       int64         `json:"id"`
	Village  string        `json:"village"`
	Diarrhea int           `json:"diarrhea"`
	Fever    int           `json:"fever"`
	Rainfall risk.Rainfall `json:"rainfall"`
	Risk     risk.Tier     `json:"risk"`
	Date     string        `json:"date"`
}

// NewObservation holds the caller-supplied fields of a submission.
type NewObservation struct {
	Village  string
	Diarrhea int
	Fever    int
	Rainfall risk.Rainfall
}

// ObservationPatch is a partial update; nil fields keep their stored value.
type ObservationPatch struct {
	Village  *string
	Diarrhea *int
	Fever    *int
	Rainfall *risk.Rainfall
}

// Empty reports whether the patch changes nothing.
func (p ObservationPatch) Empty() bool {
	return p.Village == nil && p.Diarrhea == nil && p.Fever == nil && p.Rainfall == nil
}

// Store is the persistence surface shared by the API and the console.
type Store interface {
	Create(ctx context.Context, in NewObservation) (Observation, error)
	List(ctx context.Context) ([]Observation, error)
	Get(ctx context.Context, id int64) (Observation, error)
	Update(ctx context.Context, id int64, patch ObservationPatch) (Observation, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	SearchVillage(ctx context.Context, text string) ([]Observation, error)
	Statistics(ctx context.Context) (Statistics, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options tune store behaviour independent of the backend.
type Options struct {
	// Clock stamps observation dates. Defaults to the real clock.
	Clock clockwork.Clock
	// RestampOnUpdate replaces the stored date with the edit date on Update.
	RestampOnUpdate bool
	// Migrate applies the schema on open (PostgreSQL only; SQLite always ensures it).
	Migrate bool
	// MaxConns caps the PostgreSQL pool when greater than zero.
	MaxConns int32
}

func (o Options) clock() clockwork.Clock {
	if o.Clock == nil {
		return clockwork.NewRealClock()
	}
	return o.Clock
}

// Open selects a backend from the DSN scheme:
//
//	postgres://..., postgresql://...  PostgreSQL (pgx pool)
//	sqlite://path, file:path          SQLite
//	memory://                         in-process store
func Open(ctx context.Context, dsn string, opts Options) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgres(ctx, dsn, opts)
	case strings.HasPrefix(dsn, "sqlite://"):
		return OpenSQLite(strings.TrimPrefix(dsn, "sqlite://"), opts)
	case strings.HasPrefix(dsn, "file:"):
		return OpenSQLite(dsn, opts)
	case strings.HasPrefix(dsn, "memory:"):
		return NewMemory(opts), nil
	default:
		return nil, fmt.Errorf("db: unsupported database url %q", dsn)
	}
}

// newRecord builds the row to insert; the id is assigned by the backend.
func newRecord(in NewObservation, clock clockwork.Clock) Observation {
	return Observation{
		Village:  in.Village,
		Diarrhea: in.Diarrhea,
		Fever:    in.Fever,
		Rainfall: in.Rainfall,
		Risk:     risk.Classify(in.Diarrhea, in.Rainfall),
		Date:     clock.Now().Format(DateLayout),
	}
}

// applyPatch merges patch into o and recomputes the tier from the merged
// values, never from the changed fields alone.
func applyPatch(o Observation, p ObservationPatch, clock clockwork.Clock, restamp bool) Observation {
	if p.Village != nil {
		o.Village = *p.Village
	}
	if p.Diarrhea != nil {
		o.Diarrhea = *p.Diarrhea
	}
	if p.Fever != nil {
		o.Fever = *p.Fever
	}
	if p.Rainfall != nil {
		o.Rainfall = *p.Rainfall
	}
	o.Risk = risk.Classify(o.Diarrhea, o.Rainfall)
	if restamp {
		o.Date = clock.Now().Format(DateLayout)
	}
	return o
}
