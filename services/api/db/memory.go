package db

import (
	"context"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/tidwall/btree"
	"golang.org/x/text/cases"

	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

// Memory keeps observations in a B-tree ordered by id. It backs tests and
// throwaway deployments (DATABASE_URL=memory://); contents vanish on exit.
type Memory struct {
	mu      sync.Mutex
	rows    *btree.BTree
	lastID  int64
	clock   clockwork.Clock
	restamp bool
}

func byID(a, b interface{}) bool {
	return a.(*Observation).ID < b.(*Observation).ID
}

// NewMemory creates an empty in-memory store.
func NewMemory(opts Options) *Memory {
	return &Memory{
		rows:    btree.NewNonConcurrent(byID),
		clock:   opts.clock(),
		restamp: opts.RestampOnUpdate,
	}
}

// Close is a no-op.
func (s *Memory) Close() error { return nil }

// Ping always succeeds.
func (s *Memory) Ping(context.Context) error { return nil }

// Create stores a new observation. Ids keep increasing across deletes.
func (s *Memory) Create(_ context.Context, in NewObservation) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newRecord(in, s.clock)
	s.lastID++
	rec.ID = s.lastID
	stored := rec
	s.rows.Set(&stored)
	return rec, nil
}

// List returns every observation, most recent first.
func (s *Memory) List(context.Context) ([]Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(*Observation) bool { return true }), nil
}

// SearchVillage returns observations whose village contains text, using
// Unicode case folding.
func (s *Memory) SearchVillage(_ context.Context, text string) ([]Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := cases.Fold().String(text)
	return s.collect(func(o *Observation) bool {
		return strings.Contains(cases.Fold().String(o.Village), needle)
	}), nil
}

// Get returns the observation with the given id or ErrNotFound.
func (s *Memory) Get(_ context.Context, id int64) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.rows.Get(&Observation{ID: id})
	if item == nil {
		return Observation{}, ErrNotFound
	}
	return *item.(*Observation), nil
}

// Update applies patch and recomputes the tier.
func (s *Memory) Update(_ context.Context, id int64, patch ObservationPatch) (Observation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.rows.Get(&Observation{ID: id})
	if item == nil {
		return Observation{}, ErrNotFound
	}
	updated := applyPatch(*item.(*Observation), patch, s.clock, s.restamp)
	stored := updated
	s.rows.Set(&stored)
	return updated, nil
}

// Delete removes one observation and reports whether it existed.
func (s *Memory) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.rows.Delete(&Observation{ID: id}) != nil, nil
}

// DeleteAll removes every observation and returns how many were removed.
func (s *Memory) DeleteAll(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := int64(s.rows.Len())
	s.rows = btree.NewNonConcurrent(byID)
	return n, nil
}

// Statistics aggregates counts, means and the tier distribution.
func (s *Memory) Statistics(context.Context) (Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byTier := make(map[risk.Tier]*tierGroup)
	order := make([]risk.Tier, 0, 3)
	s.rows.Ascend(nil, func(item interface{}) bool {
		o := item.(*Observation)
		g, ok := byTier[o.Risk]
		if !ok {
			g = &tierGroup{Tier: o.Risk}
			byTier[o.Risk] = g
			order = append(order, o.Risk)
		}
		g.Count++
		g.SumDiarrhea += int64(o.Diarrhea)
		g.SumFever += int64(o.Fever)
		return true
	})

	groups := make([]tierGroup, 0, len(order))
	for _, tier := range order {
		groups = append(groups, *byTier[tier])
	}
	return newStatistics(groups), nil
}

func (s *Memory) collect(keep func(*Observation) bool) []Observation {
	out := make([]Observation, 0, s.rows.Len())
	s.rows.Descend(nil, func(item interface{}) bool {
		o := item.(*Observation)
		if keep(o) {
			out = append(out, *o)
		}
		return true
	})
	return out
}
