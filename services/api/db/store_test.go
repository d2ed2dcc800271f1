package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/village-health-surveillance/services/api/risk"
)

var testDay = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

type storeFactory func(t *testing.T, opts Options) Store

func newMemoryStore(t *testing.T, opts Options) Store {
	t.Helper()
	return NewMemory(opts)
}

func newSQLiteStore(t *testing.T, opts Options) Store {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, newMemoryStore)
}

func TestSQLiteStore(t *testing.T) {
	runStoreSuite(t, newSQLiteStore)
}

func ptr[T any](v T) *T { return &v }

// runStoreSuite exercises the Store contract against one backend.
func runStoreSuite(t *testing.T, factory storeFactory) {
	ctx := context.Background()

	setup := func(t *testing.T) (Store, *clockwork.FakeClock) {
		clock := clockwork.NewFakeClockAt(testDay)
		return factory(t, Options{Clock: clock}), clock
	}

	t.Run("create classifies and stamps date", func(t *testing.T) {
		s, _ := setup(t)

		got, err := s.Create(ctx, NewObservation{Village: "Greenfield", Diarrhea: 12, Fever: 5, Rainfall: risk.RainfallHigh})
		require.NoError(t, err)
		assert.Positive(t, got.ID)
		assert.Equal(t, "Greenfield", got.Village)
		assert.Equal(t, 12, got.Diarrhea)
		assert.Equal(t, 5, got.Fever)
		assert.Equal(t, risk.RainfallHigh, got.Rainfall)
		assert.Equal(t, risk.TierHigh, got.Risk)
		assert.Equal(t, "2024-03-15", got.Date)
	})

	t.Run("scenario tiers", func(t *testing.T) {
		s, _ := setup(t)

		riverside, err := s.Create(ctx, NewObservation{Village: "Riverside", Diarrhea: 3, Fever: 2, Rainfall: risk.RainfallLow})
		require.NoError(t, err)
		assert.Equal(t, risk.TierSafe, riverside.Risk)

		medium, err := s.Create(ctx, NewObservation{Village: "Hillcrest", Diarrhea: 7, Rainfall: risk.RainfallLow})
		require.NoError(t, err)
		assert.Equal(t, risk.TierMedium, medium.Risk)
	})

	t.Run("create then get round trips", func(t *testing.T) {
		s, _ := setup(t)

		created, err := s.Create(ctx, NewObservation{Village: "Lakeside", Diarrhea: 9, Fever: 1, Rainfall: risk.RainfallMedium})
		require.NoError(t, err)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, got)
		assert.Equal(t, risk.Classify(got.Diarrhea, got.Rainfall), got.Risk)
	})

	t.Run("get missing returns ErrNotFound", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.Get(ctx, 404)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is empty on a new store", func(t *testing.T) {
		s, _ := setup(t)

		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("list returns all records by descending id", func(t *testing.T) {
		s, _ := setup(t)

		const n = 5
		for i := 0; i < n; i++ {
			_, err := s.Create(ctx, NewObservation{Village: "V", Diarrhea: i * 3, Rainfall: risk.RainfallHigh})
			require.NoError(t, err)
		}

		got, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, got, n)
		for i := 1; i < len(got); i++ {
			assert.Greater(t, got[i-1].ID, got[i].ID)
		}
		for _, o := range got {
			assert.Equal(t, risk.Classify(o.Diarrhea, o.Rainfall), o.Risk)
		}
	})

	t.Run("ids are never reused after delete", func(t *testing.T) {
		s, _ := setup(t)

		first, err := s.Create(ctx, NewObservation{Village: "A", Rainfall: risk.RainfallLow})
		require.NoError(t, err)
		second, err := s.Create(ctx, NewObservation{Village: "B", Rainfall: risk.RainfallLow})
		require.NoError(t, err)

		ok, err := s.Delete(ctx, second.ID)
		require.NoError(t, err)
		require.True(t, ok)

		third, err := s.Create(ctx, NewObservation{Village: "C", Rainfall: risk.RainfallLow})
		require.NoError(t, err)
		assert.Greater(t, second.ID, first.ID)
		assert.Greater(t, third.ID, second.ID)
	})

	t.Run("update recomputes tier from merged fields", func(t *testing.T) {
		s, _ := setup(t)

		created, err := s.Create(ctx, NewObservation{Village: "Riverside", Diarrhea: 3, Fever: 2, Rainfall: risk.RainfallLow})
		require.NoError(t, err)
		require.Equal(t, risk.TierSafe, created.Risk)

		updated, err := s.Update(ctx, created.ID, ObservationPatch{Diarrhea: ptr(12)})
		require.NoError(t, err)
		assert.Equal(t, 12, updated.Diarrhea)
		assert.Equal(t, risk.RainfallLow, updated.Rainfall)
		assert.Equal(t, risk.TierSafe, updated.Risk)

		updated, err = s.Update(ctx, created.ID, ObservationPatch{Rainfall: ptr(risk.RainfallHigh)})
		require.NoError(t, err)
		assert.Equal(t, risk.TierHigh, updated.Risk)

		got, err := s.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("update keeps omitted fields and date", func(t *testing.T) {
		s, clock := setup(t)

		created, err := s.Create(ctx, NewObservation{Village: "Oldtown", Diarrhea: 6, Fever: 4, Rainfall: risk.RainfallMedium})
		require.NoError(t, err)

		clock.Advance(72 * time.Hour)
		updated, err := s.Update(ctx, created.ID, ObservationPatch{Village: ptr("Newtown"), Fever: ptr(9)})
		require.NoError(t, err)
		assert.Equal(t, "Newtown", updated.Village)
		assert.Equal(t, 9, updated.Fever)
		assert.Equal(t, 6, updated.Diarrhea)
		assert.Equal(t, risk.RainfallMedium, updated.Rainfall)
		assert.Equal(t, risk.TierMedium, updated.Risk)
		assert.Equal(t, created.Date, updated.Date)
	})

	t.Run("update missing returns ErrNotFound", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.Update(ctx, 77, ObservationPatch{Diarrhea: ptr(1)})
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing leaves store unchanged", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.Create(ctx, NewObservation{Village: "Keep", Rainfall: risk.RainfallLow})
		require.NoError(t, err)

		ok, err := s.Delete(ctx, 9999)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("delete all", func(t *testing.T) {
		s, _ := setup(t)

		n, err := s.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)

		for i := 0; i < 3; i++ {
			_, err := s.Create(ctx, NewObservation{Village: "X", Rainfall: risk.RainfallLow})
			require.NoError(t, err)
		}
		n, err = s.DeleteAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		got, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("search village is case-insensitive substring", func(t *testing.T) {
		s, _ := setup(t)

		for _, v := range []string{"Greenfield", "Riverside", "North Greenwood", "greenhill"} {
			_, err := s.Create(ctx, NewObservation{Village: v, Rainfall: risk.RainfallLow})
			require.NoError(t, err)
		}

		got, err := s.SearchVillage(ctx, "GREEN")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "greenhill", got[0].Village)
		assert.Equal(t, "North Greenwood", got[1].Village)
		assert.Equal(t, "Greenfield", got[2].Village)

		got, err = s.SearchVillage(ctx, "nowhere")
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = s.SearchVillage(ctx, "")
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("statistics on empty store", func(t *testing.T) {
		s, _ := setup(t)

		stats, err := s.Statistics(ctx)
		require.NoError(t, err)
		assert.Zero(t, stats.Total)
		assert.Nil(t, stats.MeanDiarrhea)
		assert.Nil(t, stats.MeanFever)
		require.Len(t, stats.Distribution, 3)
		for _, share := range stats.Distribution {
			assert.Zero(t, share.Count)
			assert.Nil(t, share.Percent)
		}
	})

	t.Run("statistics aggregates", func(t *testing.T) {
		s, _ := setup(t)

		inputs := []NewObservation{
			{Village: "Greenfield", Diarrhea: 12, Fever: 5, Rainfall: risk.RainfallHigh},
			{Village: "Riverside", Diarrhea: 3, Fever: 2, Rainfall: risk.RainfallLow},
			{Village: "Hillcrest", Diarrhea: 7, Fever: 1, Rainfall: risk.RainfallLow},
			{Village: "Dry Creek", Diarrhea: 2, Fever: 0, Rainfall: risk.RainfallMedium},
		}
		for _, in := range inputs {
			_, err := s.Create(ctx, in)
			require.NoError(t, err)
		}

		stats, err := s.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.Total)
		require.NotNil(t, stats.MeanDiarrhea)
		require.NotNil(t, stats.MeanFever)
		assert.InDelta(t, 6.0, *stats.MeanDiarrhea, 1e-9)
		assert.InDelta(t, 2.0, *stats.MeanFever, 1e-9)

		require.Len(t, stats.Distribution, 3)
		want := map[risk.Tier]struct {
			count   int64
			percent float64
		}{
			risk.TierSafe:   {2, 50},
			risk.TierMedium: {1, 25},
			risk.TierHigh:   {1, 25},
		}
		for i, tier := range risk.Tiers() {
			share := stats.Distribution[i]
			assert.Equal(t, tier, share.Tier)
			assert.Equal(t, want[tier].count, share.Count)
			require.NotNil(t, share.Percent)
			assert.InDelta(t, want[tier].percent, *share.Percent, 1e-9)
		}
	})
}

func TestRestampOnUpdate(t *testing.T) {
	for name, factory := range map[string]storeFactory{"memory": newMemoryStore, "sqlite": newSQLiteStore} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := clockwork.NewFakeClockAt(testDay)
			s := factory(t, Options{Clock: clock, RestampOnUpdate: true})

			created, err := s.Create(ctx, NewObservation{Village: "Edit", Diarrhea: 1, Rainfall: risk.RainfallLow})
			require.NoError(t, err)
			assert.Equal(t, "2024-03-15", created.Date)

			clock.Advance(48 * time.Hour)
			updated, err := s.Update(ctx, created.ID, ObservationPatch{Fever: ptr(3)})
			require.NoError(t, err)
			assert.Equal(t, "2024-03-17", updated.Date)
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, "memory://", Options{})
		require.NoError(t, err)
		assert.IsType(t, &Memory{}, s)
		require.NoError(t, s.Ping(ctx))
		require.NoError(t, s.Close())
	})

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "open.db"), Options{})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		assert.IsType(t, &SQLite{}, s)
		require.NoError(t, s.Ping(ctx))
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := Open(ctx, "mysql://localhost/db", Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported")
	})
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLite(path, Options{})
	require.NoError(t, err)
	created, err := s.Create(ctx, NewObservation{Village: "Persist", Diarrhea: 11, Rainfall: risk.RainfallHigh})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, Options{})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	got, err := s.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestNewStatistics_LegacyTiers(t *testing.T) {
	stats := newStatistics([]tierGroup{
		{Tier: "Unknown", Count: 1, SumDiarrhea: 4, SumFever: 4},
		{Tier: risk.TierSafe, Count: 3, SumDiarrhea: 6, SumFever: 0},
	})

	assert.Equal(t, int64(4), stats.Total)
	require.Len(t, stats.Distribution, 4)
	assert.Equal(t, risk.Tier("Unknown"), stats.Distribution[3].Tier)
	require.NotNil(t, stats.Distribution[3].Percent)
	assert.InDelta(t, 25.0, *stats.Distribution[3].Percent, 1e-9)
	assert.InDelta(t, 2.5, *stats.MeanDiarrhea, 1e-9)
}

func TestObservationPatch_Empty(t *testing.T) {
	assert.True(t, ObservationPatch{}.Empty())
	assert.False(t, ObservationPatch{Fever: ptr(1)}.Empty())
}
