package planner_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/store"
	"alcyxob/trainplan/internal/store/memstore"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/goleak"
)

const (
	wantDays      = 48
	wantExercises = 336
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	store     *memstore.Store
	clock     *clock.FakeClock
	metrics   *metrics.Manager
	generator *planner.Generator
	cols      store.Collections
}

func newFixture(opts ...memstore.Option) *fixture {
	st := memstore.New(opts...)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 7, 30, 0, 0, time.UTC))
	m := metrics.NewTestManager()
	w := bulk.NewWriter(st, bulk.DefaultConfig(), m, logger.NewNop(),
		bulk.WithClock(clk),
		bulk.WithJitter(func(time.Duration) time.Duration { return 0 }),
	)
	cols := store.DefaultCollections()
	return &fixture{
		store:     st,
		clock:     clk,
		metrics:   m,
		cols:      cols,
		generator: planner.NewGenerator(w, cols, clk, m, logger.NewNop()),
	}
}

func (f *fixture) days(t *testing.T) []domain.ProgramDay {
	t.Helper()
	docs, err := f.store.List(context.Background(), f.cols.ProgramDays, store.Query{})
	require.NoError(t, err)
	out := make([]domain.ProgramDay, len(docs))
	for i, d := range docs {
		require.NoError(t, d.Decode(&out[i]))
	}
	return out
}

func (f *fixture) exercises(t *testing.T) []domain.ProgramExercise {
	t.Helper()
	docs, err := f.store.List(context.Background(), f.cols.ProgramExercises, store.Query{
		Order: []store.Order{{Field: "orderIndex"}},
	})
	require.NoError(t, err)
	out := make([]domain.ProgramExercise, len(docs))
	for i, d := range docs {
		require.NoError(t, d.Decode(&out[i]))
	}
	return out
}

func TestGenerate_AlwaysSucceeds(t *testing.T) {
	for _, concurrency := range []int{1, 3, 5} {
		f := newFixture()
		programID := primitive.NewObjectID()

		sum, err := f.generator.Generate(context.Background(), programID, planner.Options{Concurrency: concurrency})

		require.NoError(t, err)
		assert.NotEmpty(t, sum.RunID)
		assert.Equal(t, wantDays, sum.CreatedDays)
		assert.Equal(t, wantExercises, sum.CreatedExercises)
		assert.Equal(t, 0, sum.Retries)
		assert.False(t, sum.Partial)
		assert.Equal(t, wantDays, f.store.Count(f.cols.ProgramDays))
		assert.Equal(t, wantExercises, f.store.Count(f.cols.ProgramExercises))
		assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CounterGenerations.WithLabelValues("ok")))
	}
}

func TestGenerate_RateLimitedTwicePerRequest(t *testing.T) {
	var creates atomic.Int64
	f := newFixture(memstore.WithHook(func(ctx context.Context, op memstore.Op, coll string) error {
		if op != memstore.OpCreate {
			return nil
		}
		if creates.Add(1)%3 != 0 {
			return store.NewError(store.KindRateLimited, string(op), coll, errors.New("request rate is large"))
		}
		return nil
	}))

	sum, err := f.generator.Generate(context.Background(), primitive.NewObjectID(), planner.Options{Concurrency: 1})

	require.NoError(t, err)
	assert.Equal(t, wantDays, sum.CreatedDays)
	assert.Equal(t, wantExercises, sum.CreatedExercises)
	assert.Equal(t, 2*(wantDays+wantExercises), sum.Retries)
	assert.Equal(t, wantDays, f.store.Count(f.cols.ProgramDays))
	assert.Equal(t, wantExercises, f.store.Count(f.cols.ProgramExercises))
}

func TestGenerate_StoredLayout(t *testing.T) {
	f := newFixture()
	programID := primitive.NewObjectID()
	start := f.clock.Now()

	_, err := f.generator.Generate(context.Background(), programID, planner.Options{Concurrency: 5})
	require.NoError(t, err)

	// Pacing pauses move the clock; every record carries the run's start time.
	require.NotEmpty(t, f.clock.Sleeps())
	assert.True(t, f.clock.Now().After(start))

	days := f.days(t)
	dayByID := make(map[primitive.ObjectID]domain.ProgramDay, len(days))
	perWeek := make(map[int][]int)
	for _, d := range days {
		assert.Equal(t, programID, d.ProgramID)
		assert.Equal(t, start, d.CreatedAt.UTC())
		dayByID[d.ID] = d
		perWeek[d.Week] = append(perWeek[d.Week], d.OrderIndex)
	}
	require.Len(t, perWeek, domain.ProgramWeeks)
	for week, idx := range perWeek {
		assert.ElementsMatch(t, []int{1, 2, 3, 4}, idx, "week %d", week)
	}

	perDay := make(map[primitive.ObjectID][]int)
	for _, ex := range f.exercises(t) {
		day, ok := dayByID[ex.ProgramDayID]
		require.True(t, ok, "exercise %q references an unknown day", ex.Name)
		assert.Equal(t, programID, ex.ProgramID)
		assert.Equal(t, start, ex.CreatedAt.UTC())
		if day.Deload {
			assert.GreaterOrEqual(t, ex.TargetRIR, 4)
		}
		perDay[ex.ProgramDayID] = append(perDay[ex.ProgramDayID], ex.OrderIndex)
	}
	require.Len(t, perDay, wantDays)
	for _, idx := range perDay {
		for i, v := range idx {
			assert.Equal(t, i+1, v)
		}
	}
}

func TestGenerate_ProgressIsMonotonic(t *testing.T) {
	f := newFixture()

	var (
		mu     sync.Mutex
		events []planner.Progress
	)
	_, err := f.generator.Generate(context.Background(), primitive.NewObjectID(), planner.Options{
		Concurrency: 5,
		OnProgress: func(p planner.Progress) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, p)
		},
	})
	require.NoError(t, err)
	require.Len(t, events, wantDays+wantExercises)

	last := map[planner.Phase]int{}
	for _, e := range events {
		assert.Equal(t, last[e.Phase]+1, e.Created)
		last[e.Phase] = e.Created
		assert.NotEmpty(t, e.Message)
		switch e.Phase {
		case planner.PhaseDay:
			assert.Equal(t, wantDays, e.Total)
		case planner.PhaseExercise:
			assert.Equal(t, wantExercises, e.Total)
		}
	}
	assert.Equal(t, wantDays, last[planner.PhaseDay])
	assert.Equal(t, wantExercises, last[planner.PhaseExercise])
	assert.Equal(t, "Created Week 1 Day 1 - Upper Strength", events[0].Message)
}

func TestGenerate_RejectedAbortsWithPartialSummary(t *testing.T) {
	var creates atomic.Int64
	f := newFixture(memstore.WithHook(func(ctx context.Context, op memstore.Op, coll string) error {
		if op == memstore.OpCreate && creates.Add(1) == 10 {
			return store.NewError(store.KindRejected, string(op), coll, errors.New("document too large"))
		}
		return nil
	}))

	sum, err := f.generator.Generate(context.Background(), primitive.NewObjectID(), planner.Options{Concurrency: 1})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrRejected)
	assert.True(t, sum.Partial)
	// Day one and its seven exercises, then day two; its first exercise fails.
	assert.Equal(t, 2, sum.CreatedDays)
	assert.Equal(t, 7, sum.CreatedExercises)
	assert.Equal(t, 2, f.store.Count(f.cols.ProgramDays))
	assert.Equal(t, 7, f.store.Count(f.cols.ProgramExercises))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CounterGenerations.WithLabelValues("partial")))
}

func TestGenerate_GuardsAgainstSecondRun(t *testing.T) {
	f := newFixture()
	programID := primitive.NewObjectID()

	_, err := f.generator.Generate(context.Background(), programID, planner.Options{Concurrency: 3})
	require.NoError(t, err)

	sum, err := f.generator.Generate(context.Background(), programID, planner.Options{Concurrency: 3})
	assert.ErrorIs(t, err, planner.ErrAlreadyGenerated)
	assert.Zero(t, sum.CreatedDays)
	assert.Equal(t, wantDays, f.store.Count(f.cols.ProgramDays))

	// Other programs are unaffected.
	_, err = f.generator.Generate(context.Background(), primitive.NewObjectID(), planner.Options{Concurrency: 3})
	require.NoError(t, err)

	sum, err = f.generator.Generate(context.Background(), programID, planner.Options{Concurrency: 3, Force: true})
	require.NoError(t, err)
	assert.Equal(t, wantDays, sum.CreatedDays)
	assert.Equal(t, 3*wantDays, f.store.Count(f.cols.ProgramDays))
}

func TestGenerate_CancellationReturnsPartialSummary(t *testing.T) {
	f := newFixture()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sum, err := f.generator.Generate(ctx, primitive.NewObjectID(), planner.Options{
		Concurrency: 2,
		OnProgress: func(p planner.Progress) {
			if p.Phase == planner.PhaseExercise && p.Created == 5 {
				cancel()
			}
		},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, sum.Partial)
	assert.Equal(t, 1, sum.CreatedDays)
	assert.GreaterOrEqual(t, sum.CreatedExercises, 5)
	assert.Less(t, sum.CreatedExercises, wantExercises)
	assert.Equal(t, sum.CreatedDays, f.store.Count(f.cols.ProgramDays))
	assert.Equal(t, sum.CreatedExercises, f.store.Count(f.cols.ProgramExercises))
}
