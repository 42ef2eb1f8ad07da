// Package planner turns the periodization blueprint into stored program days
// and exercises.
package planner

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/store"
	"alcyxob/trainplan/internal/tracing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"
)

var ErrAlreadyGenerated = errors.New("program already has generated days")

type Options struct {
	Concurrency int            // exercise writes in flight per day, clamped to [1, 5]
	OnProgress  func(Progress) // optional
	Force       bool           // generate even when days already exist
}

type Summary struct {
	RunID            string `json:"runId"`
	CreatedDays      int    `json:"createdDays"`
	CreatedExercises int    `json:"createdExercises"`
	Retries          int    `json:"retries"`
	Partial          bool   `json:"partial"`
}

type Generator struct {
	writer      *bulk.Writer
	collections store.Collections
	clock       clock.Clock
	metrics     *metrics.Manager
	log         *logger.Logger
}

func NewGenerator(w *bulk.Writer, cols store.Collections, clk clock.Clock, m *metrics.Manager, log *logger.Logger) *Generator {
	return &Generator{writer: w, collections: cols, clock: clk, metrics: m, log: log}
}

// Generate writes the full 12-week plan of programID. Days are stored in
// program order; each day's exercises are written concurrently once the day
// exists. The first surfaced error aborts the run and nothing already stored
// is removed: the returned summary then has Partial set and counts what was
// written.
func (g *Generator) Generate(ctx context.Context, programID primitive.ObjectID, opts Options) (sum Summary, err error) {
	sum.RunID = uuid.NewString()
	ctx, span := tracing.GlobalTracer.Start(ctx, "planner.Generate")
	span.SetAttributes(
		attribute.String("run.id", sum.RunID),
		attribute.String("program.id", programID.Hex()),
	)
	log := g.log.With("runId", sum.RunID, "programId", programID.Hex())

	defer func() {
		span.SetAttributes(
			attribute.Int("days.created", sum.CreatedDays),
			attribute.Int("exercises.created", sum.CreatedExercises),
			attribute.Int("retries", sum.Retries),
		)
		tracing.End(span, err)
		g.metrics.CounterGenerations.WithLabelValues(outcome(sum, err)).Inc()
	}()

	if !opts.Force {
		existing, err := g.writer.Find(ctx, g.collections.ProgramDays, store.Query{
			Filters: []store.Filter{store.Eq("programId", programID)},
			Limit:   1,
		})
		if err != nil {
			return sum, fmt.Errorf("check existing days: %w", err)
		}
		if len(existing) > 0 {
			return sum, ErrAlreadyGenerated
		}
	}

	concurrency := bulk.ClampConcurrency(opts.Concurrency)
	batches := Expand(programID, g.clock.Now())
	totals := Estimate(batches)
	progress := newTracker(totals, opts.OnProgress)
	log.Info("Generating program", "days", totals.Days, "exercises", totals.Exercises, "concurrency", concurrency)

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			sum.Partial = true
			log.Warn("Generation cancelled", "createdDays", sum.CreatedDays, "createdExercises", sum.CreatedExercises)
			return sum, err
		}

		dayID, err := g.createDay(ctx, b, &sum)
		if err != nil {
			sum.Partial = true
			log.Error("Failed to create program day", "label", b.Day.Label, "error", err)
			return sum, fmt.Errorf("create %q: %w", b.Day.Label, err)
		}
		progress.dayCreated(b.Day.Label)

		if err := g.createExercises(ctx, dayID, b, concurrency, progress, &sum); err != nil {
			sum.Partial = true
			log.Error("Failed to create exercises", "label", b.Day.Label, "error", err)
			return sum, fmt.Errorf("exercises of %q: %w", b.Day.Label, err)
		}
	}

	log.Info("Program generated",
		"createdDays", sum.CreatedDays,
		"createdExercises", sum.CreatedExercises,
		"retries", sum.Retries,
	)
	return sum, nil
}

func (g *Generator) createDay(ctx context.Context, b DayBatch, sum *Summary) (primitive.ObjectID, error) {
	req := bulk.Create(g.collections.ProgramDays, b.Day)
	req.Label = b.Day.Label
	res := g.writer.Run(ctx, []bulk.Request{req}, 1)
	sum.Retries += res.Retries()
	if err := res.Err(); err != nil {
		return primitive.NilObjectID, err
	}
	sum.CreatedDays++
	return res[0].ID, nil
}

func (g *Generator) createExercises(ctx context.Context, dayID primitive.ObjectID, b DayBatch, concurrency int, progress *tracker, sum *Summary) error {
	reqs := make([]bulk.Request, len(b.Exercises))
	for i, ex := range b.Exercises {
		ex.ProgramDayID = dayID
		reqs[i] = bulk.Create(g.collections.ProgramExercises, ex)
		reqs[i].Label = ex.Name
	}

	res := g.writer.Run(ctx, reqs, concurrency,
		bulk.WithStopOnError(),
		bulk.WithResultHook(func(r bulk.Result) {
			if r.Err == nil {
				progress.exerciseCreated(b.Day.Label, b.Exercises[r.Index].Name)
			}
		}),
	)
	sum.Retries += res.Retries()
	sum.CreatedExercises += res.Succeeded()
	return res.Err()
}

func outcome(sum Summary, err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyGenerated):
		return "skipped"
	case sum.Partial:
		return "partial"
	default:
		return "failed"
	}
}
