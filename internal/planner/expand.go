package planner

import (
	"time"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/periodization"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayBatch is one day document and the exercises that hang off it. The
// exercises' ProgramDayID is filled in once the day has been stored.
type DayBatch struct {
	Day       domain.ProgramDay
	Exercises []domain.ProgramExercise
}

type Totals struct {
	Days      int `json:"days"`
	Exercises int `json:"exercises"`
}

// Expand lays out every write of a generation run in program order without
// touching the store.
func Expand(programID primitive.ObjectID, now time.Time) []DayBatch {
	planned := periodization.Blueprint()
	batches := make([]DayBatch, 0, len(planned))
	for _, p := range planned {
		b := DayBatch{
			Day: domain.ProgramDay{
				ProgramID:       programID,
				Week:            p.Week,
				Label:           p.Label,
				DayType:         p.DayType,
				Deload:          p.Deload,
				MovementVariant: p.Variant,
				OrderIndex:      p.OrderIndex,
				CreatedAt:       now,
			},
			Exercises: make([]domain.ProgramExercise, len(p.Exercises)),
		}
		for i, spec := range p.Exercises {
			b.Exercises[i] = domain.ProgramExercise{
				ProgramID:    programID,
				ExerciseSpec: spec,
				OrderIndex:   i + 1,
				CreatedAt:    now,
			}
		}
		batches = append(batches, b)
	}
	return batches
}

// Estimate counts the documents a run over batches will create.
func Estimate(batches []DayBatch) Totals {
	t := Totals{Days: len(batches)}
	for _, b := range batches {
		t.Exercises += len(b.Exercises)
	}
	return t
}
