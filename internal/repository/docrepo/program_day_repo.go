package docrepo

import (
	"context"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type programDayRepository struct {
	store      store.DocumentStore
	collection string
}

func NewProgramDayRepository(st store.DocumentStore, collection string) repository.ProgramDayRepository {
	return &programDayRepository{store: st, collection: collection}
}

func (r *programDayRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramDay, error) {
	return getByID[domain.ProgramDay](ctx, r.store, r.collection, id)
}

func (r *programDayRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID, week int) ([]domain.ProgramDay, error) {
	filters := []store.Filter{store.Eq("programId", programID)}
	if week > 0 {
		filters = append(filters, store.Eq("week", week))
	}
	return list[domain.ProgramDay](ctx, r.store, r.collection, store.Query{
		Filters: filters,
		Order:   []store.Order{{Field: "week"}, {Field: "orderIndex"}},
	})
}

type programExerciseRepository struct {
	store      store.DocumentStore
	collection string
}

func NewProgramExerciseRepository(st store.DocumentStore, collection string) repository.ProgramExerciseRepository {
	return &programExerciseRepository{store: st, collection: collection}
}

func (r *programExerciseRepository) ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.ProgramExercise, error) {
	return list[domain.ProgramExercise](ctx, r.store, r.collection, store.Query{
		Filters: []store.Filter{store.Eq("programDayId", dayID)},
		Order:   []store.Order{{Field: "orderIndex"}},
	})
}

// ListByProgram returns every exercise of the program grouped by day.
func (r *programExerciseRepository) ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramExercise, error) {
	return list[domain.ProgramExercise](ctx, r.store, r.collection, store.Query{
		Filters: []store.Filter{store.Eq("programId", programID)},
		Order:   []store.Order{{Field: "programDayId"}, {Field: "orderIndex"}},
	})
}
