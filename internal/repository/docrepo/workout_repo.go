package docrepo

import (
	"context"
	"errors"
	"time"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type workoutRepository struct {
	store      store.DocumentStore
	collection string
}

func NewWorkoutRepository(st store.DocumentStore, collection string) repository.WorkoutRepository {
	return &workoutRepository{store: st, collection: collection}
}

// Create inserts a new workout.
func (r *workoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID.IsZero() || workout.ProgramDayID.IsZero() {
		return primitive.NilObjectID, errors.New("workout requires userId and programDayId")
	}
	id, err := r.store.Create(ctx, r.collection, primitive.NewObjectID(), workout)
	if err != nil {
		return primitive.NilObjectID, err
	}
	workout.ID = id
	return id, nil
}

func (r *workoutRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error) {
	return getByID[domain.Workout](ctx, r.store, r.collection, id)
}

func (r *workoutRepository) Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return update(ctx, r.store, r.collection, id, bson.D{{Key: "completedAt", Value: at}})
}

type setLogRepository struct {
	store      store.DocumentStore
	collection string
}

func NewSetLogRepository(st store.DocumentStore, collection string) repository.SetLogRepository {
	return &setLogRepository{store: st, collection: collection}
}

// ListByWorkout returns the workout's sets ordered by exercise and set number.
func (r *setLogRepository) ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.SetLog, error) {
	return list[domain.SetLog](ctx, r.store, r.collection, store.Query{
		Filters: []store.Filter{store.Eq("workoutId", workoutID)},
		Order:   []store.Order{{Field: "exerciseId"}, {Field: "setNumber"}},
	})
}
