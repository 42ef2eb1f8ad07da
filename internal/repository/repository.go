package repository

import (
	"context"
	"time"

	"alcyxob/trainplan/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound = RepositoryError("not found")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProgramRepository defines the interface for interacting with program data.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error)
	MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// ProgramDayRepository reads generated days. Days are written by the planner.
type ProgramDayRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgramDay, error)
	// ListByProgram returns days in (week, orderIndex) order. week 0 means every week.
	ListByProgram(ctx context.Context, programID primitive.ObjectID, week int) ([]domain.ProgramDay, error)
}

// ProgramExerciseRepository reads generated exercises.
type ProgramExerciseRepository interface {
	ListByDay(ctx context.Context, dayID primitive.ObjectID) ([]domain.ProgramExercise, error)
	ListByProgram(ctx context.Context, programID primitive.ObjectID) ([]domain.ProgramExercise, error)
}

// WorkoutRepository defines the interface for interacting with workout data.
type WorkoutRepository interface {
	Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Workout, error)
	Complete(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// SetLogRepository reads logged sets. Sets are upserted through the bulk writer.
type SetLogRepository interface {
	ListByWorkout(ctx context.Context, workoutID primitive.ObjectID) ([]domain.SetLog, error)
}
