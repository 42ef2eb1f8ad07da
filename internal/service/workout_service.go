package service

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/trainplan/internal/bulk"
	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/metrics"
	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetInput is one set as reported by the client.
type SetInput struct {
	ExerciseID primitive.ObjectID `json:"exerciseId" binding:"required"`
	SetNumber  int                `json:"setNumber" binding:"required,min=1"`
	Reps       int                `json:"reps" binding:"min=0"`
	WeightKg   float64            `json:"weightKg" binding:"min=0"`
	RIR        *int               `json:"rir,omitempty" binding:"omitempty,min=0,max=10"`
	Completed  bool               `json:"completed"`
}

// LogSetsResult reports how many of the logged sets were new.
type LogSetsResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

type WorkoutService interface {
	StartWorkout(ctx context.Context, userID, dayID primitive.ObjectID) (*domain.Workout, error)
	// LogSets upserts sets keyed by (workout, exercise, set number). Logging the
	// same set again replaces it.
	LogSets(ctx context.Context, userID, workoutID primitive.ObjectID, sets []SetInput) (*LogSetsResult, error)
	ListSets(ctx context.Context, userID, workoutID primitive.ObjectID) ([]domain.SetLog, error)
	CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error)
}

type workoutService struct {
	programRepo  repository.ProgramRepository
	dayRepo      repository.ProgramDayRepository
	exerciseRepo repository.ProgramExerciseRepository
	workoutRepo  repository.WorkoutRepository
	setLogRepo   repository.SetLogRepository
	writer       *bulk.Writer
	setLogs      string // collection
	concurrency  int
	clock        clock.Clock
	metrics      *metrics.Manager
	log          *logger.Logger
}

func NewWorkoutService(
	programRepo repository.ProgramRepository,
	dayRepo repository.ProgramDayRepository,
	exerciseRepo repository.ProgramExerciseRepository,
	workoutRepo repository.WorkoutRepository,
	setLogRepo repository.SetLogRepository,
	writer *bulk.Writer,
	setLogCollection string,
	concurrency int,
	clk clock.Clock,
	m *metrics.Manager,
	log *logger.Logger,
) WorkoutService {
	return &workoutService{
		programRepo:  programRepo,
		dayRepo:      dayRepo,
		exerciseRepo: exerciseRepo,
		workoutRepo:  workoutRepo,
		setLogRepo:   setLogRepo,
		writer:       writer,
		setLogs:      setLogCollection,
		concurrency:  concurrency,
		clock:        clk,
		metrics:      m,
		log:          log,
	}
}

func (s *workoutService) StartWorkout(ctx context.Context, userID, dayID primitive.ObjectID) (*domain.Workout, error) {
	day, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	program, err := s.programRepo.GetByID(ctx, day.ProgramID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.UserID != userID {
		return nil, ErrAccessDenied
	}

	workout := &domain.Workout{
		UserID:       userID,
		ProgramID:    program.ID,
		ProgramDayID: day.ID,
		StartedAt:    s.clock.Now(),
	}
	if _, err := s.workoutRepo.Create(ctx, workout); err != nil {
		return nil, fmt.Errorf("create workout: %w", err)
	}
	return workout, nil
}

func (s *workoutService) LogSets(ctx context.Context, userID, workoutID primitive.ObjectID, sets []SetInput) (*LogSetsResult, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("%w: no sets", ErrInvalidSetLog)
	}
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.CompletedAt != nil {
		return nil, ErrWorkoutFinished
	}

	exercises, err := s.exerciseRepo.ListByDay(ctx, workout.ProgramDayID)
	if err != nil {
		return nil, err
	}
	allowed := make(map[primitive.ObjectID]struct{}, len(exercises))
	for _, ex := range exercises {
		allowed[ex.ID] = struct{}{}
	}

	now := s.clock.Now()
	reqs := make([]bulk.Request, 0, len(sets))
	for _, in := range sets {
		if err := validateSet(in); err != nil {
			return nil, err
		}
		if _, ok := allowed[in.ExerciseID]; !ok {
			return nil, ErrExerciseNotInDay
		}
		entry := domain.SetLog{
			WorkoutID:  workoutID,
			ExerciseID: in.ExerciseID,
			UserID:     userID,
			SetNumber:  in.SetNumber,
			Reps:       in.Reps,
			WeightKg:   in.WeightKg,
			RIR:        in.RIR,
			Completed:  in.Completed,
			LoggedAt:   now,
		}
		req := bulk.Upsert(s.setLogs, setLogKey(entry), entry)
		req.Label = fmt.Sprintf("set %d of %s", in.SetNumber, in.ExerciseID.Hex())
		reqs = append(reqs, req)
	}

	results := s.writer.Run(ctx, reqs, s.concurrency)
	res := &LogSetsResult{}
	for _, r := range results {
		switch {
		case r.Err != nil:
		case r.Updated:
			res.Updated++
			s.metrics.CounterSetLogs.WithLabelValues("updated").Inc()
		default:
			res.Created++
			s.metrics.CounterSetLogs.WithLabelValues("created").Inc()
		}
	}
	if err := results.Err(); err != nil {
		s.log.Warn("Some sets were not logged", "workoutId", workoutID.Hex(), "created", res.Created, "updated", res.Updated, "error", err)
		return res, err
	}
	return res, nil
}

func (s *workoutService) ListSets(ctx context.Context, userID, workoutID primitive.ObjectID) ([]domain.SetLog, error) {
	if _, err := s.ownedWorkout(ctx, userID, workoutID); err != nil {
		return nil, err
	}
	return s.setLogRepo.ListByWorkout(ctx, workoutID)
}

func (s *workoutService) CompleteWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return nil, err
	}
	if workout.CompletedAt != nil {
		return workout, nil
	}
	now := s.clock.Now()
	if err := s.workoutRepo.Complete(ctx, workoutID, now); err != nil {
		return nil, err
	}
	workout.CompletedAt = &now
	return workout, nil
}

func (s *workoutService) ownedWorkout(ctx context.Context, userID, workoutID primitive.ObjectID) (*domain.Workout, error) {
	workout, err := s.workoutRepo.GetByID(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if workout.UserID != userID {
		return nil, ErrAccessDenied
	}
	return workout, nil
}

func validateSet(in SetInput) error {
	switch {
	case in.ExerciseID.IsZero():
		return fmt.Errorf("%w: exercise id is required", ErrInvalidSetLog)
	case in.SetNumber < 1:
		return fmt.Errorf("%w: set number must be positive", ErrInvalidSetLog)
	case in.Reps < 0, in.WeightKg < 0:
		return fmt.Errorf("%w: reps and weight cannot be negative", ErrInvalidSetLog)
	case in.RIR != nil && (*in.RIR < 0 || *in.RIR > 10):
		return fmt.Errorf("%w: rir must be between 0 and 10", ErrInvalidSetLog)
	}
	return nil
}

func setLogKey(l domain.SetLog) store.CompositeKey {
	return store.Key(
		store.Part("workoutId", l.WorkoutID),
		store.Part("exerciseId", l.ExerciseID),
		store.Part("setNumber", l.SetNumber),
	)
}
