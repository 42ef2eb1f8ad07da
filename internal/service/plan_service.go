package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"time"

	"alcyxob/trainplan/internal/clock"
	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/logger"
	"alcyxob/trainplan/internal/planner"
	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/storage"
	"alcyxob/trainplan/internal/tracing"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportResult points at a JSON export of a generated plan.
type ExportResult struct {
	ObjectKey   string    `json:"objectKey"`
	DownloadURL string    `json:"downloadUrl"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Days        int       `json:"days"`
	Exercises   int       `json:"exercises"`
}

// PlanExport is the document written to object storage.
type PlanExport struct {
	Program    domain.Program `json:"program"`
	ExportedAt time.Time      `json:"exportedAt"`
	Weeks      []ExportWeek   `json:"weeks"`
}

type ExportWeek struct {
	Week int         `json:"week"`
	Days []ExportDay `json:"days"`
}

type ExportDay struct {
	domain.ProgramDay
	Exercises []domain.ProgramExercise `json:"exercises"`
}

type PlanService interface {
	CreateProgram(ctx context.Context, userID primitive.ObjectID, name string, startDate *time.Time) (*domain.Program, error)
	GetProgram(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error)
	ListPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error)

	// GeneratePlan writes the 12-week plan of an owned program. On failure the
	// returned summary describes what was written before the error.
	GeneratePlan(ctx context.Context, userID, programID primitive.ObjectID, opts planner.Options) (planner.Summary, error)

	ListDays(ctx context.Context, userID, programID primitive.ObjectID, week int) ([]domain.ProgramDay, error)
	ListDayExercises(ctx context.Context, userID, dayID primitive.ObjectID) ([]domain.ProgramExercise, error)
	ExportPlan(ctx context.Context, userID, programID primitive.ObjectID) (*ExportResult, error)
}

// planService implements the PlanService interface.
type planService struct {
	programRepo  repository.ProgramRepository
	dayRepo      repository.ProgramDayRepository
	exerciseRepo repository.ProgramExerciseRepository
	generator    *planner.Generator
	fileStorage  storage.FileStorage
	urlExpiry    time.Duration
	clock        clock.Clock
	log          *logger.Logger
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	programRepo repository.ProgramRepository,
	dayRepo repository.ProgramDayRepository,
	exerciseRepo repository.ProgramExerciseRepository,
	generator *planner.Generator,
	fileStorage storage.FileStorage,
	urlExpiry time.Duration,
	clk clock.Clock,
	log *logger.Logger,
) PlanService {
	return &planService{
		programRepo:  programRepo,
		dayRepo:      dayRepo,
		exerciseRepo: exerciseRepo,
		generator:    generator,
		fileStorage:  fileStorage,
		urlExpiry:    urlExpiry,
		clock:        clk,
		log:          log,
	}
}

func (s *planService) CreateProgram(ctx context.Context, userID primitive.ObjectID, name string, startDate *time.Time) (*domain.Program, error) {
	if userID.IsZero() || name == "" {
		return nil, errors.New("user ID and program name are required")
	}
	now := s.clock.Now()
	program := &domain.Program{
		UserID:      userID,
		Name:        name,
		StartDate:   startDate,
		Weeks:       domain.ProgramWeeks,
		DaysPerWeek: domain.ProgramDaysPerWeek,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.programRepo.Create(ctx, program); err != nil {
		return nil, fmt.Errorf("create program: %w", err)
	}
	return program, nil
}

func (s *planService) GetProgram(ctx context.Context, userID, programID primitive.ObjectID) (*domain.Program, error) {
	program, err := s.programRepo.GetByID(ctx, programID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgramNotFound
		}
		return nil, err
	}
	if program.UserID != userID {
		return nil, ErrAccessDenied
	}
	return program, nil
}

func (s *planService) ListPrograms(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	return s.programRepo.GetByUserID(ctx, userID)
}

func (s *planService) GeneratePlan(ctx context.Context, userID, programID primitive.ObjectID, opts planner.Options) (planner.Summary, error) {
	program, err := s.GetProgram(ctx, userID, programID)
	if err != nil {
		return planner.Summary{}, err
	}
	if program.IsGenerated() && !opts.Force {
		return planner.Summary{}, planner.ErrAlreadyGenerated
	}

	sum, err := s.generator.Generate(ctx, programID, opts)
	if err != nil {
		return sum, err
	}

	if err := s.programRepo.MarkGenerated(ctx, programID, s.clock.Now()); err != nil {
		// Days are stored; the generator guard still finds them next time.
		s.log.Error("Failed to mark program as generated", "programId", programID.Hex(), "runId", sum.RunID, "error", err)
	}
	return sum, nil
}

func (s *planService) ListDays(ctx context.Context, userID, programID primitive.ObjectID, week int) ([]domain.ProgramDay, error) {
	if week < 0 || week > domain.ProgramWeeks {
		return nil, fmt.Errorf("%w: must be between 1 and %d", ErrInvalidWeek, domain.ProgramWeeks)
	}
	if _, err := s.GetProgram(ctx, userID, programID); err != nil {
		return nil, err
	}
	return s.dayRepo.ListByProgram(ctx, programID, week)
}

func (s *planService) ListDayExercises(ctx context.Context, userID, dayID primitive.ObjectID) ([]domain.ProgramExercise, error) {
	day, err := s.dayRepo.GetByID(ctx, dayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	if _, err := s.GetProgram(ctx, userID, day.ProgramID); err != nil {
		return nil, err
	}
	return s.exerciseRepo.ListByDay(ctx, dayID)
}

// ExportPlan writes the whole plan as one JSON document to object storage and
// returns a presigned download URL for it.
func (s *planService) ExportPlan(ctx context.Context, userID, programID primitive.ObjectID) (res *ExportResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.ExportPlan")
	defer func() { tracing.End(span, err) }()

	program, err := s.GetProgram(ctx, userID, programID)
	if err != nil {
		return nil, err
	}
	days, err := s.dayRepo.ListByProgram(ctx, programID, 0)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, ErrNotGenerated
	}
	exercises, err := s.exerciseRepo.ListByProgram(ctx, programID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	export := buildExport(*program, days, exercises, now)
	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	objectKey := path.Join("exports", userID.Hex(), programID.Hex(), uuid.NewString()+".json")
	if err := s.fileStorage.PutObject(ctx, objectKey, "application/json", body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.urlExpiry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	expiry := s.urlExpiry
	if expiry <= 0 {
		expiry = storage.DefaultPresignedURLExpiry
	}
	s.log.Info("Plan exported", "programId", programID.Hex(), "key", objectKey, "bytes", len(body))
	return &ExportResult{
		ObjectKey:   objectKey,
		DownloadURL: url,
		ExpiresAt:   now.Add(expiry),
		Days:        len(days),
		Exercises:   len(exercises),
	}, nil
}

// buildExport groups exercises under their days and days under their weeks.
// days must be sorted by week and order index.
func buildExport(program domain.Program, days []domain.ProgramDay, exercises []domain.ProgramExercise, now time.Time) PlanExport {
	byDay := make(map[primitive.ObjectID][]domain.ProgramExercise, len(days))
	for _, ex := range exercises {
		byDay[ex.ProgramDayID] = append(byDay[ex.ProgramDayID], ex)
	}

	export := PlanExport{Program: program, ExportedAt: now}
	for _, d := range days {
		if n := len(export.Weeks); n == 0 || export.Weeks[n-1].Week != d.Week {
			export.Weeks = append(export.Weeks, ExportWeek{Week: d.Week})
		}
		w := &export.Weeks[len(export.Weeks)-1]
		w.Days = append(w.Days, ExportDay{ProgramDay: d, Exercises: byDay[d.ID]})
	}
	return export
}
