package service

import "errors"

// --- Error Definitions ---
var (
	ErrProgramNotFound  = errors.New("program not found")
	ErrDayNotFound      = errors.New("program day not found")
	ErrWorkoutNotFound  = errors.New("workout not found")
	ErrAccessDenied     = errors.New("resource belongs to another user")
	ErrNotGenerated     = errors.New("program has no generated days yet")
	ErrInvalidSetLog    = errors.New("invalid set log")
	ErrExerciseNotInDay = errors.New("exercise is not part of the workout's day")
	ErrWorkoutFinished  = errors.New("workout is already completed")
	ErrExportFailed     = errors.New("failed to export plan")
	ErrInvalidWeek      = errors.New("invalid week")
)
