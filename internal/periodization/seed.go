// Package periodization holds the 12-week resistance-training template: the
// per-day exercise library, the deload transform and the week/day matrix.
// Everything here is pure and deterministic.
package periodization

import (
	"fmt"

	"alcyxob/trainplan/internal/domain"
)

var dayCycle = []domain.DayType{
	domain.DayUpperStrength,
	domain.DayLowerStrength,
	domain.DayUpperHypertrophy,
	domain.DayLowerHypertrophy,
}

var dayLabels = map[domain.DayType]string{
	domain.DayUpperStrength:    "Upper Strength",
	domain.DayLowerStrength:    "Lower Strength",
	domain.DayUpperHypertrophy: "Upper Hypertrophy",
	domain.DayLowerHypertrophy: "Lower Hypertrophy",
}

// DayTypes returns the weekly cycle in order.
func DayTypes() []domain.DayType {
	out := make([]domain.DayType, len(dayCycle))
	copy(out, dayCycle)
	return out
}

// DayLabel returns the human readable name of a day type.
func DayLabel(dt domain.DayType) string {
	label, ok := dayLabels[dt]
	if !ok {
		panic(fmt.Sprintf("periodization: unknown day type %q", dt))
	}
	return label
}

// ParseDayType validates an external day type value.
func ParseDayType(s string) (domain.DayType, error) {
	dt := domain.DayType(s)
	if _, ok := dayLabels[dt]; !ok {
		return "", fmt.Errorf("unknown day type %q", s)
	}
	return dt, nil
}

// ParseMovementVariant validates an external movement variant value.
func ParseMovementVariant(s string) (domain.MovementVariant, error) {
	switch v := domain.MovementVariant(s); v {
	case domain.VariantPrimaryHinge, domain.VariantPausedHinge:
		return v, nil
	default:
		return "", fmt.Errorf("unknown movement variant %q", s)
	}
}

func ex(name string, cat domain.ExerciseCategory, sets, repMin, repMax, rir int, notes string, subs ...string) domain.ExerciseSpec {
	return domain.ExerciseSpec{
		Name:          name,
		Category:      cat,
		TargetSets:    sets,
		RepMin:        repMin,
		RepMax:        repMax,
		TargetRIR:     rir,
		Notes:         notes,
		Substitutions: subs,
	}
}

var upperStrength = []domain.ExerciseSpec{
	ex("Barbell Bench Press", domain.CategoryCompound, 4, 4, 6, 2, "Pause each rep briefly on the chest", "Dumbbell Bench Press", "Machine Chest Press"),
	ex("Weighted Pull-Up", domain.CategoryCompound, 4, 5, 7, 2, "", "Lat Pulldown", "Assisted Pull-Up"),
	ex("Standing Overhead Press", domain.CategoryCompound, 3, 5, 7, 2, "", "Seated Dumbbell Press"),
	ex("Chest-Supported Row", domain.CategoryCompound, 3, 6, 8, 2, "", "Seal Row", "Seated Cable Row"),
	ex("Close-Grip Bench Press", domain.CategoryAccessory, 3, 6, 8, 2, "", "Dips"),
	ex("Face Pull", domain.CategoryAccessory, 3, 12, 15, 1, "", "Reverse Pec Deck"),
	ex("Hanging Knee Raise", domain.CategoryCore, 3, 10, 15, 2, "", "Captain's Chair Knee Raise"),
}

var primaryHinge = ex("Conventional Deadlift", domain.CategoryCompound, 3, 3, 5, 2, "Reset each rep from the floor", "Trap Bar Deadlift")

var pausedHinge = ex("Paused Deadlift", domain.CategoryCompound, 3, 2, 4, 3, "2s pause just below the knee", "Paused Trap Bar Deadlift")

// hingeSlot is the position of the hinge movement in the lower-strength list.
const hingeSlot = 1

var lowerStrength = []domain.ExerciseSpec{
	ex("Back Squat", domain.CategoryCompound, 4, 4, 6, 2, "", "Safety Bar Squat", "Front Squat"),
	primaryHinge,
	ex("Bulgarian Split Squat", domain.CategoryCompound, 3, 6, 8, 2, "Reps per leg", "Reverse Lunge"),
	ex("Lying Leg Curl", domain.CategoryAccessory, 3, 8, 10, 1, "", "Nordic Curl", "Seated Leg Curl"),
	ex("Standing Calf Raise", domain.CategoryAccessory, 4, 8, 12, 1, "", "Leg Press Calf Raise"),
	ex("Ab Wheel Rollout", domain.CategoryCore, 3, 8, 12, 2, "", "Plank"),
}

var upperHypertrophy = []domain.ExerciseSpec{
	ex("Incline Dumbbell Press", domain.CategoryCompound, 3, 8, 12, 2, "", "Incline Machine Press"),
	ex("Lat Pulldown", domain.CategoryCompound, 3, 10, 12, 2, "", "Pull-Up"),
	ex("Seated Cable Row", domain.CategoryCompound, 3, 10, 12, 2, "", "Chest-Supported Row"),
	ex("Machine Shoulder Press", domain.CategoryCompound, 3, 10, 12, 2, "", "Seated Dumbbell Press"),
	ex("Cable Lateral Raise", domain.CategoryAccessory, 3, 12, 15, 1, "", "Dumbbell Lateral Raise"),
	ex("EZ-Bar Curl", domain.CategoryAccessory, 3, 10, 12, 1, "", "Dumbbell Curl"),
	ex("Overhead Triceps Extension", domain.CategoryAccessory, 3, 10, 12, 1, "", "Triceps Pushdown"),
	ex("Cable Crunch", domain.CategoryCore, 3, 12, 15, 2, ""),
}

var lowerHypertrophy = []domain.ExerciseSpec{
	ex("Hack Squat", domain.CategoryCompound, 3, 8, 12, 2, "", "Leg Press"),
	ex("Romanian Deadlift", domain.CategoryCompound, 3, 8, 10, 2, "", "Dumbbell Romanian Deadlift"),
	ex("Walking Lunge", domain.CategoryCompound, 3, 10, 12, 2, "Reps per leg", "Split Squat"),
	ex("Leg Extension", domain.CategoryAccessory, 3, 12, 15, 1, ""),
	ex("Seated Leg Curl", domain.CategoryAccessory, 3, 10, 12, 1, "", "Lying Leg Curl"),
	ex("Seated Calf Raise", domain.CategoryAccessory, 4, 12, 15, 1, ""),
	ex("Pallof Press", domain.CategoryCore, 3, 10, 12, 2, "Reps per side"),
}

// Seed returns the ordered exercise list of a day type. The variant only
// changes the hinge slot of the lower-strength day. The returned slice and
// its substitution lists are fresh copies. An unknown day type panics.
func Seed(dayType domain.DayType, variant domain.MovementVariant) []domain.ExerciseSpec {
	var base []domain.ExerciseSpec
	switch dayType {
	case domain.DayUpperStrength:
		base = upperStrength
	case domain.DayLowerStrength:
		base = lowerStrength
	case domain.DayUpperHypertrophy:
		base = upperHypertrophy
	case domain.DayLowerHypertrophy:
		base = lowerHypertrophy
	default:
		panic(fmt.Sprintf("periodization: unknown day type %q", dayType))
	}

	out := make([]domain.ExerciseSpec, len(base))
	for i, spec := range base {
		out[i] = clone(spec)
	}
	if dayType == domain.DayLowerStrength && variant == domain.VariantPausedHinge {
		out[hingeSlot] = clone(pausedHinge)
	}
	return out
}

func clone(spec domain.ExerciseSpec) domain.ExerciseSpec {
	if spec.Substitutions != nil {
		subs := make([]string, len(spec.Substitutions))
		copy(subs, spec.Substitutions)
		spec.Substitutions = subs
	}
	return spec
}
