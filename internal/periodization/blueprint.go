package periodization

import (
	"fmt"

	"alcyxob/trainplan/internal/domain"
)

// PlannedDay is one cell of the week x day-type matrix with its final
// exercise list (deload already applied).
type PlannedDay struct {
	Week       int
	DayType    domain.DayType
	OrderIndex int
	Deload     bool
	Variant    *domain.MovementVariant
	Label      string
	Exercises  []domain.ExerciseSpec
}

// IsDeloadWeek reports whether week is the reduced-intensity week.
func IsDeloadWeek(week int) bool {
	return week == domain.DeloadWeek
}

// VariantForWeek selects the hinge variant by week parity.
func VariantForWeek(week int) domain.MovementVariant {
	if week%2 == 1 {
		return domain.VariantPrimaryHinge
	}
	return domain.VariantPausedHinge
}

// Blueprint expands the whole program: 12 weeks, each with the four day types
// in cycle order.
func Blueprint() []PlannedDay {
	days := make([]PlannedDay, 0, domain.ProgramWeeks*len(dayCycle))
	for week := 1; week <= domain.ProgramWeeks; week++ {
		deload := IsDeloadWeek(week)
		variant := VariantForWeek(week)

		for i, dt := range dayCycle {
			exercises := Seed(dt, variant)
			if deload {
				for j := range exercises {
					exercises[j] = Deload(exercises[j])
				}
			}

			day := PlannedDay{
				Week:       week,
				DayType:    dt,
				OrderIndex: i + 1,
				Deload:     deload,
				Label:      fmt.Sprintf("Week %d Day %d - %s", week, i+1, DayLabel(dt)),
				Exercises:  exercises,
			}
			if dt == domain.DayLowerStrength {
				v := variant
				day.Variant = &v
			}
			days = append(days, day)
		}
	}
	return days
}
