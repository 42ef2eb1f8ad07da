package periodization

import "alcyxob/trainplan/internal/domain"

const (
	deloadMarker = "(DELOAD)"
	deloadMinRIR = 4
)

// Deload returns the reduced-intensity version of spec: half the sets rounded
// up (at least one), RIR raised to at least 4 and a deload marker in the notes.
func Deload(spec domain.ExerciseSpec) domain.ExerciseSpec {
	out := clone(spec)

	out.TargetSets = (spec.TargetSets + 1) / 2
	if out.TargetSets < 1 {
		out.TargetSets = 1
	}
	if out.TargetRIR < deloadMinRIR {
		out.TargetRIR = deloadMinRIR
	}
	if out.Notes == "" {
		out.Notes = deloadMarker
	} else {
		out.Notes += " " + deloadMarker
	}
	return out
}
