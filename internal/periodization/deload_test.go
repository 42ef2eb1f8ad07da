package periodization_test

import (
	"testing"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/periodization"

	"github.com/stretchr/testify/assert"
)

func TestDeload_Invariant(t *testing.T) {
	for sets := 1; sets <= 10; sets++ {
		for rir := 0; rir <= 6; rir++ {
			in := domain.ExerciseSpec{Name: "Squat", TargetSets: sets, RepMin: 3, RepMax: 5, TargetRIR: rir}
			out := periodization.Deload(in)

			wantSets := (sets + 1) / 2
			assert.Equal(t, wantSets, out.TargetSets, "sets=%d", sets)
			assert.GreaterOrEqual(t, out.TargetSets, 1)
			assert.GreaterOrEqual(t, out.TargetRIR, max(4, rir))
			assert.Equal(t, in.RepMin, out.RepMin)
			assert.Equal(t, in.RepMax, out.RepMax)
		}
	}
}

func TestDeload_Notes(t *testing.T) {
	out := periodization.Deload(domain.ExerciseSpec{TargetSets: 3})
	assert.Equal(t, "(DELOAD)", out.Notes)

	out = periodization.Deload(domain.ExerciseSpec{TargetSets: 3, Notes: "Reps per leg"})
	assert.Equal(t, "Reps per leg (DELOAD)", out.Notes)
}

func TestDeload_DoesNotMutateInput(t *testing.T) {
	in := domain.ExerciseSpec{TargetSets: 4, TargetRIR: 1, Substitutions: []string{"Leg Press"}}
	out := periodization.Deload(in)
	out.Substitutions[0] = "changed"

	assert.Equal(t, 4, in.TargetSets)
	assert.Equal(t, 1, in.TargetRIR)
	assert.Empty(t, in.Notes)
	assert.Equal(t, "Leg Press", in.Substitutions[0])
}

func TestDeload_SingleSetStaysAtOne(t *testing.T) {
	out := periodization.Deload(domain.ExerciseSpec{TargetSets: 1, TargetRIR: 5})
	assert.Equal(t, 1, out.TargetSets)
	assert.Equal(t, 5, out.TargetRIR)
}
