package periodization_test

import (
	"encoding/json"
	"testing"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/periodization"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_Deterministic(t *testing.T) {
	for _, dt := range periodization.DayTypes() {
		for _, v := range []domain.MovementVariant{domain.VariantPrimaryHinge, domain.VariantPausedHinge} {
			first, err := json.Marshal(periodization.Seed(dt, v))
			require.NoError(t, err)
			second, err := json.Marshal(periodization.Seed(dt, v))
			require.NoError(t, err)
			assert.Equal(t, first, second, "day type %s variant %s", dt, v)
		}
	}
}

func TestSeed_ListSizesAndValidity(t *testing.T) {
	for _, dt := range periodization.DayTypes() {
		specs := periodization.Seed(dt, domain.VariantPrimaryHinge)
		assert.GreaterOrEqual(t, len(specs), 6, dt)
		assert.LessOrEqual(t, len(specs), 8, dt)

		for _, s := range specs {
			assert.NotEmpty(t, s.Name)
			assert.Positive(t, s.TargetSets, s.Name)
			assert.Positive(t, s.RepMin, s.Name)
			assert.LessOrEqual(t, s.RepMin, s.RepMax, s.Name)
			assert.GreaterOrEqual(t, s.TargetRIR, 0, s.Name)
			assert.Contains(t, []domain.ExerciseCategory{
				domain.CategoryCompound, domain.CategoryAccessory, domain.CategoryCore,
			}, s.Category)
		}
	}
}

func TestSeed_VariantOnlyAffectsLowerStrengthHinge(t *testing.T) {
	primary := periodization.Seed(domain.DayLowerStrength, domain.VariantPrimaryHinge)
	paused := periodization.Seed(domain.DayLowerStrength, domain.VariantPausedHinge)
	require.Len(t, paused, len(primary))

	var diffs []int
	for i := range primary {
		if primary[i].Name != paused[i].Name {
			diffs = append(diffs, i)
		}
	}
	require.Len(t, diffs, 1)
	assert.Equal(t, "Conventional Deadlift", primary[diffs[0]].Name)
	assert.Equal(t, "Paused Deadlift", paused[diffs[0]].Name)
	assert.NotEqual(t, primary[diffs[0]].RepMax, paused[diffs[0]].RepMax)

	for _, dt := range []domain.DayType{domain.DayUpperStrength, domain.DayUpperHypertrophy, domain.DayLowerHypertrophy} {
		assert.Equal(t,
			periodization.Seed(dt, domain.VariantPrimaryHinge),
			periodization.Seed(dt, domain.VariantPausedHinge),
			dt,
		)
	}
}

func TestSeed_ReturnsIndependentCopies(t *testing.T) {
	specs := periodization.Seed(domain.DayUpperStrength, domain.VariantPrimaryHinge)
	specs[0].Name = "changed"
	specs[0].Substitutions[0] = "changed"

	fresh := periodization.Seed(domain.DayUpperStrength, domain.VariantPrimaryHinge)
	assert.Equal(t, "Barbell Bench Press", fresh[0].Name)
	assert.Equal(t, "Dumbbell Bench Press", fresh[0].Substitutions[0])
}

func TestSeed_UnknownDayTypePanics(t *testing.T) {
	assert.Panics(t, func() {
		periodization.Seed(domain.DayType("full-body"), domain.VariantPrimaryHinge)
	})
}

func TestParseDayTypeAndVariant(t *testing.T) {
	dt, err := periodization.ParseDayType("lower-hypertrophy")
	require.NoError(t, err)
	assert.Equal(t, domain.DayLowerHypertrophy, dt)

	_, err = periodization.ParseDayType("cardio")
	require.Error(t, err)

	v, err := periodization.ParseMovementVariant("paused-hinge")
	require.NoError(t, err)
	assert.Equal(t, domain.VariantPausedHinge, v)

	_, err = periodization.ParseMovementVariant("sumo")
	require.Error(t, err)
}
