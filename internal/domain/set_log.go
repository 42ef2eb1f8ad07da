package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetLog records one performed set. There is at most one per
// (workoutId, exerciseId, setNumber); logging the same set again replaces it.
type SetLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	WorkoutID  primitive.ObjectID `bson:"workoutId" json:"workoutId"`
	ExerciseID primitive.ObjectID `bson:"exerciseId" json:"exerciseId"` // ProgramExercise
	UserID     primitive.ObjectID `bson:"userId" json:"userId"`
	SetNumber  int                `bson:"setNumber" json:"setNumber"`
	Reps       int                `bson:"reps" json:"reps"`
	WeightKg   float64            `bson:"weightKg" json:"weightKg"`
	RIR        *int               `bson:"rir,omitempty" json:"rir,omitempty"`
	Completed  bool               `bson:"completed" json:"completed"`
	LoggedAt   time.Time          `bson:"loggedAt" json:"loggedAt"`
}
