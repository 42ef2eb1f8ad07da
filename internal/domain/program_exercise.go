// internal/domain/program_exercise.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ExerciseCategory string

const (
	CategoryCompound  ExerciseCategory = "compound"
	CategoryAccessory ExerciseCategory = "accessory"
	CategoryCore      ExerciseCategory = "core"
)

// ExerciseSpec is the prescription for one exercise slot of a day.
type ExerciseSpec struct {
	Name          string           `bson:"name" json:"name"`
	Category      ExerciseCategory `bson:"category" json:"category"`
	TargetSets    int              `bson:"targetSets" json:"targetSets"`
	RepMin        int              `bson:"repMin" json:"repMin"`
	RepMax        int              `bson:"repMax" json:"repMax"`
	TargetRIR     int              `bson:"targetRir" json:"targetRir"`
	Notes         string           `bson:"notes,omitempty" json:"notes,omitempty"`
	Substitutions []string         `bson:"substitutions,omitempty" json:"substitutions,omitempty"`
}

// ProgramExercise is an ExerciseSpec persisted under a ProgramDay.
type ProgramExercise struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramDayID primitive.ObjectID `bson:"programDayId" json:"programDayId"` // Must exist before the exercise is created
	ProgramID    primitive.ObjectID `bson:"programId" json:"programId"`       // Denormalized for export queries
	ExerciseSpec `bson:",inline"`
	OrderIndex   int       `bson:"orderIndex" json:"orderIndex"` // 1..N within the day
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}
