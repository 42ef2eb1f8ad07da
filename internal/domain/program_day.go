// internal/domain/program_day.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayType is one of the four training sessions of the weekly cycle.
type DayType string

const (
	DayUpperStrength    DayType = "upper-strength"
	DayLowerStrength    DayType = "lower-strength"
	DayUpperHypertrophy DayType = "upper-hypertrophy"
	DayLowerHypertrophy DayType = "lower-hypertrophy"
)

// MovementVariant selects the hinge movement of the lower-strength day.
type MovementVariant string

const (
	VariantPrimaryHinge MovementVariant = "primary-hinge"
	VariantPausedHinge  MovementVariant = "paused-hinge"
)

// ProgramDay is a single generated training day. Created once per
// (program, week, day type) and never updated afterwards.
type ProgramDay struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID       primitive.ObjectID `bson:"programId" json:"programId"`
	Week            int                `bson:"week" json:"week"` // 1..12
	Label           string             `bson:"label" json:"label"`
	DayType         DayType            `bson:"dayType" json:"dayType"`
	Deload          bool               `bson:"deload" json:"deload"`
	MovementVariant *MovementVariant   `bson:"movementVariant,omitempty" json:"movementVariant,omitempty"` // lower-strength only
	OrderIndex      int                `bson:"orderIndex" json:"orderIndex"`                               // 1..4 within the week
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
