package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workout is a logged session of a ProgramDay.
type Workout struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID    primitive.ObjectID `bson:"programId" json:"programId"`       // Denormalized
	ProgramDayID primitive.ObjectID `bson:"programDayId" json:"programDayId"` // The day being trained
	StartedAt    time.Time          `bson:"startedAt" json:"startedAt"`
	CompletedAt  *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}
