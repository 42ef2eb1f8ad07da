// internal/domain/program.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ProgramWeeks       = 12
	ProgramDaysPerWeek = 4
	DeloadWeek         = 6
)

// Program is the owner of a generated 12-week plan. It is produced by the
// onboarding flow; this service only creates the bare record and generates its days.
type Program struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Name        string             `bson:"name" json:"name"`                               // e.g., "Strength Block 1"
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"` // Optional start date
	Weeks       int                `bson:"weeks" json:"weeks"`
	DaysPerWeek int                `bson:"daysPerWeek" json:"daysPerWeek"`
	GeneratedAt *time.Time         `bson:"generatedAt,omitempty" json:"generatedAt,omitempty"` // Set once a generation run completes
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsGenerated reports whether a generation run has completed for the program.
func (p *Program) IsGenerated() bool {
	return p.GeneratedAt != nil
}
