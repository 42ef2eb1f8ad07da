// Package store defines the document store collaborator the generator and the
// bulk writer are written against, together with its error taxonomy.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DocumentStore is the remote document database.
type DocumentStore interface {
	// Create inserts payload. A nil id asks the store to assign one.
	Create(ctx context.Context, collection string, id primitive.ObjectID, payload any) (primitive.ObjectID, error)
	// Update sets every field of payload on the document with the given id.
	Update(ctx context.Context, collection string, id primitive.ObjectID, payload any) error
	// List returns documents matching every filter, sorted and limited as requested.
	List(ctx context.Context, collection string, q Query) ([]Document, error)
}

// Filter is an equality match on a single field.
type Filter struct {
	Field string
	Value any
}

// Order sorts by a field, ascending unless Desc is set.
type Order struct {
	Field string
	Desc  bool
}

type Query struct {
	Filters []Filter
	Order   []Order
	Limit   int64 // 0 means no limit
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Document is a stored record in its raw bson form.
type Document struct {
	ID  primitive.ObjectID
	Raw bson.Raw
}

// Decode unmarshals the document into v using its bson tags.
func (d Document) Decode(v any) error {
	return bson.Unmarshal(d.Raw, v)
}

// Collections names the collections used by the service.
type Collections struct {
	Programs         string `mapstructure:"programs"`
	ProgramDays      string `mapstructure:"program_days"`
	ProgramExercises string `mapstructure:"program_exercises"`
	Workouts         string `mapstructure:"workouts"`
	SetLogs          string `mapstructure:"set_logs"`
}

func DefaultCollections() Collections {
	return Collections{
		Programs:         "programs",
		ProgramDays:      "program_days",
		ProgramExercises: "program_exercises",
		Workouts:         "workouts",
		SetLogs:          "set_logs",
	}
}
