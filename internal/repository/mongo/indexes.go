// internal/repository/mongo/indexes.go
package mongo

import (
	"context"
	"fmt"

	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Indexes returns the index models of every collection. The set log key index
// is unique: it backs the bulk writer's conflict resolution across processes.
func Indexes(cols store.Collections) map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		cols.Programs: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		cols.ProgramDays: {
			{Keys: bson.D{{Key: "programId", Value: 1}, {Key: "week", Value: 1}, {Key: "orderIndex", Value: 1}}},
		},
		cols.ProgramExercises: {
			{Keys: bson.D{{Key: "programDayId", Value: 1}, {Key: "orderIndex", Value: 1}}},
			{Keys: bson.D{{Key: "programId", Value: 1}}},
		},
		cols.Workouts: {
			{Keys: bson.D{{Key: "userId", Value: 1}}},
			{Keys: bson.D{{Key: "programDayId", Value: 1}}},
		},
		cols.SetLogs: {
			{
				Keys:    bson.D{{Key: "workoutId", Value: 1}, {Key: "exerciseId", Value: 1}, {Key: "setNumber", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
	}
}

// EnsureIndexes creates necessary indexes. Call during startup.
func EnsureIndexes(ctx context.Context, db *mongo.Database, cols store.Collections) error {
	for name, models := range Indexes(cols) {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes for %s: %w", name, err)
		}
	}
	return nil
}
