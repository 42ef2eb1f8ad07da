package docrepo

import (
	"context"
	"errors"
	"time"

	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type programRepository struct {
	store      store.DocumentStore
	collection string
}

func NewProgramRepository(st store.DocumentStore, collection string) repository.ProgramRepository {
	return &programRepository{store: st, collection: collection}
}

// Create inserts a new program. CreatedAt/UpdatedAt are expected to be set by the service.
func (r *programRepository) Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error) {
	if program.UserID.IsZero() || program.Name == "" {
		return primitive.NilObjectID, errors.New("program requires userId and name")
	}
	id, err := r.store.Create(ctx, r.collection, primitive.NewObjectID(), program)
	if err != nil {
		return primitive.NilObjectID, err
	}
	program.ID = id
	return id, nil
}

func (r *programRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error) {
	return getByID[domain.Program](ctx, r.store, r.collection, id)
}

// GetByUserID returns the user's programs, newest first.
func (r *programRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Program, error) {
	return list[domain.Program](ctx, r.store, r.collection, store.Query{
		Filters: []store.Filter{store.Eq("userId", userID)},
		Order:   []store.Order{{Field: "createdAt", Desc: true}},
	})
}

func (r *programRepository) MarkGenerated(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return update(ctx, r.store, r.collection, id, bson.D{
		{Key: "generatedAt", Value: at},
		{Key: "updatedAt", Value: at},
	})
}
