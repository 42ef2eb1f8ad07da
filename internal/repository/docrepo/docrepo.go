// Package docrepo implements the repository interfaces on top of any
// store.DocumentStore, so the same repositories serve MongoDB and the
// in-memory store.
package docrepo

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/trainplan/internal/repository"
	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// list runs q against collection and decodes every document into T.
func list[T any](ctx context.Context, st store.DocumentStore, collection string, q store.Query) ([]T, error) {
	docs, err := st.List(ctx, collection, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", collection, d.ID.Hex(), err)
		}
		out = append(out, v)
	}
	return out, nil
}

func getByID[T any](ctx context.Context, st store.DocumentStore, collection string, id primitive.ObjectID) (*T, error) {
	items, err := list[T](ctx, st, collection, store.Query{
		Filters: []store.Filter{store.Eq("_id", id)},
		Limit:   1,
	})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrNotFound
	}
	return &items[0], nil
}

func update(ctx context.Context, st store.DocumentStore, collection string, id primitive.ObjectID, fields any) error {
	err := st.Update(ctx, collection, id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return repository.ErrNotFound
	}
	return err
}
