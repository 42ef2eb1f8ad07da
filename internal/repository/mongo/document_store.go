// internal/repository/mongo/document_store.go
package mongo

import (
	"context"
	"errors"

	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Server codes answered when the request quota is exhausted. 16500 is what
// the MongoDB API of Cosmos DB returns for TooManyRequests.
var throttleCodes = []int{16500, 429}

var _ store.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements store.DocumentStore on a MongoDB database.
type DocumentStore struct {
	db *mongo.Database
}

func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{db: db}
}

// Create inserts payload. A nil id lets the driver assign one.
func (s *DocumentStore) Create(ctx context.Context, collection string, id primitive.ObjectID, payload any) (primitive.ObjectID, error) {
	doc, err := store.EncodeDocument("create", collection, id, payload)
	if err != nil {
		return primitive.NilObjectID, err
	}
	result, err := s.db.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, mapError("create", collection, err)
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, store.NewError(store.KindRejected, "create", collection, errors.New("inserted id is not an ObjectID"))
	}
	return insertedID, nil
}

func (s *DocumentStore) Update(ctx context.Context, collection string, id primitive.ObjectID, payload any) error {
	set, err := store.EncodeDocument("update", collection, primitive.NilObjectID, payload)
	if err != nil {
		return err
	}
	result, err := s.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return mapError("update", collection, err)
	}
	if result.MatchedCount == 0 {
		return store.NewError(store.KindNotFound, "update", collection, mongo.ErrNoDocuments)
	}
	return nil
}

func (s *DocumentStore) List(ctx context.Context, collection string, q store.Query) ([]store.Document, error) {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}
	findOptions := options.Find()
	if len(q.Order) > 0 {
		sort := bson.D{}
		for _, o := range q.Order {
			dir := 1
			if o.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: o.Field, Value: dir})
		}
		findOptions.SetSort(sort)
	}
	if q.Limit > 0 {
		findOptions.SetLimit(q.Limit)
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, mapError("list", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []store.Document
	for cursor.Next(ctx) {
		raw := make(bson.Raw, len(cursor.Current))
		copy(raw, cursor.Current)
		id, ok := raw.Lookup("_id").ObjectIDOK()
		if !ok {
			return nil, store.NewError(store.KindRejected, "list", collection, errors.New("document _id is not an ObjectID"))
		}
		docs = append(docs, store.Document{ID: id, Raw: raw})
	}
	if err := cursor.Err(); err != nil {
		return nil, mapError("list", collection, err)
	}
	return docs, nil
}

// mapError classifies a driver error once, at the adapter boundary.
func mapError(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	kind := store.KindUnavailable
	var serverErr mongo.ServerError
	switch {
	case mongo.IsDuplicateKeyError(err):
		kind = store.KindConflict
	case errors.As(err, &serverErr) && isThrottled(serverErr):
		kind = store.KindRateLimited
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, mongo.ErrClientDisconnected):
		kind = store.KindUnavailable
	case errors.As(err, &serverErr):
		kind = store.KindRejected
	}
	return store.NewError(kind, op, collection, err)
}

func isThrottled(err mongo.ServerError) bool {
	for _, code := range throttleCodes {
		if err.HasErrorCode(code) {
			return true
		}
	}
	return false
}
