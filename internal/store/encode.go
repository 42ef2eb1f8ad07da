package store

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EncodeDocument marshals payload through its bson tags and puts id (when set)
// in front as _id. Any _id carried by the payload itself is dropped.
func EncodeDocument(op, collection string, id primitive.ObjectID, payload any) (bson.D, error) {
	raw, err := bson.Marshal(payload)
	if err != nil {
		return nil, NewError(KindRejected, op, collection, err)
	}
	var fields bson.D
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return nil, NewError(KindRejected, op, collection, err)
	}

	out := make(bson.D, 0, len(fields)+1)
	if !id.IsZero() {
		out = append(out, bson.E{Key: "_id", Value: id})
	}
	for _, f := range fields {
		if f.Key == "_id" {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}
