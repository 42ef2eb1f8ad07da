// Package memstore is an in-process store.DocumentStore. Documents are kept
// in their bson encoding, so filters and sorting see the same values a MongoDB
// server would.
package memstore

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ store.DocumentStore = (*Store)(nil)

// Op names a store call for hooks.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpList   Op = "list"
)

// Hook runs before every call. A non-nil error is returned to the caller
// instead of performing the call.
type Hook func(ctx context.Context, op Op, collection string) error

type Option func(*Store)

// WithHook installs a fault/instrumentation hook.
func WithHook(h Hook) Option {
	return func(s *Store) { s.hook = h }
}

// WithUniqueIndex rejects creates that duplicate the given fields of an
// existing document in collection, like a unique MongoDB index.
func WithUniqueIndex(collection string, fields ...string) Option {
	return func(s *Store) {
		s.uniques[collection] = append(s.uniques[collection], fields)
	}
}

type collection struct {
	ids  []primitive.ObjectID
	docs map[primitive.ObjectID]bson.Raw
}

type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	uniques     map[string][][]string
	hook        Hook
}

func New(opts ...Option) *Store {
	s := &Store{
		collections: make(map[string]*collection),
		uniques:     make(map[string][][]string),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, coll string, id primitive.ObjectID, payload any) (primitive.ObjectID, error) {
	if err := s.before(ctx, OpCreate, coll); err != nil {
		return primitive.NilObjectID, err
	}
	if id.IsZero() {
		id = primitive.NewObjectID()
	}
	doc, err := store.EncodeDocument(string(OpCreate), coll, id, payload)
	if err != nil {
		return primitive.NilObjectID, err
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return primitive.NilObjectID, store.NewError(store.KindRejected, string(OpCreate), coll, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(coll)
	if _, exists := c.docs[id]; exists {
		return primitive.NilObjectID, store.NewError(store.KindConflict, string(OpCreate), coll, fmt.Errorf("duplicate _id %s", id.Hex()))
	}
	for _, fields := range s.uniques[coll] {
		if dup := c.findDuplicate(raw, fields); dup {
			return primitive.NilObjectID, store.NewError(store.KindConflict, string(OpCreate), coll, fmt.Errorf("duplicate key on %v", fields))
		}
	}
	c.ids = append(c.ids, id)
	c.docs[id] = raw
	return id, nil
}

func (s *Store) Update(ctx context.Context, coll string, id primitive.ObjectID, payload any) error {
	if err := s.before(ctx, OpUpdate, coll); err != nil {
		return err
	}
	set, err := store.EncodeDocument(string(OpUpdate), coll, primitive.NilObjectID, payload)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.collection(coll)
	current, ok := c.docs[id]
	if !ok {
		return store.NewError(store.KindNotFound, string(OpUpdate), coll, fmt.Errorf("no document %s", id.Hex()))
	}
	var merged bson.D
	if err := bson.Unmarshal(current, &merged); err != nil {
		return store.NewError(store.KindRejected, string(OpUpdate), coll, err)
	}
	for _, e := range set {
		replaced := false
		for i := range merged {
			if merged[i].Key == e.Key {
				merged[i].Value = e.Value
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, e)
		}
	}
	raw, err := bson.Marshal(merged)
	if err != nil {
		return store.NewError(store.KindRejected, string(OpUpdate), coll, err)
	}
	c.docs[id] = raw
	return nil
}

func (s *Store) List(ctx context.Context, coll string, q store.Query) ([]store.Document, error) {
	if err := s.before(ctx, OpList, coll); err != nil {
		return nil, err
	}
	filters := make([]bson.RawValue, len(q.Filters))
	for i, f := range q.Filters {
		t, data, err := bson.MarshalValue(f.Value)
		if err != nil {
			return nil, store.NewError(store.KindRejected, string(OpList), coll, err)
		}
		filters[i] = bson.RawValue{Type: t, Value: data}
	}

	s.mu.RLock()
	var out []store.Document
	if c, ok := s.collections[coll]; ok {
		for _, id := range c.ids {
			raw := c.docs[id]
			if matches(raw, q.Filters, filters) {
				out = append(out, store.Document{ID: id, Raw: raw})
			}
		}
	}
	s.mu.RUnlock()

	if len(q.Order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Order {
				c := compare(out[i].Raw.Lookup(o.Field), out[j].Raw.Lookup(o.Field))
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.Limit > 0 && int64(len(out)) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(coll string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.collections[coll]; ok {
		return len(c.ids)
	}
	return 0
}

func (s *Store) before(ctx context.Context, op Op, coll string) error {
	if err := ctx.Err(); err != nil {
		return store.NewError(store.KindUnavailable, string(op), coll, err)
	}
	if s.hook != nil {
		return s.hook(ctx, op, coll)
	}
	return nil
}

// collection must be called with s.mu held for writing.
func (s *Store) collection(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[primitive.ObjectID]bson.Raw)}
		s.collections[name] = c
	}
	return c
}

func (c *collection) findDuplicate(raw bson.Raw, fields []string) bool {
	for _, id := range c.ids {
		existing := c.docs[id]
		same := true
		for _, f := range fields {
			a, errA := raw.LookupErr(f)
			b, errB := existing.LookupErr(f)
			if errA != nil || errB != nil || compare(a, b) != 0 {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func matches(raw bson.Raw, filters []store.Filter, values []bson.RawValue) bool {
	for i, f := range filters {
		v, err := raw.LookupErr(f.Field)
		if err != nil {
			return false
		}
		if compare(v, values[i]) != 0 {
			return false
		}
	}
	return true
}

// compare orders two bson values. Numbers compare by value across int32,
// int64 and double; other types compare within their own type only.
func compare(a, b bson.RawValue) int {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			default:
				return 0
			}
		}
	}
	if a.Type != b.Type {
		return int(a.Type) - int(b.Type)
	}
	switch a.Type {
	case bsontype.String:
		sa, sb := a.StringValue(), b.StringValue()
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		}
		return 0
	case bsontype.DateTime:
		da, db := a.DateTime(), b.DateTime()
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	default:
		return bytes.Compare(a.Value, b.Value)
	}
}

func number(v bson.RawValue) (float64, bool) {
	switch v.Type {
	case bsontype.Int32:
		return float64(v.Int32()), true
	case bsontype.Int64:
		return float64(v.Int64()), true
	case bsontype.Double:
		return v.Double(), true
	}
	return 0, false
}
