package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"go.mongodb.org/mongo-driver/bson"
)

// KeyPart is one typed component of a composite key.
type KeyPart struct {
	Field string
	Value any
}

// CompositeKey identifies at most one document by several typed fields, e.g.
// workout + exercise + set number.
type CompositeKey []KeyPart

func Key(parts ...KeyPart) CompositeKey {
	return CompositeKey(parts)
}

func Part(field string, value any) KeyPart {
	return KeyPart{Field: field, Value: value}
}

// Filters turns the key into equality filters on its fields.
func (k CompositeKey) Filters() []Filter {
	out := make([]Filter, len(k))
	for i, p := range k {
		out[i] = Filter{Field: p.Field, Value: p.Value}
	}
	return out
}

// Digest hashes the bson encoding of every part. Field names and values are
// length-prefixed, so distinct keys never share a digest through concatenation.
func (k CompositeKey) Digest() (string, error) {
	h := sha256.New()
	for _, p := range k {
		writeChunk(h, []byte(p.Field))
		t, data, err := bson.MarshalValue(p.Value)
		if err != nil {
			return "", NewError(KindRejected, "key", p.Field, err)
		}
		h.Write([]byte{byte(t)})
		writeChunk(h, data)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeChunk(h hash.Hash, b []byte) {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(b)))
	h.Write(n[:])
	h.Write(b)
}
