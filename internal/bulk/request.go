package bulk

import (
	"errors"

	"alcyxob/trainplan/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"
)

// ErrNotDispatched marks requests that never reached a worker because the run
// was stopped or cancelled first.
var ErrNotDispatched = errors.New("request not dispatched")

type Op string

const (
	OpCreate Op = "create"
	OpUpsert Op = "upsert"
)

// Request is one unit of work. Without a key it creates a fresh document;
// with a key it upserts the single document matching that key. For upserts
// the payload must carry the key fields.
type Request struct {
	Collection string
	Key        store.CompositeKey
	Payload    any
	Label      string // free text used in logs and progress messages
}

// Create builds a fresh-identifier create request.
func Create(collection string, payload any) Request {
	return Request{Collection: collection, Payload: payload}
}

// Upsert builds a keyed upsert request.
func Upsert(collection string, key store.CompositeKey, payload any) Request {
	return Request{Collection: collection, Key: key, Payload: payload}
}

func (r Request) Op() Op {
	if len(r.Key) > 0 {
		return OpUpsert
	}
	return OpCreate
}

// Result is the outcome of one request, at the request's index in the batch.
type Result struct {
	Index      int
	ID         primitive.ObjectID
	Updated    bool // upsert hit an existing document
	Attempts   int
	Dispatched bool
	Err        error
}

func (r Result) Retries() int {
	if r.Attempts > 1 {
		return r.Attempts - 1
	}
	return 0
}

type Results []Result

// Err combines the errors of every dispatched request that failed. When only
// undispatched requests carry errors (the run was cancelled) the first of
// those is returned.
func (rs Results) Err() error {
	var err, skipped error
	for _, r := range rs {
		if r.Err == nil {
			continue
		}
		if r.Dispatched {
			err = multierr.Append(err, r.Err)
		} else if skipped == nil {
			skipped = r.Err
		}
	}
	if err != nil {
		return err
	}
	return skipped
}

func (rs Results) Retries() int {
	n := 0
	for _, r := range rs {
		n += r.Retries()
	}
	return n
}

func (rs Results) Succeeded() int {
	n := 0
	for _, r := range rs {
		if r.Dispatched && r.Err == nil {
			n++
		}
	}
	return n
}
