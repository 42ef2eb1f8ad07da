package store

import (
	"errors"
	"fmt"
)

// Kind classifies store failures. It is set once, by the adapter that talked
// to the database.
type Kind int

const (
	KindUnavailable Kind = iota // transport failure
	KindRateLimited             // request quota exhausted, retryable
	KindRejected                // non-retryable application error
	KindConflict                // unique key violation
	KindNotFound                // no document with that id
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "unavailable"
	}
}

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrUnavailable = &Error{Kind: KindUnavailable}
	ErrRateLimited = &Error{Kind: KindRateLimited}
	ErrRejected    = &Error{Kind: KindRejected}
	ErrConflict    = &Error{Kind: KindConflict}
	ErrNotFound    = &Error{Kind: KindNotFound}
)

type Error struct {
	Kind       Kind
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := "store " + e.Kind.String()
	if e.Op != "" {
		msg = fmt.Sprintf("store %s %s: %s", e.Op, e.Collection, e.Kind)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func NewError(kind Kind, op, collection string, err error) *Error {
	return &Error{Kind: kind, Op: op, Collection: collection, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain. Errors that
// never went through an adapter count as unavailable.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnavailable
}

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
