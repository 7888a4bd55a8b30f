package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

type Kind int

const (
	KindOther Kind = iota
	KindDuplicateKey
	KindTimeout
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindDuplicateKey:
		return "duplicate_key"
	case KindTimeout:
		return "timeout"
	case KindUnavailable:
		return "unavailable"
	default:
		return "other"
	}
}

// StorageError is the single failure type surfaced by the store, the
// repositories and the sequence generator.
type StorageError struct {
	Op         string
	Collection string
	Kind       Kind
	Err        error
}

func (e *StorageError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("storage %s on %s (%s): %v", e.Op, e.Collection, e.Kind, e.Err)
	}
	return fmt.Sprintf("storage %s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Transient reports whether retrying the same call may succeed.
func (e *StorageError) Transient() bool {
	return e.Kind == KindTimeout || e.Kind == KindUnavailable
}

// Wrap classifies a driver error. nil stays nil and an existing
// StorageError is returned unchanged.
func Wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se
	}
	if errors.Is(err, mongo.ErrClientDisconnected) && !errors.Is(err, ErrClosed) {
		err = fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return &StorageError{Op: op, Collection: collection, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	switch {
	case IsDuplicateKey(err):
		return KindDuplicateKey
	case IsServerSelection(err), errors.Is(err, ErrClosed):
		return KindUnavailable
	case mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		return KindUnavailable
	default:
		return KindOther
	}
}

// IsServerSelection reports whether err is the driver failing to find a
// usable server. No command reached the server in that case.
func IsServerSelection(err error) bool {
	return err != nil && strings.Contains(err.Error(), "server selection error")
}

// IsKind reports whether err is a StorageError of kind k.
func IsKind(err error, k Kind) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Kind == k
}

func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind == KindDuplicateKey
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}

	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, e := range bwe.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 {
				return true
			}
		}
	}

	return strings.Contains(err.Error(), "E11000 duplicate key error")
}
