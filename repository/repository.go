package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Collection names.
const (
	UsersCollection      = "users"
	TeamsCollection      = "teams"
	ContractsCollection  = "contracts"
	AttendanceCollection = "attendance"
)

// CRUD is the contract every entity repository offers to feature code.
type CRUD[T any, P interface {
	*T
	Document
}] interface {
	FindAll(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id string) (T, bool, error)
	Insert(ctx context.Context, doc P) (bson.ObjectID, error)
	Update(ctx context.Context, id string, update bson.M) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Sequencer issues human-facing numeric ids.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
}

func dedupe(ids []bson.ObjectID) []bson.ObjectID {
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
