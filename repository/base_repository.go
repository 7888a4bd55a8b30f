package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/metrics"
	"github.com/princinho/hrmbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Document is satisfied by any pointer to a struct embedding models.BaseEntity.
type Document interface {
	Base() *models.BaseEntity
}

type settings struct {
	now func() time.Time
}

type Option func(*settings)

// WithClock overrides the time source used for createdAt and history entries.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// Repository implements CRUD with an append-only modification history for
// one collection. Specialized repositories embed it.
type Repository[T any, P interface {
	*T
	Document
}] struct {
	store *database.Store
	col   *mongo.Collection
	name  string
	now   func() time.Time
}

func New[T any, P interface {
	*T
	Document
}](store *database.Store, collection string, opts ...Option) *Repository[T, P] {
	s := settings{now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}
	return &Repository[T, P]{
		store: store,
		col:   store.Collection(collection),
		name:  collection,
		now:   s.now,
	}
}

func (r *Repository[T, P]) Name() string { return r.name }

func (r *Repository[T, P]) Collection() *mongo.Collection { return r.col }

// timestamp is truncated to the millisecond precision the store keeps.
func (r *Repository[T, P]) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Millisecond)
}

func (r *Repository[T, P]) FindAll(ctx context.Context) ([]T, error) {
	return r.Find(ctx, bson.M{})
}

func (r *Repository[T, P]) Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (items []T, err error) {
	defer r.observe("find", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, database.Wrap("find", r.name, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	items = make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, database.Wrap("find", r.name, err)
	}
	return items, nil
}

// FindOne returns the first match. found is false on a miss.
func (r *Repository[T, P]) FindOne(ctx context.Context, filter any) (doc T, found bool, err error) {
	defer r.observe("find_one", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	err = r.col.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, database.Wrap("find_one", r.name, err)
	}
	return doc, true, nil
}

func (r *Repository[T, P]) FindByID(ctx context.Context, id string) (T, bool, error) {
	oid, err := ParseID(id)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return r.FindOne(ctx, bson.M{models.FieldID: oid})
}

func (r *Repository[T, P]) Count(ctx context.Context, filter any) (n int64, err error) {
	defer r.observe("count", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	n, err = r.col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, database.Wrap("count", r.name, err)
	}
	return n, nil
}

// Insert stamps createdAt, seeds modifyHistory with it and assigns an id
// when doc has none.
func (r *Repository[T, P]) Insert(ctx context.Context, doc P) (id bson.ObjectID, err error) {
	defer r.observe("insert", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	base := doc.Base()
	if base.ID.IsZero() {
		base.ID = bson.NewObjectID()
	}
	now := r.timestamp()
	base.CreatedAt = now
	base.ModifyHistory = []time.Time{now}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return bson.ObjectID{}, database.Wrap("insert", r.name, err)
	}
	return base.ID, nil
}

// Update applies update to the document with the given id and appends the
// current time to its history in the same single-document write. It returns
// false when no document has that id.
func (r *Repository[T, P]) Update(ctx context.Context, id string, update bson.M) (bool, error) {
	oid, err := ParseID(id)
	if err != nil {
		return false, err
	}
	return r.UpdateWhere(ctx, bson.M{models.FieldID: oid}, update)
}

// UpdateWhere is Update for the first document matching filter.
func (r *Repository[T, P]) UpdateWhere(ctx context.Context, filter bson.M, update bson.M) (ok bool, err error) {
	defer r.observe("update", time.Now(), &err)

	final, err := withHistory(update, r.timestamp())
	if err != nil {
		return false, err
	}

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, final)
	if err != nil {
		return false, database.Wrap("update", r.name, err)
	}
	return res.ModifiedCount == 1, nil
}

// UpdateMany applies update to every document matching filter. Each one gets
// its history entry in the same write that changes it.
func (r *Repository[T, P]) UpdateMany(ctx context.Context, filter bson.M, update bson.M) (n int64, err error) {
	defer r.observe("update_many", time.Now(), &err)

	final, err := withHistory(update, r.timestamp())
	if err != nil {
		return 0, err
	}

	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, filter, final)
	if err != nil {
		return 0, database.Wrap("update_many", r.name, err)
	}
	return res.ModifiedCount, nil
}

func (r *Repository[T, P]) Delete(ctx context.Context, id string) (ok bool, err error) {
	oid, err := ParseID(id)
	if err != nil {
		return false, err
	}

	defer r.observe("delete", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{models.FieldID: oid})
	if err != nil {
		return false, database.Wrap("delete", r.name, err)
	}
	return res.DeletedCount == 1, nil
}

func (r *Repository[T, P]) observe(op string, start time.Time, err *error) {
	metrics.ObserveStore(r.name, op, start, *err)
}

func ParseID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return bson.ObjectID{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return oid, nil
}

func ParseIDs(ids []string) ([]bson.ObjectID, error) {
	out := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := ParseID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, oid)
	}
	return out, nil
}

// Set is shorthand for a $set update.
func Set(fields bson.M) bson.M {
	return bson.M{"$set": fields}
}

// withHistory validates update and adds the history push. Entries are
// inserted with $sort so the array stays chronological even when clocks of
// concurrent writers disagree.
func withHistory(update bson.M, at time.Time) (bson.M, error) {
	out := make(bson.M, len(update)+1)
	for op, arg := range update {
		if !strings.HasPrefix(op, "$") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidUpdate, op)
		}
		fields, err := fieldsOf(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, op)
		}
		for field := range fields {
			if isProtected(field) {
				return nil, fmt.Errorf("%w: %q", ErrImmutableField, field)
			}
		}
		out[op] = fields
	}

	push, _ := out["$push"].(bson.M)
	if push == nil {
		push = bson.M{}
	}
	push[models.FieldModifyHistory] = bson.M{
		"$each": bson.A{at},
		"$sort": 1,
	}
	out["$push"] = push
	return out, nil
}

func fieldsOf(arg any) (bson.M, error) {
	switch v := arg.(type) {
	case bson.M:
		cp := make(bson.M, len(v))
		for k, val := range v {
			cp[k] = val
		}
		return cp, nil
	case bson.D:
		m := make(bson.M, len(v))
		for _, e := range v {
			m[e.Key] = e.Value
		}
		return m, nil
	default:
		return nil, fmt.Errorf("%w: operator value must be a document", ErrInvalidUpdate)
	}
}

func isProtected(field string) bool {
	root, _, _ := strings.Cut(field, ".")
	switch root {
	case models.FieldID, models.FieldCreatedAt, models.FieldModifyHistory:
		return true
	}
	return false
}
