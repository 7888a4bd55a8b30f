package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/sequence"
	"github.com/princinho/hrmbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	ErrInvalidUser = errors.New("repository: invalid user")

	// employeeId is assigned once from the sequence; userName is the login key.
	immutableUserFields = []string{"employeeId", "userName"}
)

var _ CRUD[models.User, *models.User] = (*UserRepository)(nil)

// UserRepository delegates to the generic repository and assigns the
// employee number from the sequence before every insert.
type UserRepository struct {
	base *Repository[models.User, *models.User]
	seq  Sequencer
}

func NewUserRepository(store *database.Store, seq Sequencer, opts ...Option) *UserRepository {
	return &UserRepository{
		base: New[models.User, *models.User](store, UsersCollection, opts...),
		seq:  seq,
	}
}

func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.base.Collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userName", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "employeeId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	})
	return database.Wrap("create_indexes", UsersCollection, err)
}

func NormalizeUserName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Create takes the next employee number first, then writes the user. A
// failed write leaves a gap in the numbering, never a duplicate.
func (r *UserRepository) Create(ctx context.Context, u *models.User) (bson.ObjectID, error) {
	u.UserName = NormalizeUserName(u.UserName)
	if u.UserName == "" {
		return bson.ObjectID{}, fmt.Errorf("%w: empty userName", ErrInvalidUser)
	}
	if u.PasswordHash == "" {
		return bson.ObjectID{}, fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	if u.Role == "" {
		u.Role = models.RoleEmployee
	}
	if !u.Role.Valid() {
		return bson.ObjectID{}, fmt.Errorf("%w: unknown role %q", ErrInvalidUser, u.Role)
	}
	u.FullNameCI = utils.FoldName(u.FullName)

	eid, err := r.seq.Next(ctx, sequence.EmployeeID)
	if err != nil {
		return bson.ObjectID{}, err
	}
	u.EmployeeID = eid
	return r.base.Insert(ctx, u)
}

func (r *UserRepository) Insert(ctx context.Context, u *models.User) (bson.ObjectID, error) {
	return r.Create(ctx, u)
}

func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	return r.base.FindAll(ctx)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (models.User, bool, error) {
	return r.base.FindByID(ctx, id)
}

func (r *UserRepository) FindByUserName(ctx context.Context, userName string) (models.User, bool, error) {
	return r.base.FindOne(ctx, bson.M{"userName": NormalizeUserName(userName)})
}

func (r *UserRepository) FindByEmployeeID(ctx context.Context, employeeID int64) (models.User, bool, error) {
	return r.base.FindOne(ctx, bson.M{"employeeId": employeeID})
}

// Update rejects changes to the employee number and login name and keeps
// the folded search name in step with fullName.
func (r *UserRepository) Update(ctx context.Context, id string, update bson.M) (bool, error) {
	update, err := r.prepareUpdate(update)
	if err != nil {
		return false, err
	}
	return r.base.Update(ctx, id, update)
}

func (r *UserRepository) SetPassword(ctx context.Context, id, hash string) (bool, error) {
	if hash == "" {
		return false, fmt.Errorf("%w: missing password hash", ErrInvalidUser)
	}
	return r.base.Update(ctx, id, Set(bson.M{"passwordHash": hash}))
}

func (r *UserRepository) Delete(ctx context.Context, id string) (bool, error) {
	return r.base.Delete(ctx, id)
}

func (r *UserRepository) prepareUpdate(update bson.M) (bson.M, error) {
	out := make(bson.M, len(update))
	for op, arg := range update {
		fields, err := fieldsOf(arg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, op)
		}
		for _, f := range immutableUserFields {
			if _, ok := fields[f]; ok {
				return nil, fmt.Errorf("%w: %q", ErrImmutableField, f)
			}
		}
		if role, ok := fields["role"]; ok && !models.Role(fmt.Sprint(role)).Valid() {
			return nil, fmt.Errorf("%w: unknown role %v", ErrInvalidUser, role)
		}
		if name, ok := fields["fullName"]; ok && op == "$set" {
			fields["fullNameCi"] = utils.FoldName(fmt.Sprint(name))
		}
		out[op] = fields
	}
	return out, nil
}

// UserFilter narrows Search. IncludeIDs nil means no restriction; a non-nil
// empty slice matches nothing.
type UserFilter struct {
	Name       string
	Role       models.Role
	ActiveOnly bool
	ExcludeIDs []bson.ObjectID
	IncludeIDs []bson.ObjectID
	Skip       int64
	Limit      int64
}

func (f UserFilter) document() bson.M {
	filter := bson.M{}
	if name := utils.FoldName(f.Name); name != "" {
		filter["fullNameCi"] = bson.M{"$regex": regexp.QuoteMeta(name)}
	}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}

	ids := bson.M{}
	if f.IncludeIDs != nil {
		ids["$in"] = f.IncludeIDs
	}
	if len(f.ExcludeIDs) > 0 {
		ids["$nin"] = f.ExcludeIDs
	}
	if len(ids) > 0 {
		filter[models.FieldID] = ids
	}
	return filter
}

func (r *UserRepository) Search(ctx context.Context, f UserFilter) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "employeeId", Value: 1}})
	if f.Skip > 0 {
		opts.SetSkip(f.Skip)
	}
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return r.base.Find(ctx, f.document(), opts)
}

func (r *UserRepository) Count(ctx context.Context, f UserFilter) (int64, error) {
	return r.base.Count(ctx, f.document())
}
