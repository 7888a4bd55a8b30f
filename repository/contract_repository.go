package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrInvalidContract = errors.New("repository: invalid contract")

var _ CRUD[models.Contract, *models.Contract] = (*ContractRepository)(nil)

type ContractRepository struct {
	*Repository[models.Contract, *models.Contract]
}

func NewContractRepository(store *database.Store, opts ...Option) *ContractRepository {
	return &ContractRepository{New[models.Contract, *models.Contract](store, ContractsCollection, opts...)}
}

func (r *ContractRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "startDate", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	})
	return database.Wrap("create_indexes", ContractsCollection, err)
}

func (r *ContractRepository) Create(ctx context.Context, c *models.Contract) (bson.ObjectID, error) {
	if c.UserID.IsZero() {
		return bson.ObjectID{}, fmt.Errorf("%w: missing userId", ErrInvalidContract)
	}
	if c.StartDate.IsZero() {
		return bson.ObjectID{}, fmt.Errorf("%w: missing startDate", ErrInvalidContract)
	}
	if c.EndDate != nil && !c.EndDate.After(c.StartDate) {
		return bson.ObjectID{}, fmt.Errorf("%w: endDate must be after startDate", ErrInvalidContract)
	}
	if c.Status == "" {
		c.Status = models.ContractStatusActive
	}
	return r.Insert(ctx, c)
}

// FindByUser lists a user's contracts, newest first.
func (r *ContractRepository) FindByUser(ctx context.Context, userID bson.ObjectID) ([]models.Contract, error) {
	return r.Find(ctx, bson.M{"userId": userID}, options.Find().SetSort(bson.D{{Key: "startDate", Value: -1}}))
}

func activeAt(at time.Time) bson.M {
	return bson.M{
		"status":    models.ContractStatusActive,
		"startDate": bson.M{"$lte": at},
		"$or": bson.A{
			bson.M{"endDate": bson.M{"$exists": false}},
			bson.M{"endDate": nil},
			bson.M{"endDate": bson.M{"$gt": at}},
		},
	}
}

// ActiveUserIDs returns the users holding a contract in force at at.
func (r *ContractRepository) ActiveUserIDs(ctx context.Context, at time.Time) (ids []bson.ObjectID, err error) {
	defer r.observe("distinct", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	res := r.Collection().Distinct(ctx, "userId", activeAt(at.UTC()))
	if err := res.Err(); err != nil {
		return nil, database.Wrap("distinct", ContractsCollection, err)
	}
	ids = make([]bson.ObjectID, 0)
	if err := res.Decode(&ids); err != nil {
		return nil, database.Wrap("distinct", ContractsCollection, err)
	}
	return ids, nil
}

// Terminate closes an active contract at at. It reports false when the
// contract is missing or no longer active.
func (r *ContractRepository) Terminate(ctx context.Context, id string, at time.Time) (bool, error) {
	oid, err := ParseID(id)
	if err != nil {
		return false, err
	}
	end := at.UTC().Truncate(time.Millisecond)
	return r.UpdateWhere(ctx,
		bson.M{models.FieldID: oid, "status": models.ContractStatusActive},
		Set(bson.M{"status": models.ContractStatusTerminated, "endDate": end}),
	)
}
