package repository

import (
	"context"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ CRUD[models.Attendance, *models.Attendance] = (*AttendanceRepository)(nil)

type AttendanceRepository struct {
	*Repository[models.Attendance, *models.Attendance]
}

func NewAttendanceRepository(store *database.Store, opts ...Option) *AttendanceRepository {
	return &AttendanceRepository{New[models.Attendance, *models.Attendance](store, AttendanceCollection, opts...)}
}

// EnsureIndexes must run before CheckIn is relied on: the unique
// (userId, day) index is what rejects a second check-in.
func (r *AttendanceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return database.Wrap("create_indexes", AttendanceCollection, err)
}

// CheckIn opens the day's record. A second check-in the same day fails with
// a duplicate-key StorageError.
func (r *AttendanceRepository) CheckIn(ctx context.Context, userID bson.ObjectID, at time.Time, note string) (models.Attendance, error) {
	at = at.UTC().Truncate(time.Millisecond)
	a := models.Attendance{
		UserID:  userID,
		Day:     models.DayOf(at),
		CheckIn: at,
		Note:    note,
	}
	if _, err := r.Insert(ctx, &a); err != nil {
		return models.Attendance{}, err
	}
	return a, nil
}

// CheckOut closes the open record of at's day. It reports false when there
// is no check-in that day or it was already closed.
func (r *AttendanceRepository) CheckOut(ctx context.Context, userID bson.ObjectID, at time.Time) (bool, error) {
	at = at.UTC().Truncate(time.Millisecond)
	return r.UpdateWhere(ctx,
		bson.M{
			"userId":   userID,
			"day":      models.DayOf(at),
			"checkOut": bson.M{"$exists": false},
		},
		Set(bson.M{"checkOut": at}),
	)
}

// FindByUser lists records with from <= day < to, oldest first. A zero bound
// is open.
func (r *AttendanceRepository) FindByUser(ctx context.Context, userID bson.ObjectID, from, to time.Time) ([]models.Attendance, error) {
	filter := bson.M{"userId": userID}
	day := bson.M{}
	if !from.IsZero() {
		day["$gte"] = models.DayOf(from)
	}
	if !to.IsZero() {
		day["$lt"] = models.DayOf(to)
	}
	if len(day) > 0 {
		filter["day"] = day
	}
	return r.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "day", Value: 1}}))
}
