package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/utils"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var ErrInvalidTeam = errors.New("repository: invalid team")

var _ CRUD[models.Team, *models.Team] = (*TeamRepository)(nil)

type TeamRepository struct {
	*Repository[models.Team, *models.Team]
}

func NewTeamRepository(store *database.Store, opts ...Option) *TeamRepository {
	return &TeamRepository{New[models.Team, *models.Team](store, TeamsCollection, opts...)}
}

func (r *TeamRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "membersId", Value: 1}}},
	})
	return database.Wrap("create_indexes", TeamsCollection, err)
}

// Create derives the slug from the name when none is given.
func (r *TeamRepository) Create(ctx context.Context, t *models.Team) (bson.ObjectID, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return bson.ObjectID{}, fmt.Errorf("%w: empty name", ErrInvalidTeam)
	}
	if t.Slug == "" {
		t.Slug = utils.GenerateSlug(t.Name)
	}
	if t.Slug == "" {
		return bson.ObjectID{}, fmt.Errorf("%w: name %q has no slug", ErrInvalidTeam, t.Name)
	}
	t.MembersID = dedupe(t.MembersID)
	return r.Insert(ctx, t)
}

func (r *TeamRepository) FindBySlug(ctx context.Context, slug string) (models.Team, bool, error) {
	return r.FindOne(ctx, bson.M{"slug": strings.ToLower(strings.TrimSpace(slug))})
}

// AddMember reports false when the team is missing or already has the member.
func (r *TeamRepository) AddMember(ctx context.Context, teamID string, userID bson.ObjectID) (bool, error) {
	oid, err := ParseID(teamID)
	if err != nil {
		return false, err
	}
	return r.UpdateWhere(ctx,
		bson.M{models.FieldID: oid, "membersId": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"membersId": userID}},
	)
}

// RemoveMember reports false when the team is missing or never had the member.
func (r *TeamRepository) RemoveMember(ctx context.Context, teamID string, userID bson.ObjectID) (bool, error) {
	oid, err := ParseID(teamID)
	if err != nil {
		return false, err
	}
	// Both membership writes match on membership so a no-op records no history.
	return r.UpdateWhere(ctx,
		bson.M{models.FieldID: oid, "membersId": userID},
		bson.M{"$pull": bson.M{"membersId": userID}},
	)
}

// ForgetUser drops userID from every team's members and clears it where it
// is the leader. It returns the number of teams it was removed from.
func (r *TeamRepository) ForgetUser(ctx context.Context, userID bson.ObjectID) (int64, error) {
	pulled, err := r.UpdateMany(ctx,
		bson.M{"membersId": userID},
		bson.M{"$pull": bson.M{"membersId": userID}},
	)
	if err != nil {
		return 0, err
	}
	if _, err := r.UpdateMany(ctx,
		bson.M{"leaderId": userID},
		bson.M{"$unset": bson.M{"leaderId": ""}},
	); err != nil {
		return 0, err
	}
	return pulled, nil
}

func (r *TeamRepository) FindByMember(ctx context.Context, userID bson.ObjectID) ([]models.Team, error) {
	return r.Find(ctx, bson.M{"membersId": userID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
}

// MemberIDs returns every user that belongs to at least one team.
func (r *TeamRepository) MemberIDs(ctx context.Context) (ids []bson.ObjectID, err error) {
	defer r.observe("distinct", time.Now(), &err)
	ctx, cancel := r.store.WithTimeout(ctx)
	defer cancel()

	res := r.Collection().Distinct(ctx, "membersId", bson.M{})
	if err := res.Err(); err != nil {
		return nil, database.Wrap("distinct", TeamsCollection, err)
	}
	ids = make([]bson.ObjectID, 0)
	if err := res.Decode(&ids); err != nil {
		return nil, database.Wrap("distinct", TeamsCollection, err)
	}
	return ids, nil
}
