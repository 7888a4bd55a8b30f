package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/database/databasetest"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/repository"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestTeamRepository_Membership(t *testing.T) {
	store := databasetest.Open(t)
	teams := repository.NewTeamRepository(store)
	ctx := context.Background()
	require.NoError(t, teams.EnsureIndexes(ctx))

	a, b, c := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()

	acct := &models.Team{Name: " Phòng Kế Toán ", MembersID: []bson.ObjectID{a, a}}
	_, err := teams.Create(ctx, acct)
	require.NoError(t, err)
	require.Equal(t, "phong-ke-toan", acct.Slug)
	require.Equal(t, []bson.ObjectID{a}, acct.MembersID)

	_, err = teams.Create(ctx, &models.Team{Name: "Phong ke toan"})
	require.True(t, database.IsKind(err, database.KindDuplicateKey))

	dev := &models.Team{Name: "Dev"}
	_, err = teams.Create(ctx, dev)
	require.NoError(t, err)

	ok, err := teams.AddMember(ctx, dev.ID.Hex(), b)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = teams.AddMember(ctx, dev.ID.Hex(), b)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = teams.AddMember(ctx, dev.ID.Hex(), a)
	require.NoError(t, err)
	require.True(t, ok)

	got, found, err := teams.FindBySlug(ctx, "DEV")
	require.NoError(t, err)
	require.True(t, found)
	require.ElementsMatch(t, []bson.ObjectID{a, b}, got.MembersID)
	require.Len(t, got.ModifyHistory, 3)

	ids, err := teams.MemberIDs(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []bson.ObjectID{a, b}, ids)

	of, err := teams.FindByMember(ctx, a)
	require.NoError(t, err)
	require.Len(t, of, 2)

	ok, err = teams.RemoveMember(ctx, dev.ID.Hex(), c)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = teams.RemoveMember(ctx, dev.ID.Hex(), a)
	require.NoError(t, err)
	require.True(t, ok)

	of, err = teams.FindByMember(ctx, a)
	require.NoError(t, err)
	require.Len(t, of, 1)
	require.Equal(t, acct.ID, of[0].ID)
}

func TestTeamRepository_ForgetUser(t *testing.T) {
	teams := repository.NewTeamRepository(databasetest.Open(t))
	ctx := context.Background()

	gone, stays := bson.NewObjectID(), bson.NewObjectID()
	led := &models.Team{Name: "Ops", LeaderID: gone, MembersID: []bson.ObjectID{gone, stays}}
	other := &models.Team{Name: "Sales", MembersID: []bson.ObjectID{gone}}
	untouched := &models.Team{Name: "Legal", MembersID: []bson.ObjectID{stays}}
	for _, tm := range []*models.Team{led, other, untouched} {
		_, err := teams.Create(ctx, tm)
		require.NoError(t, err)
	}

	n, err := teams.ForgetUser(ctx, gone)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	got, _, err := teams.FindByID(ctx, led.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, []bson.ObjectID{stays}, got.MembersID)
	require.True(t, got.LeaderID.IsZero())
	require.Len(t, got.ModifyHistory, 3)

	got, _, err = teams.FindByID(ctx, untouched.ID.Hex())
	require.NoError(t, err)
	require.Len(t, got.ModifyHistory, 1)

	of, err := teams.FindByMember(ctx, gone)
	require.NoError(t, err)
	require.Empty(t, of)

	n, err = teams.ForgetUser(ctx, gone)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTeamRepository_CreateRejectsEmptyName(t *testing.T) {
	teams := repository.NewTeamRepository(databasetest.Open(t))
	_, err := teams.Create(context.Background(), &models.Team{Name: "  "})
	require.ErrorIs(t, err, repository.ErrInvalidTeam)
	_, err = teams.Create(context.Background(), &models.Team{Name: "***"})
	require.ErrorIs(t, err, repository.ErrInvalidTeam)
}

func TestContractRepository_ActiveAndTerminate(t *testing.T) {
	store := databasetest.Open(t)
	contracts := repository.NewContractRepository(store)
	ctx := context.Background()
	require.NoError(t, contracts.EnsureIndexes(ctx))

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	alice, bob, carol := bson.NewObjectID(), bson.NewObjectID(), bson.NewObjectID()

	open := &models.Contract{UserID: alice, Title: "Engineer", StartDate: now.AddDate(-1, 0, 0)}
	_, err := contracts.Create(ctx, open)
	require.NoError(t, err)
	require.Equal(t, models.ContractStatusActive, open.Status)

	_, err = contracts.Create(ctx, &models.Contract{UserID: bob, StartDate: now.AddDate(-1, 0, 0), EndDate: &past})
	require.NoError(t, err)

	future := &models.Contract{UserID: carol, StartDate: now.AddDate(0, 1, 0)}
	_, err = contracts.Create(ctx, future)
	require.NoError(t, err)

	ids, err := contracts.ActiveUserIDs(ctx, now)
	require.NoError(t, err)
	require.Equal(t, []bson.ObjectID{alice}, ids)

	ok, err := contracts.Terminate(ctx, open.ID.Hex(), now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = contracts.Terminate(ctx, open.ID.Hex(), now)
	require.NoError(t, err)
	require.False(t, ok)

	ids, err = contracts.ActiveUserIDs(ctx, now)
	require.NoError(t, err)
	require.Empty(t, ids)

	list, err := contracts.FindByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, models.ContractStatusTerminated, list[0].Status)
	require.True(t, list[0].EndDate.Equal(now))
}

func TestContractRepository_CreateValidates(t *testing.T) {
	contracts := repository.NewContractRepository(databasetest.Open(t))
	ctx := context.Background()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := contracts.Create(ctx, &models.Contract{StartDate: start})
	require.ErrorIs(t, err, repository.ErrInvalidContract)

	_, err = contracts.Create(ctx, &models.Contract{UserID: bson.NewObjectID()})
	require.ErrorIs(t, err, repository.ErrInvalidContract)

	_, err = contracts.Create(ctx, &models.Contract{UserID: bson.NewObjectID(), StartDate: start, EndDate: &start})
	require.ErrorIs(t, err, repository.ErrInvalidContract)
}

func TestAttendanceRepository_CheckInOut(t *testing.T) {
	store := databasetest.Open(t)
	att := repository.NewAttendanceRepository(store)
	ctx := context.Background()
	require.NoError(t, att.EnsureIndexes(ctx))

	uid := bson.NewObjectID()
	morning := time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

	rec, err := att.CheckIn(ctx, uid, morning, "on site")
	require.NoError(t, err)
	require.True(t, rec.Day.Equal(models.DayOf(morning)))

	_, err = att.CheckIn(ctx, uid, morning.Add(time.Hour), "")
	require.True(t, database.IsKind(err, database.KindDuplicateKey))

	ok, err := att.CheckOut(ctx, uid, morning.Add(9*time.Hour))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = att.CheckOut(ctx, uid, morning.Add(10*time.Hour))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = att.CheckOut(ctx, uid, morning.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.False(t, ok)

	_, err = att.CheckIn(ctx, uid, morning.AddDate(0, 0, 1), "")
	require.NoError(t, err)

	all, err := att.FindByUser(ctx, uid, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].CheckOut)
	require.Nil(t, all[1].CheckOut)

	first, err := att.FindByUser(ctx, uid, morning, morning.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, first[0].ModifyHistory, 2)
}
