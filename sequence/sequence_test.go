package sequence_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/princinho/hrmbackend/database"
	"github.com/princinho/hrmbackend/database/databasetest"
	"github.com/princinho/hrmbackend/models"
	"github.com/princinho/hrmbackend/sequence"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/sync/errgroup"
)

func counterValue(t *testing.T, store *database.Store, name string) (int64, bool) {
	t.Helper()
	var c models.Counter
	err := store.Collection(sequence.Collection).FindOne(context.Background(), bson.M{"_id": name}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, false
	}
	require.NoError(t, err)
	return c.Value, true
}

func TestNext_StartsAtOne(t *testing.T) {
	store := databasetest.Open(t)
	gen := sequence.New(store)
	ctx := context.Background()

	_, found := counterValue(t, store, sequence.EmployeeID)
	require.False(t, found)

	for want := int64(1); want <= 3; want++ {
		got, err := gen.Next(ctx, sequence.EmployeeID)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	cur, found := counterValue(t, store, sequence.EmployeeID)
	require.True(t, found)
	require.Equal(t, int64(3), cur)
}

func TestNext_NamesAreIndependent(t *testing.T) {
	gen := sequence.New(databasetest.Open(t))
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := gen.Next(ctx, "a")
		require.NoError(t, err)
	}
	got, err := gen.Next(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, int64(1), got)
}

func TestNext_ConcurrentCallersGetDistinctContiguousValues(t *testing.T) {
	gen := sequence.New(databasetest.Open(t))
	const k = 64

	var (
		mu     sync.Mutex
		values []int64
	)
	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < k; i++ {
		g.Go(func() error {
			v, err := gen.Next(ctx, "concurrent")
			if err != nil {
				return err
			}
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	require.Len(t, values, k)
	for i, v := range values {
		require.Equal(t, int64(i+1), v)
	}
}

func TestNext_EmptyName(t *testing.T) {
	gen := sequence.New(databasetest.Open(t))
	_, err := gen.Next(context.Background(), "")
	require.True(t, errors.Is(err, sequence.ErrEmptyName))
}

func TestNext_CancelledContext(t *testing.T) {
	gen := sequence.New(databasetest.Open(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gen.Next(ctx, sequence.EmployeeID)
	require.Error(t, err)
}
