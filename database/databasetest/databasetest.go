// Package databasetest opens throwaway MongoDB databases for tests and skips
// when no server is reachable.
package databasetest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/princinho/hrmbackend/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Open returns a Store on a fresh database dropped at test cleanup.
func Open(t *testing.T) *database.Store {
	t.Helper()
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetServerSelectionTimeout(2 * time.Second))
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("MongoDB not available: %v", err)
	}

	db := client.Database(fmt.Sprintf("hrm_test_%d", time.Now().UnixNano()))

	probe := db.Collection("_auth_check")
	if _, err := probe.InsertOne(ctx, bson.D{{Key: "ok", Value: true}}); err != nil {
		_ = client.Disconnect(ctx)
		t.Skipf("MongoDB not writable (auth required?): %v", err)
	}
	_ = probe.Drop(ctx)

	store := database.FromDatabase(db, 5*time.Second)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	return store
}
