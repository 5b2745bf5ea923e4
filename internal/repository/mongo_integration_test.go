package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/fitlgui/Api-OurThree/internal/database"
	"github.com/fitlgui/Api-OurThree/internal/model"
)

// These tests talk to a real MongoDB and run only when MONGODB_TEST_URI is set,
// e.g. MONGODB_TEST_URI=mongodb://localhost:27017 go test ./internal/repository/...
func openTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	name := fmt.Sprintf("horta_test_%d", time.Now().UnixNano())
	client, db, err := database.Open(ctx, uri, name)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return db
}

func TestUserRepo_Integration(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)
	ctx := context.Background()

	ok, err := repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Create(ctx, model.User{Username: "alice", Email: "alice@x.com", PasswordHash: "h"}))

	ok, err = repo.ExistsByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ExistsByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.True(t, ok)

	u, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "h", u.PasswordHash)
	assert.False(t, u.ID.IsZero())

	_, err = repo.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	err = repo.Create(ctx, model.User{Username: "alice", Email: "other@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
	err = repo.Create(ctx, model.User{Username: "other", Email: "alice@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUserRepo_ConcurrentCreateOnlyOneWins(t *testing.T) {
	db := openTestDB(t)
	repo := NewUserRepo(db)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = repo.Create(context.Background(), model.User{
				Username: "race", Email: fmt.Sprintf("race%d@x.com", i), PasswordHash: "h",
			})
		}(i)
	}
	wg.Wait()

	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrDuplicate)
	}
	assert.Equal(t, 1, created)
}

func TestHortaRepo_Integration(t *testing.T) {
	db := openTestDB(t)
	repo := NewHortaRepo(db)
	ctx := context.Background()

	raw, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, raw, "empty collection yields no document")

	on, err := repo.SetPump(ctx, true)
	require.NoError(t, err)
	assert.True(t, on, "upsert creates the singleton")

	on, err = repo.SetPump(ctx, false)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, repo.MergeReadings(ctx, model.SensorReadings{"soilMoisture": 40.5, "isPumpOn": true}))

	raw, err = repo.Get(ctx)
	require.NoError(t, err)
	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	assert.Equal(t, model.HortaID, doc["_id"])
	assert.Equal(t, false, doc["isPumpOn"], "readings cannot flip the pump")
	assert.Equal(t, 40.5, doc["soilMoisture"])

	n, err := db.Collection(database.HortaCollection).CountDocuments(ctx, bson.D{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
