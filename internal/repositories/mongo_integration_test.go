package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/models"
)

func mongoTestDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("VIDHIVE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("VIDHIVE_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)

	database := client.Database("vidhive_test_" + uuid.NewString()[:8])
	require.NoError(t, EnsureMongoIndexes(ctx, database))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = database.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return database
}

func TestMongoUsersAndSessions(t *testing.T) {
	database := mongoTestDatabase(t)
	ctx := context.Background()
	set := NewMongoSet(database)

	user := models.User{ID: uuid.NewString(), Username: "alice", Email: "alice@example.com", Password: "hash", CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()}
	require.NoError(t, set.Users.Create(ctx, user))

	dup := user
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, set.Users.Create(ctx, dup), ErrConflict)

	fetched, err := set.Users.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.Password, fetched.Password)

	session := auth.Session{RefreshToken: uuid.NewString(), UserID: user.ID, ExpiresAt: time.Now().UTC().Add(-time.Minute)}
	require.NoError(t, set.Sessions.Save(ctx, session))

	purged, err := set.Sessions.PurgeExpired(ctx, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = set.Sessions.Find(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
}

func TestMongoVideosAndComments(t *testing.T) {
	database := mongoTestDatabase(t)
	ctx := context.Background()
	set := NewMongoSet(database)
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := testVideo("owner-1", "Older", base)
	newer := testVideo("owner-1", "Newer", base.Add(time.Minute))
	newer.ThumbnailStoredID = ""
	require.NoError(t, set.Videos.Create(ctx, older))
	require.NoError(t, set.Videos.Create(ctx, newer))

	videos, err := set.Videos.ListByOwner(ctx, "owner-1")
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, newer.ID, videos[0].ID)

	desc := "fresh description"
	updated, err := set.Videos.UpdateText(ctx, older.ID, nil, &desc, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, older.Title, updated.Title)
	assert.Equal(t, desc, updated.Description)

	missing, err := set.Videos.ListMissingStoredIDs(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, newer.ID, missing[0].ID)

	for i := 0; i < 3; i++ {
		require.NoError(t, set.Comments.Create(ctx, models.Comment{
			ID:        uuid.NewString(),
			VideoID:   older.ID,
			OwnerID:   "user-2",
			Body:      "hello",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base,
		}))
	}

	page, err := set.Comments.ListByVideo(ctx, older.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	count, err := set.Comments.CountByVideo(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	ids, err := set.Comments.DeleteByVideo(ctx, older.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 3)

	require.NoError(t, set.Videos.Delete(ctx, older.ID))
	assert.ErrorIs(t, set.Videos.Delete(ctx, older.ID), ErrNotFound)
}

func TestMongoLikesAndSubscriptions(t *testing.T) {
	database := mongoTestDatabase(t)
	ctx := context.Background()
	set := NewMongoSet(database)

	like := models.Like{ID: uuid.NewString(), TargetType: models.LikeTargetTweet, TargetID: "tweet-1", UserID: "user-1", CreatedAt: time.Now().UTC()}
	created, err := set.Likes.Create(ctx, like)
	require.NoError(t, err)
	assert.True(t, created)

	like.ID = uuid.NewString()
	created, err = set.Likes.Create(ctx, like)
	require.NoError(t, err)
	assert.False(t, created)

	count, err := set.Likes.Count(ctx, models.LikeTargetTweet, "tweet-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	sub := models.Subscription{ID: uuid.NewString(), SubscriberID: "user-1", ChannelID: "user-2", CreatedAt: time.Now().UTC()}
	created, err = set.Subscriptions.Create(ctx, sub)
	require.NoError(t, err)
	assert.True(t, created)

	_, err = set.Subscriptions.Create(ctx, models.Subscription{ID: uuid.NewString(), SubscriberID: "user-1", ChannelID: "user-1"})
	assert.ErrorIs(t, err, ErrInvalid)

	removed, err := set.Subscriptions.Delete(ctx, "user-1", "user-2")
	require.NoError(t, err)
	assert.True(t, removed)
}
