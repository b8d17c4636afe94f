package tweets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/ownership"
	"github.com/vidhive/backend/internal/repositories"
)

type memoryTweets map[string]models.Tweet

func (m memoryTweets) Create(_ context.Context, t models.Tweet) error {
	m[t.ID] = t
	return nil
}

func (m memoryTweets) FindByID(_ context.Context, id string) (models.Tweet, error) {
	t, ok := m[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	return t, nil
}

func (m memoryTweets) UpdateBody(_ context.Context, id, body string, updatedAt time.Time) (models.Tweet, error) {
	t, ok := m[id]
	if !ok {
		return models.Tweet{}, repositories.ErrNotFound
	}
	t.Body, t.UpdatedAt = body, updatedAt
	m[id] = t
	return t, nil
}

func (m memoryTweets) Delete(_ context.Context, id string) error {
	if _, ok := m[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(m, id)
	return nil
}

func (m memoryTweets) ListByOwner(_ context.Context, ownerID string) ([]models.Tweet, error) {
	out := []models.Tweet{}
	for _, t := range m {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type recordingLikes struct {
	targets []models.LikeTarget
	ids     [][]string
	err     error
}

func (r *recordingLikes) DeleteByTargets(_ context.Context, target models.LikeTarget, ids []string) (int64, error) {
	r.targets = append(r.targets, target)
	r.ids = append(r.ids, ids)
	return int64(len(ids)), r.err
}

func newTestService() (*Service, memoryTweets) {
	store := memoryTweets{}
	clock := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	ids := []string{"t-1", "t-2", "t-3", "t-4"}
	return &Service{
		Tweets: store,
		Guard:  ownership.OwnerGuard{},
		NowFunc: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
		NewID: func() string {
			id := ids[0]
			ids = ids[1:]
			return id
		},
	}, store
}

func TestTweetLifecycle(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, "user-1", "hello world")
	require.NoError(t, err)
	second, err := svc.Create(ctx, "user-1", "second thoughts")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "user-2", "someone else")
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, second.ID, mine[0].ID)

	_, err = svc.Edit(ctx, "user-2", first.ID, "hijack")
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	edited, err := svc.Edit(ctx, "user-1", first.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Body)

	_, err = svc.Delete(ctx, "user-2", first.ID)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	_, err = svc.Delete(ctx, "user-1", first.ID)
	require.NoError(t, err)
	_, ok := store[first.ID]
	assert.False(t, ok)

	_, err = svc.Delete(ctx, "user-1", first.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteRemovesTweetLikes(t *testing.T) {
	svc, store := newTestService()
	likes := &recordingLikes{}
	svc.Likes = likes
	ctx := context.Background()

	tweet, err := svc.Create(ctx, "user-1", "popular take")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, "user-2", tweet.ID)
	require.Error(t, err)
	assert.Empty(t, likes.targets)

	_, err = svc.Delete(ctx, "user-1", tweet.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.LikeTarget{models.LikeTargetTweet}, likes.targets)
	assert.Equal(t, [][]string{{tweet.ID}}, likes.ids)

	second, err := svc.Create(ctx, "user-1", "another take")
	require.NoError(t, err)
	likes.err = errors.New("likes offline")
	_, err = svc.Delete(ctx, "user-1", second.ID)
	require.NoError(t, err, "like cleanup failures are not surfaced")
	_, ok := store[second.ID]
	assert.False(t, ok)
}

func TestTweetValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Create(ctx, "user-1", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(ctx, "user-1", strings.Repeat("é", maxBodyLength+1))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Create(ctx, "user-1", strings.Repeat("é", maxBodyLength))
	require.NoError(t, err, "length is counted in characters")

	_, err = svc.Create(ctx, " ", "hi")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = svc.ListMine(ctx, "")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}
