package subscriptions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/models"
)

type pair struct{ subscriber, channel string }

type memorySubscriptions struct {
	items map[pair]models.Subscription
	calls int
}

func (m *memorySubscriptions) Create(_ context.Context, sub models.Subscription) (bool, error) {
	m.calls++
	key := pair{sub.SubscriberID, sub.ChannelID}
	if _, ok := m.items[key]; ok {
		return false, nil
	}
	m.items[key] = sub
	return true, nil
}

func (m *memorySubscriptions) Delete(_ context.Context, subscriberID, channelID string) (bool, error) {
	m.calls++
	key := pair{subscriberID, channelID}
	if _, ok := m.items[key]; !ok {
		return false, nil
	}
	delete(m.items, key)
	return true, nil
}

func (m *memorySubscriptions) ListBySubscriber(_ context.Context, subscriberID string) ([]models.Subscription, error) {
	out := []models.Subscription{}
	for key, sub := range m.items {
		if key.subscriber == subscriberID {
			out = append(out, sub)
		}
	}
	return out, nil
}

func newTestService() (*Service, *memorySubscriptions) {
	store := &memorySubscriptions{items: make(map[pair]models.Subscription)}
	return &Service{Subscriptions: store}, store
}

func TestSubscribeIsIdempotent(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	created, err := svc.Subscribe(ctx, "user-1", "user-2")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Subscribe(ctx, "user-1", "user-2")
	require.NoError(t, err)
	assert.False(t, created)

	subs, err := svc.ListMine(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "user-2", subs[0].ChannelID)
}

func TestSelfSubscribeRejectedBeforeStore(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Subscribe(context.Background(), "user-1", " user-1 ")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Unsubscribe(context.Background(), "user-1", "user-1")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	assert.Zero(t, store.calls)
}

func TestUnsubscribeAbsentIsNotAnError(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	removed, err := svc.Unsubscribe(ctx, "user-1", "user-3")
	require.NoError(t, err)
	assert.False(t, removed)

	_, err = svc.Subscribe(ctx, "user-1", "user-3")
	require.NoError(t, err)

	removed, err = svc.Unsubscribe(ctx, "user-1", "user-3")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestSubscriptionsRequireActor(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Subscribe(context.Background(), "", "user-2")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))

	_, err = svc.ListMine(context.Background(), "")
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}
