// Package subscriptions lets users follow channels.
package subscriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/repositories"
)

// Service implements subscribe, unsubscribe and listing.
type Service struct {
	Subscriptions repositories.SubscriptionRepository

	NowFunc func() time.Time
	NewID   func() string
}

// Subscribe makes the actor follow the channel. Subscribing twice is not an
// error; the result reports whether a new subscription was stored.
func (s *Service) Subscribe(ctx context.Context, actorID, channelID string) (bool, error) {
	actorID, channelID, err := validatePair(actorID, channelID)
	if err != nil {
		return false, err
	}

	created, err := s.Subscriptions.Create(ctx, models.Subscription{
		ID:           s.newID(),
		SubscriberID: actorID,
		ChannelID:    channelID,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, repositories.ErrInvalid) {
			return false, apperr.Validation("you cannot subscribe to your own channel")
		}
		return false, apperr.Internal("failed to save subscription", err)
	}
	return created, nil
}

// Unsubscribe removes the subscription if present.
func (s *Service) Unsubscribe(ctx context.Context, actorID, channelID string) (bool, error) {
	actorID, channelID, err := validatePair(actorID, channelID)
	if err != nil {
		return false, err
	}

	removed, err := s.Subscriptions.Delete(ctx, actorID, channelID)
	if err != nil {
		return false, apperr.Internal("failed to remove subscription", err)
	}
	return removed, nil
}

// ListMine returns the actor's subscriptions, newest first.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]models.Subscription, error) {
	actorID = strings.TrimSpace(actorID)
	if actorID == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	subs, err := s.Subscriptions.ListBySubscriber(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal("failed to list subscriptions", err)
	}
	return subs, nil
}

func validatePair(actorID, channelID string) (string, string, error) {
	actorID = strings.TrimSpace(actorID)
	channelID = strings.TrimSpace(channelID)
	if actorID == "" {
		return "", "", apperr.Unauthenticated("authentication required")
	}
	if channelID == "" {
		return "", "", apperr.Validation("channel id is required")
	}
	if actorID == channelID {
		return "", "", apperr.Validation("you cannot subscribe to your own channel")
	}
	return actorID, channelID, nil
}

func (s *Service) now() time.Time {
	if s.NowFunc != nil {
		return s.NowFunc().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
