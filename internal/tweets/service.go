// Package tweets manages short text posts.
package tweets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/logging"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/ownership"
	"github.com/vidhive/backend/internal/repositories"
)

const maxBodyLength = 280

// LikeCascade removes likes left on a deleted tweet.
type LikeCascade interface {
	DeleteByTargets(ctx context.Context, target models.LikeTarget, ids []string) (int64, error)
}

// Service implements the tweet operations.
type Service struct {
	Tweets repositories.TweetRepository
	Likes  LikeCascade
	Guard  ownership.Guard

	NowFunc func() time.Time
	NewID   func() string
}

// Create posts a tweet for the actor.
func (s *Service) Create(ctx context.Context, actorID, body string) (models.Tweet, error) {
	if strings.TrimSpace(actorID) == "" {
		return models.Tweet{}, apperr.Unauthenticated("authentication required")
	}
	body, err := validateBody(body)
	if err != nil {
		return models.Tweet{}, err
	}

	now := s.now()
	tweet := models.Tweet{ID: s.newID(), OwnerID: actorID, Body: body, CreatedAt: now, UpdatedAt: now}
	if err := s.Tweets.Create(ctx, tweet); err != nil {
		return models.Tweet{}, apperr.Internal("failed to save tweet", err)
	}
	return tweet, nil
}

// Edit replaces the body of the actor's own tweet.
func (s *Service) Edit(ctx context.Context, actorID, tweetID, newBody string) (models.Tweet, error) {
	body, err := validateBody(newBody)
	if err != nil {
		return models.Tweet{}, err
	}

	tweet, err := s.find(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, err
	}
	if err := ownership.Require(s.Guard, actorID, tweet.OwnerID, "tweet"); err != nil {
		return models.Tweet{}, err
	}

	updated, err := s.Tweets.UpdateBody(ctx, tweet.ID, body, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Tweet{}, apperr.NotFound("tweet not found")
		}
		return models.Tweet{}, apperr.Internal("failed to update tweet", err)
	}
	return updated, nil
}

// Delete removes the actor's own tweet and any likes on it, and returns
// the tweet. A failed like cleanup is logged, not returned.
func (s *Service) Delete(ctx context.Context, actorID, tweetID string) (models.Tweet, error) {
	tweet, err := s.find(ctx, tweetID)
	if err != nil {
		return models.Tweet{}, err
	}
	if err := ownership.Require(s.Guard, actorID, tweet.OwnerID, "tweet"); err != nil {
		return models.Tweet{}, err
	}

	if err := s.Tweets.Delete(ctx, tweet.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Tweet{}, apperr.NotFound("tweet not found")
		}
		return models.Tweet{}, apperr.Internal("failed to delete tweet", err)
	}

	if s.Likes != nil {
		if _, err := s.Likes.DeleteByTargets(ctx, models.LikeTargetTweet, []string{tweet.ID}); err != nil {
			logging.FromContext(ctx).Warn("cascade tweet likes", slog.String("tweet_id", tweet.ID), slog.Any("error", err))
		}
	}
	return tweet, nil
}

// ListMine returns the actor's tweets, newest first.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]models.Tweet, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	tweets, err := s.Tweets.ListByOwner(ctx, actorID)
	if err != nil {
		return nil, apperr.Internal("failed to list tweets", err)
	}
	return tweets, nil
}

// FindByID loads a tweet; it backs the like target check.
func (s *Service) FindByID(ctx context.Context, tweetID string) (models.Tweet, error) {
	return s.Tweets.FindByID(ctx, tweetID)
}

func (s *Service) find(ctx context.Context, tweetID string) (models.Tweet, error) {
	tweetID = strings.TrimSpace(tweetID)
	if tweetID == "" {
		return models.Tweet{}, apperr.Validation("tweet id is required")
	}

	tweet, err := s.Tweets.FindByID(ctx, tweetID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Tweet{}, apperr.NotFound("tweet not found")
		}
		return models.Tweet{}, apperr.Internal("failed to load tweet", err)
	}
	return tweet, nil
}

func validateBody(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", apperr.Validation("tweet body is required")
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return "", apperr.Validation(fmt.Sprintf("tweet must be at most %d characters", maxBodyLength))
	}
	return body, nil
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
