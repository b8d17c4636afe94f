// Package likes records which users like videos, comments and tweets.
package likes

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

// TargetResolver reports whether a like target exists.
type TargetResolver interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// ResolverFunc adapts a function to TargetResolver.
type ResolverFunc func(ctx context.Context, id string) (bool, error)

// Exists implements TargetResolver.
func (f ResolverFunc) Exists(ctx context.Context, id string) (bool, error) {
	return f(ctx, id)
}

// ExistsVia builds a resolver from a repository lookup that reports missing
// records with repositories.ErrNotFound.
func ExistsVia[T any](find func(ctx context.Context, id string) (T, error)) TargetResolver {
	return ResolverFunc(func(ctx context.Context, id string) (bool, error) {
		if _, err := find(ctx, id); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	})
}

// Service implements like, unlike and count.
type Service struct {
	Likes   repositories.LikeRepository
	Targets map[models.LikeTarget]TargetResolver

	NowFunc func() time.Time
	NewID   func() string
}

// Like records the actor's like on the target. Liking twice is not an error;
// the result reports whether a new like was stored.
func (s *Service) Like(ctx context.Context, actorID, targetType, targetID string) (bool, error) {
	if strings.TrimSpace(actorID) == "" {
		return false, apperr.Unauthenticated("authentication required")
	}
	target, targetID, err := parseTarget(targetType, targetID)
	if err != nil {
		return false, err
	}

	resolver, ok := s.Targets[target]
	if !ok {
		return false, apperr.Internal("like target not configured", errors.New(string(target)))
	}
	exists, err := resolver.Exists(ctx, targetID)
	if err != nil {
		return false, apperr.Internal("failed to load like target", err)
	}
	if !exists {
		return false, apperr.NotFound(string(target) + " not found")
	}

	created, err := s.Likes.Create(ctx, models.Like{
		ID:         s.newID(),
		TargetType: target,
		TargetID:   targetID,
		UserID:     actorID,
		CreatedAt:  s.now(),
	})
	if err != nil {
		return false, apperr.Internal("failed to save like", err)
	}
	return created, nil
}

// Unlike removes the actor's like. Removing an absent like is not an error.
func (s *Service) Unlike(ctx context.Context, actorID, targetType, targetID string) (bool, error) {
	if strings.TrimSpace(actorID) == "" {
		return false, apperr.Unauthenticated("authentication required")
	}
	target, targetID, err := parseTarget(targetType, targetID)
	if err != nil {
		return false, err
	}

	removed, err := s.Likes.Delete(ctx, actorID, target, targetID)
	if err != nil {
		return false, apperr.Internal("failed to remove like", err)
	}
	return removed, nil
}

// Count returns the number of likes on the target without checking that the
// target exists.
func (s *Service) Count(ctx context.Context, targetType, targetID string) (int64, error) {
	target, targetID, err := parseTarget(targetType, targetID)
	if err != nil {
		return 0, err
	}

	count, err := s.Likes.Count(ctx, target, targetID)
	if err != nil {
		return 0, apperr.Internal("failed to count likes", err)
	}
	return count, nil
}

func parseTarget(rawType, rawID string) (models.LikeTarget, string, error) {
	target, ok := models.ParseLikeTarget(strings.ToLower(strings.TrimSpace(rawType)))
	if !ok {
		return "", "", apperr.Validation("like target must be video, comment or tweet")
	}
	targetID := strings.TrimSpace(rawID)
	if targetID == "" {
		return "", "", apperr.Validation("target id is required")
	}
	return target, targetID, nil
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
