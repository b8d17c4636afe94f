// Package comments manages text replies attached to videos.
package comments

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

const (
	maxBodyLength = 2000
	maxPageLimit  = 100
)

// VideoFinder confirms that a video exists.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// Page selects a window of comments. Page is 1-based; a zero Limit returns
// every comment.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies the paging defaults and caps.
func (p Page) Normalize() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit < 0 {
		p.Limit = 0
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p Page) offset() int {
	if p.Limit == 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// LikeCascade removes likes left on a deleted comment.
type LikeCascade interface {
	DeleteByTargets(ctx context.Context, target models.LikeTarget, ids []string) (int64, error)
}

// Service implements the comment operations.
type Service struct {
	Comments repositories.CommentRepository
	Videos   VideoFinder
	Likes    LikeCascade
	Guard    ownership.Guard

	NowFunc func() time.Time
	NewID   func() string
}

// Create adds a comment from the actor to an existing video.
func (s *Service) Create(ctx context.Context, actorID, videoID, body string) (models.Comment, error) {
	if strings.TrimSpace(actorID) == "" {
		return models.Comment{}, apperr.Unauthenticated("authentication required")
	}
	body, err := validateBody(body)
	if err != nil {
		return models.Comment{}, err
	}
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return models.Comment{}, apperr.Validation("video id is required")
	}

	if _, err := s.Videos.FindByID(ctx, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFound("video not found")
		}
		return models.Comment{}, apperr.Internal("failed to load video", err)
	}

	now := s.now()
	comment := models.Comment{
		ID:        s.newID(),
		VideoID:   videoID,
		OwnerID:   actorID,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Comments.Create(ctx, comment); err != nil {
		return models.Comment{}, apperr.Internal("failed to save comment", err)
	}
	return comment, nil
}

// Edit replaces the body of the actor's own comment.
func (s *Service) Edit(ctx context.Context, actorID, commentID, newBody string) (models.Comment, error) {
	body, err := validateBody(newBody)
	if err != nil {
		return models.Comment{}, err
	}

	comment, err := s.find(ctx, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if err := ownership.Require(s.Guard, actorID, comment.OwnerID, "comment"); err != nil {
		return models.Comment{}, err
	}

	updated, err := s.Comments.UpdateBody(ctx, comment.ID, body, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFound("comment not found")
		}
		return models.Comment{}, apperr.Internal("failed to update comment", err)
	}
	return updated, nil
}

// Delete removes the actor's own comment and any likes on it, and returns
// the comment. A failed like cleanup is logged, not returned.
func (s *Service) Delete(ctx context.Context, actorID, commentID string) (models.Comment, error) {
	comment, err := s.find(ctx, commentID)
	if err != nil {
		return models.Comment{}, err
	}
	if err := ownership.Require(s.Guard, actorID, comment.OwnerID, "comment"); err != nil {
		return models.Comment{}, err
	}

	if err := s.Comments.Delete(ctx, comment.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFound("comment not found")
		}
		return models.Comment{}, apperr.Internal("failed to delete comment", err)
	}

	if s.Likes != nil {
		if _, err := s.Likes.DeleteByTargets(ctx, models.LikeTargetComment, []string{comment.ID}); err != nil {
			logging.FromContext(ctx).Warn("cascade comment likes", slog.String("comment_id", comment.ID), slog.Any("error", err))
		}
	}
	return comment, nil
}

// List returns a page of a video's comments, oldest first.
func (s *Service) List(ctx context.Context, videoID string, page Page) ([]models.Comment, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, apperr.Validation("video id is required")
	}

	page = page.Normalize()
	comments, err := s.Comments.ListByVideo(ctx, videoID, page.offset(), page.Limit)
	if err != nil {
		return nil, apperr.Internal("failed to list comments", err)
	}
	return comments, nil
}

// Count returns how many comments a video has.
func (s *Service) Count(ctx context.Context, videoID string) (int64, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return 0, apperr.Validation("video id is required")
	}

	count, err := s.Comments.CountByVideo(ctx, videoID)
	if err != nil {
		return 0, apperr.Internal("failed to count comments", err)
	}
	return count, nil
}

func (s *Service) find(ctx context.Context, commentID string) (models.Comment, error) {
	commentID = strings.TrimSpace(commentID)
	if commentID == "" {
		return models.Comment{}, apperr.Validation("comment id is required")
	}

	comment, err := s.Comments.FindByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, apperr.NotFound("comment not found")
		}
		return models.Comment{}, apperr.Internal("failed to load comment", err)
	}
	return comment, nil
}

func validateBody(raw string) (string, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return "", apperr.Validation("comment body is required")
	}
	if utf8.RuneCountInString(body) > maxBodyLength {
		return "", apperr.Validation(fmt.Sprintf("comment must be at most %d characters", maxBodyLength))
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
