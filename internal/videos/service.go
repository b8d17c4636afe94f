// Package videos manages uploaded videos and the lifecycle of their hosted
// assets.
package videos

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
	"github.com/vidhive/backend/internal/storage"
)

// MediaStore stores and removes hosted assets. Upload stores the file under
// storedID, drawing a fresh one when it is empty.
type MediaStore interface {
	NewStoredID() string
	Upload(ctx context.Context, localPath string, kind storage.Kind, storedID string) (storage.Asset, error)
	Delete(ctx context.Context, storedID string, kind storage.Kind) error
}

// CommentCascade removes the comments attached to a video.
type CommentCascade interface {
	DeleteByVideo(ctx context.Context, videoID string) ([]string, error)
}

// LikeCascade removes likes pointing at deleted targets.
type LikeCascade interface {
	DeleteByTargets(ctx context.Context, target models.LikeTarget, targetIDs []string) (int64, error)
}

// DeletionQueue accepts asset deletions to retry in the background.
type DeletionQueue interface {
	Enqueue(ctx context.Context, deletion AssetDeletion) error
}

// AssetDeletion identifies a hosted asset that still has to be removed.
type AssetDeletion struct {
	VideoID  string
	StoredID string
	Kind     storage.Kind
}

// UploadInput carries the staged files and text of a new video.
type UploadInput struct {
	VideoPath     string
	ThumbnailPath string
	Title         string
	Description   string
}

// Uploaded is the result of a completed upload.
type Uploaded struct {
	Video       models.Video `json:"video"`
	ManifestURL string       `json:"manifestUrl"`
}

// StreamingInfo is what a player needs to start a video.
type StreamingInfo struct {
	VideoID         string  `json:"videoId"`
	ManifestURL     string  `json:"manifestUrl"`
	ThumbnailURL    string  `json:"thumbnailUrl"`
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// BackfillReport summarises a stored-id backfill run.
type BackfillReport struct {
	Scanned int
	Updated int
	Skipped int
}

// Service implements the video operations.
type Service struct {
	Videos   repositories.VideoRepository
	Pending  repositories.PendingUploadRepository
	Media    MediaStore
	Comments CommentCascade
	Likes    LikeCascade
	Guard    ownership.Guard
	URLs     storage.URLBuilder
	Retry    DeletionQueue
	Cache    *StreamCache

	NowFunc func() time.Time
	NewID   func() string
}

// Upload stores the video and thumbnail and then records the video. A
// pending-upload marker names each asset before its transfer starts, so a
// crash at any step leaves something the sweep can reclaim.
func (s *Service) Upload(ctx context.Context, actorID string, in UploadInput) (Uploaded, error) {
	if strings.TrimSpace(actorID) == "" {
		return Uploaded{}, apperr.Unauthenticated("authentication required")
	}
	if strings.TrimSpace(in.VideoPath) == "" || strings.TrimSpace(in.ThumbnailPath) == "" {
		return Uploaded{}, apperr.Validation("video file and thumbnail are required")
	}
	title, err := validateTitle(in.Title)
	if err != nil {
		return Uploaded{}, err
	}
	description := strings.TrimSpace(in.Description)
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return Uploaded{}, apperr.Validation(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}

	ctx, span := logging.StartSpan(ctx, "videos.upload", slog.String("owner_id", actorID))
	defer span.End()

	now := s.now()
	marker := models.PendingUpload{
		ID:            s.newID(),
		VideoID:       s.newID(),
		OwnerID:       actorID,
		VideoStoredID: s.Media.NewStoredID(),
		CreatedAt:     now,
	}
	if err := s.Pending.Create(ctx, marker); err != nil {
		span.Fail(err)
		return Uploaded{}, apperr.Internal("failed to start upload", err)
	}

	videoAsset, err := s.Media.Upload(ctx, in.VideoPath, storage.KindVideo, marker.VideoStoredID)
	if err != nil {
		span.Fail(err)
		s.compensate(ctx, marker)
		return Uploaded{}, fmt.Errorf("upload video: %w", err)
	}

	marker.ThumbnailStoredID = s.Media.NewStoredID()
	if err := s.Pending.Update(ctx, marker); err != nil {
		span.Fail(err)
		marker.ThumbnailStoredID = ""
		s.compensate(ctx, marker)
		return Uploaded{}, apperr.Internal("failed to track upload", err)
	}

	thumbAsset, err := s.Media.Upload(ctx, in.ThumbnailPath, storage.KindImage, marker.ThumbnailStoredID)
	if err != nil {
		span.Fail(err)
		s.compensate(ctx, marker)
		return Uploaded{}, fmt.Errorf("upload thumbnail: %w", err)
	}

	video := models.Video{
		ID:                marker.VideoID,
		OwnerID:           actorID,
		Title:             title,
		Description:       description,
		DurationSeconds:   videoAsset.DurationSeconds,
		VideoStoredID:     videoAsset.StoredID,
		ThumbnailStoredID: thumbAsset.StoredID,
		VideoURL:          videoAsset.URL,
		ThumbnailURL:      thumbAsset.URL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.Videos.Create(ctx, video); err != nil {
		span.Fail(err)
		s.compensate(ctx, marker)
		return Uploaded{}, apperr.Internal("failed to save video", err)
	}

	if err := s.Pending.Delete(ctx, marker.ID); err != nil {
		logging.FromContext(ctx).Warn("clear pending upload", slog.String("pending_id", marker.ID), slog.Any("error", err))
	}

	return Uploaded{Video: video, ManifestURL: s.URLs.Manifest(video.VideoStoredID)}, nil
}

// compensate deletes whatever the marker recorded. The marker is removed only
// when nothing is left behind.
func (s *Service) compensate(ctx context.Context, marker models.PendingUpload) {
	ctx = context.WithoutCancel(ctx)
	logger := logging.FromContext(ctx)

	clean := true
	for _, asset := range markerAssets(marker) {
		err := s.Media.Delete(ctx, asset.StoredID, asset.Kind)
		if err == nil || errors.Is(err, storage.ErrAssetNotFound) {
			continue
		}
		clean = false
		logger.Warn("compensating delete failed",
			slog.String("stored_id", asset.StoredID),
			slog.String("kind", string(asset.Kind)),
			slog.Any("error", err),
		)
	}

	if !clean {
		logger.Warn("pending upload kept for sweep", slog.String("pending_id", marker.ID))
		return
	}
	if err := s.Pending.Delete(ctx, marker.ID); err != nil {
		logger.Warn("clear pending upload", slog.String("pending_id", marker.ID), slog.Any("error", err))
	}
}

func markerAssets(marker models.PendingUpload) []AssetDeletion {
	assets := make([]AssetDeletion, 0, 2)
	if marker.VideoStoredID != "" {
		assets = append(assets, AssetDeletion{VideoID: marker.VideoID, StoredID: marker.VideoStoredID, Kind: storage.KindVideo})
	}
	if marker.ThumbnailStoredID != "" {
		assets = append(assets, AssetDeletion{VideoID: marker.VideoID, StoredID: marker.ThumbnailStoredID, Kind: storage.KindImage})
	}
	return assets
}

// GetStreamingInfo resolves the manifest address and display metadata of a
// video. It needs no authentication.
func (s *Service) GetStreamingInfo(ctx context.Context, videoID string) (StreamingInfo, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return StreamingInfo{}, apperr.Validation("video id is required")
	}

	if info, ok := s.Cache.Get(videoID); ok {
		return info, nil
	}

	video, err := s.find(ctx, videoID)
	if err != nil {
		return StreamingInfo{}, err
	}

	storedID := video.VideoStoredID
	if storedID == "" {
		derived, err := storage.DeriveStoredID(video.VideoURL)
		if err != nil {
			return StreamingInfo{}, apperr.Internal("video stream is unavailable", err)
		}
		logging.FromContext(ctx).Warn("stored id derived from url",
			slog.String("video_id", video.ID),
			slog.String("stored_id", derived),
		)
		storedID = derived
	}

	info := StreamingInfo{
		VideoID:         video.ID,
		ManifestURL:     s.URLs.Manifest(storedID),
		ThumbnailURL:    video.ThumbnailURL,
		Title:           video.Title,
		Description:     video.Description,
		DurationSeconds: video.DurationSeconds,
	}
	s.Cache.Set(info)
	return info, nil
}

// Remove deletes the video record, its comments and likes, and then its
// hosted assets. Asset failures never fail the call.
func (s *Service) Remove(ctx context.Context, actorID, videoID string) (models.Video, error) {
	video, err := s.find(ctx, strings.TrimSpace(videoID))
	if err != nil {
		return models.Video{}, err
	}
	if err := ownership.Require(s.Guard, actorID, video.OwnerID, "video"); err != nil {
		return models.Video{}, err
	}

	ctx, span := logging.StartSpan(ctx, "videos.remove", slog.String("video_id", video.ID))
	defer span.End()

	if err := s.Videos.Delete(ctx, video.ID); err != nil {
		span.Fail(err)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.NotFound("video not found")
		}
		return models.Video{}, apperr.Internal("failed to delete video", err)
	}
	s.Cache.Invalidate(video.ID)

	s.cascade(ctx, video.ID)

	for _, asset := range videoAssets(ctx, video) {
		s.deleteAsset(ctx, asset)
	}

	return video, nil
}

func (s *Service) cascade(ctx context.Context, videoID string) {
	logger := logging.FromContext(ctx)

	var commentIDs []string
	if s.Comments != nil {
		ids, err := s.Comments.DeleteByVideo(ctx, videoID)
		if err != nil {
			logger.Warn("cascade comments", slog.Any("error", err))
		}
		commentIDs = ids
	}

	if s.Likes == nil {
		return
	}
	if _, err := s.Likes.DeleteByTargets(ctx, models.LikeTargetVideo, []string{videoID}); err != nil {
		logger.Warn("cascade video likes", slog.Any("error", err))
	}
	if len(commentIDs) > 0 {
		if _, err := s.Likes.DeleteByTargets(ctx, models.LikeTargetComment, commentIDs); err != nil {
			logger.Warn("cascade comment likes", slog.Int("comments", len(commentIDs)), slog.Any("error", err))
		}
	}
}

// videoAssets lists the hosted assets of a record, deriving ids from URLs
// for records written before ids were persisted.
func videoAssets(ctx context.Context, video models.Video) []AssetDeletion {
	logger := logging.FromContext(ctx)

	candidates := []struct {
		storedID string
		url      string
		kind     storage.Kind
	}{
		{video.VideoStoredID, video.VideoURL, storage.KindVideo},
		{video.ThumbnailStoredID, video.ThumbnailURL, storage.KindImage},
	}

	assets := make([]AssetDeletion, 0, len(candidates))
	for _, c := range candidates {
		storedID := c.storedID
		if storedID == "" {
			derived, err := storage.DeriveStoredID(c.url)
			if err != nil {
				logger.Warn("asset id unknown; skipping delete", slog.String("kind", string(c.kind)), slog.Any("error", err))
				continue
			}
			storedID = derived
		}
		assets = append(assets, AssetDeletion{VideoID: video.ID, StoredID: storedID, Kind: c.kind})
	}
	return assets
}

func (s *Service) deleteAsset(ctx context.Context, asset AssetDeletion) {
	logger := logging.FromContext(ctx).With(
		slog.String("stored_id", asset.StoredID),
		slog.String("kind", string(asset.Kind)),
	)

	err := s.Media.Delete(ctx, asset.StoredID, asset.Kind)
	switch {
	case err == nil:
		return
	case errors.Is(err, storage.ErrAssetNotFound):
		logger.Info("asset already gone")
		return
	}

	logger.Warn("asset delete failed", slog.Any("error", err))
	if s.Retry == nil {
		return
	}
	if err := s.Retry.Enqueue(context.WithoutCancel(ctx), asset); err != nil {
		logger.Error("asset delete not queued for retry", slog.Any("error", err))
	}
}

// ListByOwner returns a channel's videos, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, apperr.Validation("channel id is required")
	}

	videos, err := s.Videos.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list videos", err)
	}
	return videos, nil
}

// ListMine returns the actor's own videos.
func (s *Service) ListMine(ctx context.Context, actorID string) ([]models.Video, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	return s.ListByOwner(ctx, actorID)
}

// UpdateText changes the title and/or description. Empty values count as
// absent; at least one must be present.
func (s *Service) UpdateText(ctx context.Context, actorID, videoID string, newTitle, newDescription *string) (models.Video, error) {
	title := presentText(newTitle)
	description := presentText(newDescription)
	if title == nil && description == nil {
		return models.Video{}, apperr.Validation("provide a new title or description")
	}
	if title != nil {
		validated, err := validateTitle(*title)
		if err != nil {
			return models.Video{}, err
		}
		title = &validated
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		return models.Video{}, apperr.Validation(fmt.Sprintf("description must be at most %d characters", maxDescriptionLength))
	}

	video, err := s.find(ctx, strings.TrimSpace(videoID))
	if err != nil {
		return models.Video{}, err
	}
	if err := ownership.Require(s.Guard, actorID, video.OwnerID, "video"); err != nil {
		return models.Video{}, err
	}

	updated, err := s.Videos.UpdateText(ctx, video.ID, title, description, s.now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.NotFound("video not found")
		}
		return models.Video{}, apperr.Internal("failed to update video", err)
	}
	s.Cache.Invalidate(video.ID)

	return updated, nil
}

// BackfillStoredIDs persists ids derived from the URLs of records that
// predate stored ids.
func (s *Service) BackfillStoredIDs(ctx context.Context) (BackfillReport, error) {
	ctx, span := logging.StartSpan(ctx, "videos.backfill")
	defer span.End()

	videos, err := s.Videos.ListMissingStoredIDs(ctx)
	if err != nil {
		span.Fail(err)
		return BackfillReport{}, fmt.Errorf("list videos missing stored ids: %w", err)
	}

	logger := logging.FromContext(ctx)
	report := BackfillReport{Scanned: len(videos)}
	for _, video := range videos {
		videoStoredID, err := storedIDOrDerive(video.VideoStoredID, video.VideoURL)
		if err != nil {
			logger.Warn("backfill skipped", slog.String("video_id", video.ID), slog.String("kind", string(storage.KindVideo)), slog.Any("error", err))
			report.Skipped++
			continue
		}
		thumbnailStoredID, err := storedIDOrDerive(video.ThumbnailStoredID, video.ThumbnailURL)
		if err != nil {
			logger.Warn("backfill skipped", slog.String("video_id", video.ID), slog.String("kind", string(storage.KindImage)), slog.Any("error", err))
			report.Skipped++
			continue
		}

		if err := s.Videos.SetStoredIDs(ctx, video.ID, videoStoredID, thumbnailStoredID); err != nil {
			span.Fail(err)
			return report, fmt.Errorf("persist stored ids for %s: %w", video.ID, err)
		}
		s.Cache.Invalidate(video.ID)
		report.Updated++
	}

	return report, nil
}

func storedIDOrDerive(storedID, rawURL string) (string, error) {
	if storedID != "" {
		return storedID, nil
	}
	return storage.DeriveStoredID(rawURL)
}

func (s *Service) find(ctx context.Context, videoID string) (models.Video, error) {
	if videoID == "" {
		return models.Video{}, apperr.Validation("video id is required")
	}

	video, err := s.Videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Video{}, apperr.NotFound("video not found")
		}
		return models.Video{}, apperr.Internal("failed to load video", err)
	}
	return video, nil
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", apperr.Validation("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", apperr.Validation(fmt.Sprintf("title must be at most %d characters", maxTitleLength))
	}
	return title, nil
}

func presentText(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
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
