package repositories

import (
	"context"
	"time"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// VideoRepository defines the data access contract for videos.
type VideoRepository interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	// UpdateText changes the non-nil fields and returns the updated record.
	UpdateText(ctx context.Context, id string, title, description *string, updatedAt time.Time) (models.Video, error)
	Delete(ctx context.Context, id string) error
	// ListMissingStoredIDs returns records written before stored ids were persisted.
	ListMissingStoredIDs(ctx context.Context) ([]models.Video, error)
	SetStoredIDs(ctx context.Context, id, videoStoredID, thumbnailStoredID string) error
}

// CommentRepository defines the data access contract for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateBody(ctx context.Context, id, body string, updatedAt time.Time) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	// ListByVideo returns comments oldest first. A limit of zero means no limit.
	ListByVideo(ctx context.Context, videoID string, offset, limit int) ([]models.Comment, error)
	CountByVideo(ctx context.Context, videoID string) (int64, error)
	// DeleteByVideo removes every comment on the video and returns their ids.
	DeleteByVideo(ctx context.Context, videoID string) ([]string, error)
}

// LikeRepository defines the data access contract for likes.
type LikeRepository interface {
	// Create stores the like unless the user already likes the target; the
	// result reports whether a record was written.
	Create(ctx context.Context, like models.Like) (bool, error)
	Delete(ctx context.Context, userID string, target models.LikeTarget, targetID string) (bool, error)
	Count(ctx context.Context, target models.LikeTarget, targetID string) (int64, error)
	DeleteByTargets(ctx context.Context, target models.LikeTarget, targetIDs []string) (int64, error)
}

// TweetRepository defines the data access contract for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet models.Tweet) error
	FindByID(ctx context.Context, id string) (models.Tweet, error)
	UpdateBody(ctx context.Context, id, body string, updatedAt time.Time) (models.Tweet, error)
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]models.Tweet, error)
}

// SubscriptionRepository defines the data access contract for subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub models.Subscription) (bool, error)
	Delete(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListBySubscriber(ctx context.Context, subscriberID string) ([]models.Subscription, error)
}

// PendingUploadRepository persists upload saga markers.
type PendingUploadRepository interface {
	Create(ctx context.Context, upload models.PendingUpload) error
	Update(ctx context.Context, upload models.PendingUpload) error
	Delete(ctx context.Context, id string) error
	ListStale(ctx context.Context, before time.Time, limit int) ([]models.PendingUpload, error)
}

// Set groups one implementation of every store.
type Set struct {
	Users          UserRepository
	Sessions       auth.SessionStore
	Videos         VideoRepository
	Comments       CommentRepository
	Likes          LikeRepository
	Tweets         TweetRepository
	Subscriptions  SubscriptionRepository
	PendingUploads PendingUploadRepository
}
