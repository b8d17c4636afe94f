package handlers

import (
	"context"

	"github.com/vidhive/backend/internal/comments"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/videos"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

// SessionManager issues and refreshes authentication tokens for users.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
}

// VideoService covers the video operations exposed over HTTP.
type VideoService interface {
	Upload(ctx context.Context, actorID string, in videos.UploadInput) (videos.Uploaded, error)
	GetStreamingInfo(ctx context.Context, videoID string) (videos.StreamingInfo, error)
	Remove(ctx context.Context, actorID, videoID string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Video, error)
	ListMine(ctx context.Context, actorID string) ([]models.Video, error)
	UpdateText(ctx context.Context, actorID, videoID string, newTitle, newDescription *string) (models.Video, error)
}

// CommentService covers the comment operations exposed over HTTP.
type CommentService interface {
	Create(ctx context.Context, actorID, videoID, body string) (models.Comment, error)
	Edit(ctx context.Context, actorID, commentID, newBody string) (models.Comment, error)
	Delete(ctx context.Context, actorID, commentID string) (models.Comment, error)
	List(ctx context.Context, videoID string, page comments.Page) ([]models.Comment, error)
	Count(ctx context.Context, videoID string) (int64, error)
}

// LikeService covers the like operations exposed over HTTP.
type LikeService interface {
	Like(ctx context.Context, actorID, targetType, targetID string) (bool, error)
	Unlike(ctx context.Context, actorID, targetType, targetID string) (bool, error)
	Count(ctx context.Context, targetType, targetID string) (int64, error)
}

// TweetService covers the tweet operations exposed over HTTP.
type TweetService interface {
	Create(ctx context.Context, actorID, body string) (models.Tweet, error)
	Edit(ctx context.Context, actorID, tweetID, newBody string) (models.Tweet, error)
	Delete(ctx context.Context, actorID, tweetID string) (models.Tweet, error)
	ListMine(ctx context.Context, actorID string) ([]models.Tweet, error)
}

// SubscriptionService covers the subscription operations exposed over HTTP.
type SubscriptionService interface {
	Subscribe(ctx context.Context, actorID, channelID string) (bool, error)
	Unsubscribe(ctx context.Context, actorID, channelID string) (bool, error)
	ListMine(ctx context.Context, actorID string) ([]models.Subscription, error)
}
