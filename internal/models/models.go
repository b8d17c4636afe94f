package models

import "time"

// User represents an account within the vidhive platform. A user's id doubles
// as their channel id.
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Video is an uploaded video together with its hosted assets. The stored ids
// are the media host's identifiers for the video and thumbnail objects.
type Video struct {
	ID                string    `json:"id"`
	OwnerID           string    `json:"ownerId"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	DurationSeconds   float64   `json:"durationSeconds"`
	VideoStoredID     string    `json:"videoStoredId,omitempty"`
	ThumbnailStoredID string    `json:"thumbnailStoredId,omitempty"`
	VideoURL          string    `json:"videoUrl"`
	ThumbnailURL      string    `json:"thumbnailUrl"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Comment is a text reply attached to a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LikeTarget names the kind of resource a like points at.
type LikeTarget string

const (
	LikeTargetVideo   LikeTarget = "video"
	LikeTargetComment LikeTarget = "comment"
	LikeTargetTweet   LikeTarget = "tweet"
)

// ParseLikeTarget validates a raw target kind.
func ParseLikeTarget(raw string) (LikeTarget, bool) {
	switch target := LikeTarget(raw); target {
	case LikeTargetVideo, LikeTargetComment, LikeTargetTweet:
		return target, true
	default:
		return "", false
	}
}

// Like records that a user liked exactly one target.
type Like struct {
	ID         string     `json:"id"`
	TargetType LikeTarget `json:"targetType"`
	TargetID   string     `json:"targetId"`
	UserID     string     `json:"userId"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Tweet is a short text post owned by a user.
type Tweet struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subscription links a subscriber to the channel they follow.
type Subscription struct {
	ID           string    `json:"id"`
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PendingUpload marks an upload whose remote assets may exist without a
// matching video record. VideoID is assigned before any asset is stored.
type PendingUpload struct {
	ID                string
	VideoID           string
	OwnerID           string
	VideoStoredID     string
	ThumbnailStoredID string
	CreatedAt         time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
