package app

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidhive/backend/internal/auth"
	"github.com/vidhive/backend/internal/comments"
	"github.com/vidhive/backend/internal/config"
	"github.com/vidhive/backend/internal/handlers"
	"github.com/vidhive/backend/internal/likes"
	"github.com/vidhive/backend/internal/middleware"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/ownership"
	"github.com/vidhive/backend/internal/repositories"
	"github.com/vidhive/backend/internal/storage"
	"github.com/vidhive/backend/internal/subscriptions"
	"github.com/vidhive/backend/internal/tweets"
	"github.com/vidhive/backend/internal/videos"
)

// services groups the domain services built on one store set.
type services struct {
	Sessions      *auth.Manager
	Videos        *videos.Service
	Comments      *comments.Service
	Likes         *likes.Service
	Tweets        *tweets.Service
	Subscriptions *subscriptions.Service
	Janitor       *videos.Janitor
}

// buildServices wires the domain services. The janitor's workers start here;
// callers own its shutdown.
func buildServices(cfg config.Config, set repositories.Set, media videos.MediaStore, logger *slog.Logger) services {
	guard := ownership.OwnerGuard{}
	janitor := newJanitor(cfg, set, media, logger)

	return services{
		Sessions: auth.NewManager(
			auth.NewJWTSigner(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer),
			cfg.Auth.AccessTTL,
			cfg.Auth.RefreshTTL,
			set.Sessions,
		),
		Videos: &videos.Service{
			Videos:   set.Videos,
			Pending:  set.PendingUploads,
			Media:    media,
			Comments: set.Comments,
			Likes:    set.Likes,
			Guard:    guard,
			URLs:     storage.URLBuilder{Host: cfg.ObjectStore.StreamHost, Namespace: cfg.ObjectStore.Namespace},
			Retry:    janitor,
			Cache:    videos.NewStreamCache(cfg.StreamCacheTTL),
		},
		Comments: &comments.Service{
			Comments: set.Comments,
			Videos:   set.Videos,
			Likes:    set.Likes,
			Guard:    guard,
		},
		Likes: &likes.Service{
			Likes: set.Likes,
			Targets: map[models.LikeTarget]likes.TargetResolver{
				models.LikeTargetVideo:   likes.ExistsVia(set.Videos.FindByID),
				models.LikeTargetComment: likes.ExistsVia(set.Comments.FindByID),
				models.LikeTargetTweet:   likes.ExistsVia(set.Tweets.FindByID),
			},
		},
		Tweets: &tweets.Service{
			Tweets: set.Tweets,
			Likes:  set.Likes,
			Guard:  guard,
		},
		Subscriptions: &subscriptions.Service{
			Subscriptions: set.Subscriptions,
		},
		Janitor: janitor,
	}
}

func newJanitor(cfg config.Config, set repositories.Set, media videos.AssetRemover, logger *slog.Logger) *videos.Janitor {
	return videos.NewJanitor(media, set.PendingUploads, set.Videos, videos.JanitorConfig{
		QueueSize:    cfg.Janitor.QueueSize,
		Workers:      cfg.Janitor.Workers,
		MaxAttempts:  cfg.Janitor.MaxAttempts,
		RetryBackoff: cfg.Janitor.RetryBackoff,
		StaleAfter:   cfg.Janitor.StaleAfter,
	}, logger)
}

// buildDependencies adapts the services to the HTTP handlers.
func buildDependencies(cfg config.Config, set repositories.Set, svc services, health handlers.Pinger) handlers.Dependencies {
	return handlers.Dependencies{
		Users:         set.Users,
		Sessions:      svc.Sessions,
		Videos:        svc.Videos,
		Comments:      svc.Comments,
		Likes:         svc.Likes,
		Tweets:        svc.Tweets,
		Subscriptions: svc.Subscriptions,
		Health:        health,
		AuthLimiter: middleware.NewIPRateLimiter(
			cfg.Auth.LoginRateRequests,
			cfg.Auth.LoginRateWindow,
			cfg.Auth.LoginRateRequests,
			10*cfg.Auth.LoginRateWindow,
		),
		UploadDir: cfg.HTTP.UploadTempDir,
	}
}

type mongoPinger struct {
	client *mongo.Client
}

func (p mongoPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx, nil)
}
