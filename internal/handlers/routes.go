package handlers

import (
	"net/http"

	"github.com/vidhive/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Videos        VideoService
	Comments      CommentService
	Likes         LikeService
	Tweets        TweetService
	Subscriptions SubscriptionService
	Health        Pinger

	// AuthLimiter throttles the account endpoints per client address.
	AuthLimiter middleware.RateLimiter
	UploadDir   string
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Routes that
// need a caller are wrapped with RequireActor; the authentication middleware
// itself runs ahead of the mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{Store: deps.Health}
	users := AuthHandler{Users: deps.Users, Sessions: deps.Sessions}
	videos := VideoHandler{Videos: deps.Videos, TempDir: deps.UploadDir}
	comments := CommentHandler{Comments: deps.Comments}
	likes := LikeHandler{Likes: deps.Likes}
	tweets := TweetHandler{Tweets: deps.Tweets}
	subs := SubscriptionHandler{Subscriptions: deps.Subscriptions}

	limited := middleware.RateLimit(deps.AuthLimiter, "auth")
	public := func(h http.HandlerFunc) http.Handler { return h }
	private := func(h http.HandlerFunc) http.Handler { return middleware.RequireActor(h) }

	mux.Handle("GET /healthz", public(health.Handle))

	mux.Handle("POST /api/v1/users/register", limited(public(users.Register)))
	mux.Handle("POST /api/v1/users/login", limited(public(users.Login)))
	mux.Handle("POST /api/v1/users/refresh", public(users.Refresh))

	mux.Handle("POST /api/v1/videos/upload", private(videos.Upload))
	mux.Handle("GET /api/v1/videos/my", private(videos.Mine))
	mux.Handle("GET /api/v1/videos/{videoId}/stream", public(videos.Stream))
	mux.Handle("PATCH /api/v1/videos/{videoId}", private(videos.Update))
	mux.Handle("DELETE /api/v1/videos/{videoId}", private(videos.Delete))
	mux.Handle("GET /api/v1/channel/{channelId}/videos", public(videos.Channel))

	mux.Handle("POST /api/v1/comments/video/{videoId}", private(comments.Create))
	mux.Handle("GET /api/v1/comments/video/{videoId}", public(comments.List))
	mux.Handle("GET /api/v1/comments/video/{videoId}/count", public(comments.Count))
	mux.Handle("PATCH /api/v1/comments/{commentId}", private(comments.Edit))
	mux.Handle("DELETE /api/v1/comments/{commentId}", private(comments.Delete))

	mux.Handle("POST /api/v1/like/{kind}/{targetId}", private(likes.Like))
	mux.Handle("DELETE /api/v1/like/{kind}/{targetId}", private(likes.Unlike))
	mux.Handle("GET /api/v1/like/{kind}/{targetId}/count", public(likes.Count))

	mux.Handle("POST /api/v1/tweet", private(tweets.Create))
	mux.Handle("PATCH /api/v1/tweet/{tweetId}", private(tweets.Edit))
	mux.Handle("DELETE /api/v1/tweet/{tweetId}", private(tweets.Delete))
	mux.Handle("GET /api/v1/tweets/my", private(tweets.Mine))

	mux.Handle("POST /api/v1/subscribe/{channelId}", private(subs.Subscribe))
	mux.Handle("DELETE /api/v1/unsubscribe/{channelId}", private(subs.Unsubscribe))
	mux.Handle("GET /api/v1/subscriptions/my", private(subs.Mine))
}
