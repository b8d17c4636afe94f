package handlers

import (
	"net/http"

	"github.com/vidhive/backend/internal/respond"
)

// TweetHandler provides the tweet endpoints.
type TweetHandler struct {
	Tweets TweetService
}

// Create handles POST /api/v1/tweet.
func (h TweetHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Create(ctx, actorID(r), req.Body)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusCreated, "tweet posted", tweet)
}

// Edit handles PATCH /api/v1/tweet/{tweetId}.
func (h TweetHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req tweetRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	tweet, err := h.Tweets.Edit(ctx, actorID(r), r.PathValue("tweetId"), req.Body)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "tweet updated", tweet)
}

// Delete handles DELETE /api/v1/tweet/{tweetId}.
func (h TweetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	tweet, err := h.Tweets.Delete(ctx, actorID(r), r.PathValue("tweetId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "tweet deleted", tweet)
}

// Mine handles GET /api/v1/tweets/my.
func (h TweetHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.Tweets.ListMine(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "tweets fetched", list)
}

type tweetRequest struct {
	Body string `json:"body" validate:"required,max=280"`
}
