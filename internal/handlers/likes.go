package handlers

import (
	"net/http"

	"github.com/vidhive/backend/internal/respond"
)

// LikeHandler provides the like endpoints.
type LikeHandler struct {
	Likes LikeService
}

// Like handles POST /api/v1/like/{kind}/{targetId}. Liking twice is not an
// error; the response reports whether a like was recorded.
func (h LikeHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	created, err := h.Likes.Like(ctx, actorID(r), r.PathValue("kind"), r.PathValue("targetId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	if created {
		respond.OK(ctx, w, http.StatusCreated, "liked", likeResponse{Liked: true})
		return
	}
	respond.OK(ctx, w, http.StatusOK, "already liked", likeResponse{Liked: true})
}

// Unlike handles DELETE /api/v1/like/{kind}/{targetId}.
func (h LikeHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := h.Likes.Unlike(ctx, actorID(r), r.PathValue("kind"), r.PathValue("targetId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	message := "like removed"
	if !removed {
		message = "not liked"
	}
	respond.OK(ctx, w, http.StatusOK, message, likeResponse{Liked: false})
}

// Count handles GET /api/v1/like/{kind}/{targetId}/count.
func (h LikeHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.Likes.Count(ctx, r.PathValue("kind"), r.PathValue("targetId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "like count fetched", countResponse{Count: count})
}

type likeResponse struct {
	Liked bool `json:"liked"`
}
