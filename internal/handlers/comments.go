package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/comments"
	"github.com/vidhive/backend/internal/respond"
)

// CommentHandler provides the comment endpoints.
type CommentHandler struct {
	Comments CommentService
}

// Create handles POST /api/v1/comments/video/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comment, err := h.Comments.Create(ctx, actorID(r), r.PathValue("videoId"), req.Body)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusCreated, "comment added", comment)
}

// Edit handles PATCH /api/v1/comments/{commentId}.
func (h CommentHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	comment, err := h.Comments.Edit(ctx, actorID(r), r.PathValue("commentId"), req.Body)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "comment updated", comment)
}

// Delete handles DELETE /api/v1/comments/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.Comments.Delete(ctx, actorID(r), r.PathValue("commentId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "comment deleted", comment)
}

// List handles GET /api/v1/comments/video/{videoId}?page=&limit=.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page, err := parsePage(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	list, err := h.Comments.List(ctx, r.PathValue("videoId"), page)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "comments fetched", list)
}

// Count handles GET /api/v1/comments/video/{videoId}/count.
func (h CommentHandler) Count(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.Comments.Count(ctx, r.PathValue("videoId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "comment count fetched", countResponse{Count: count})
}

func parsePage(r *http.Request) (comments.Page, error) {
	query := r.URL.Query()
	var page comments.Page

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return comments.Page{}, apperr.Validation("page must be a number")
		}
		page.Page = n
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return comments.Page{}, apperr.Validation("limit must be a number")
		}
		page.Limit = n
	}
	return page, nil
}

type commentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

type countResponse struct {
	Count int64 `json:"count"`
}
