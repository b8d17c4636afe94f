package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/vidhive/backend/internal/respond"
	"github.com/vidhive/backend/internal/videos"
)

// VideoHandler provides the video endpoints.
type VideoHandler struct {
	Videos VideoService
	// TempDir stages multipart uploads; empty means the OS default.
	TempDir string
}

// Upload handles POST /api/v1/videos/upload.
func (h VideoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dir := h.TempDir
	if dir == "" {
		dir = os.TempDir()
	}

	staged, err := stageMultipart(r, dir, map[string]map[string]string{
		"video":     videoTypes,
		"thumbnail": imageTypes,
	})
	defer staged.cleanup(r)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	form := uploadForm{
		Title:       strings.TrimSpace(staged.fields["title"]),
		Description: strings.TrimSpace(staged.fields["description"]),
		Video:       staged.files["video"],
		Thumbnail:   staged.files["thumbnail"],
	}
	if err := validateStruct(&form); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	uploaded, err := h.Videos.Upload(ctx, actorID(r), videos.UploadInput{
		VideoPath:     form.Video,
		ThumbnailPath: form.Thumbnail,
		Title:         form.Title,
		Description:   form.Description,
	})
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusCreated, "video uploaded", uploaded)
}

// Stream handles GET /api/v1/videos/{videoId}/stream.
func (h VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	info, err := h.Videos.GetStreamingInfo(ctx, r.PathValue("videoId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "streaming info fetched", info)
}

// Delete handles DELETE /api/v1/videos/{videoId}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.Videos.Remove(ctx, actorID(r), r.PathValue("videoId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "video deleted", video)
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req updateVideoRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(ctx, w, err)
		return
	}

	video, err := h.Videos.UpdateText(ctx, actorID(r), r.PathValue("videoId"), req.NewTitle, req.NewDescription)
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "video updated", video)
}

// Mine handles GET /api/v1/videos/my.
func (h VideoHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.Videos.ListMine(ctx, actorID(r))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "videos fetched", list)
}

// Channel handles GET /api/v1/channel/{channelId}/videos.
func (h VideoHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	list, err := h.Videos.ListByOwner(ctx, r.PathValue("channelId"))
	if err != nil {
		respond.Error(ctx, w, err)
		return
	}

	respond.OK(ctx, w, http.StatusOK, "videos fetched", list)
}

type uploadForm struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Video       string `json:"video" validate:"required"`
	Thumbnail   string `json:"thumbnail" validate:"required"`
}

type updateVideoRequest struct {
	NewTitle       *string `json:"newTitle" validate:"omitempty,max=200"`
	NewDescription *string `json:"newDescription" validate:"omitempty,max=5000"`
}
