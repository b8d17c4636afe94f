package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/videos"
)

// mp4Header is the smallest prefix http.DetectContentType reports as video/mp4.
var mp4Header = []byte{
	0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2',
	0x00, 0x00, 0x00, 0x00, 'i', 's', 'o', 'm', 'm', 'p', '4', '1',
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type stubVideoService struct {
	uploadInput  videos.UploadInput
	uploadActor  string
	stagedExists bool
	uploadErr    error

	info    videos.StreamingInfo
	infoErr error

	removeErr  error
	updateErr  error
	lastTitle  *string
	lastDesc   *string
	listOwner  string
	videosByID map[string]models.Video
}

func (s *stubVideoService) Upload(_ context.Context, actorID string, in videos.UploadInput) (videos.Uploaded, error) {
	s.uploadActor = actorID
	s.uploadInput = in
	_, errVideo := os.Stat(in.VideoPath)
	_, errThumb := os.Stat(in.ThumbnailPath)
	s.stagedExists = errVideo == nil && errThumb == nil
	if s.uploadErr != nil {
		return videos.Uploaded{}, s.uploadErr
	}
	return videos.Uploaded{
		Video:       models.Video{ID: "video-1", OwnerID: actorID, Title: in.Title},
		ManifestURL: "https://stream.example.com/vidhive/video/upload/sp_auto/videotube/abc.m3u8",
	}, nil
}

func (s *stubVideoService) GetStreamingInfo(_ context.Context, videoID string) (videos.StreamingInfo, error) {
	if s.infoErr != nil {
		return videos.StreamingInfo{}, s.infoErr
	}
	info := s.info
	info.VideoID = videoID
	return info, nil
}

func (s *stubVideoService) Remove(_ context.Context, actorID, videoID string) (models.Video, error) {
	if s.removeErr != nil {
		return models.Video{}, s.removeErr
	}
	return models.Video{ID: videoID, OwnerID: actorID}, nil
}

func (s *stubVideoService) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	s.listOwner = ownerID
	return []models.Video{{ID: "v2", OwnerID: ownerID}, {ID: "v1", OwnerID: ownerID}}, nil
}

func (s *stubVideoService) ListMine(ctx context.Context, actorID string) ([]models.Video, error) {
	return s.ListByOwner(ctx, actorID)
}

func (s *stubVideoService) UpdateText(_ context.Context, actorID, videoID string, newTitle, newDescription *string) (models.Video, error) {
	s.lastTitle = newTitle
	s.lastDesc = newDescription
	if s.updateErr != nil {
		return models.Video{}, s.updateErr
	}
	video := models.Video{ID: videoID, OwnerID: actorID}
	if newTitle != nil {
		video.Title = *newTitle
	}
	return video, nil
}

type uploadPart struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, fields map[string]string, files ...uploadPart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(f.content); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func stagedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestVideoHandlerUpload(t *testing.T) {
	dir := t.TempDir()
	svc := &stubVideoService{}
	handler := VideoHandler{Videos: svc, TempDir: dir}

	req := multipartRequest(t,
		map[string]string{"title": "  My first video ", "description": "hello"},
		uploadPart{field: "video", filename: "clip.mov", content: append(append([]byte{}, mp4Header...), bytes.Repeat([]byte{0x01}, 1024)...)},
		uploadPart{field: "thumbnail", filename: "thumb.bin", content: jpegHeader},
	)
	rec := httptest.NewRecorder()

	handler.Upload(rec, asActor(req, "user-1"))

	expectStatus(t, rec, http.StatusCreated)
	if svc.uploadActor != "user-1" {
		t.Fatalf("expected actor user-1, got %q", svc.uploadActor)
	}
	if svc.uploadInput.Title != "My first video" || svc.uploadInput.Description != "hello" {
		t.Fatalf("unexpected text fields %+v", svc.uploadInput)
	}
	if filepath.Ext(svc.uploadInput.VideoPath) != ".mp4" || filepath.Ext(svc.uploadInput.ThumbnailPath) != ".jpg" {
		t.Fatalf("expected sniffed extensions, got %q and %q", svc.uploadInput.VideoPath, svc.uploadInput.ThumbnailPath)
	}
	if !svc.stagedExists {
		t.Fatal("expected staged files to exist during upload")
	}
	if left := stagedFiles(t, dir); len(left) != 0 {
		t.Fatalf("expected staged files to be removed, found %v", left)
	}

	var uploaded videos.Uploaded
	decodeData(t, decodeEnvelope(t, rec), &uploaded)
	if uploaded.Video.ID != "video-1" || uploaded.ManifestURL == "" {
		t.Fatalf("unexpected response %+v", uploaded)
	}
}

func TestVideoHandlerUploadRejectsWrongContentType(t *testing.T) {
	dir := t.TempDir()
	svc := &stubVideoService{}
	handler := VideoHandler{Videos: svc, TempDir: dir}

	req := multipartRequest(t,
		map[string]string{"title": "not a video"},
		uploadPart{field: "video", filename: "clip.mp4", content: []byte("plain text pretending to be a video")},
		uploadPart{field: "thumbnail", filename: "thumb.jpg", content: jpegHeader},
	)
	rec := httptest.NewRecorder()

	handler.Upload(rec, asActor(req, "user-1"))

	expectStatus(t, rec, http.StatusBadRequest)
	if svc.uploadActor != "" {
		t.Fatal("service should not be called for rejected files")
	}
	if left := stagedFiles(t, dir); len(left) != 0 {
		t.Fatalf("expected no staged files, found %v", left)
	}
}

func TestVideoHandlerUploadRequiresBothFiles(t *testing.T) {
	dir := t.TempDir()
	handler := VideoHandler{Videos: &stubVideoService{}, TempDir: dir}

	req := multipartRequest(t,
		map[string]string{"title": "missing thumbnail"},
		uploadPart{field: "video", filename: "clip.mp4", content: mp4Header},
	)
	rec := httptest.NewRecorder()

	handler.Upload(rec, asActor(req, "user-1"))

	expectStatus(t, rec, http.StatusBadRequest)
	if env := decodeEnvelope(t, rec); env.Message != "thumbnail is required" {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if left := stagedFiles(t, dir); len(left) != 0 {
		t.Fatalf("expected staged video to be removed, found %v", left)
	}
}

func TestVideoHandlerUploadRequiresMultipart(t *testing.T) {
	handler := VideoHandler{Videos: &stubVideoService{}, TempDir: t.TempDir()}

	req := jsonRequest(t, http.MethodPost, "/api/v1/videos/upload", map[string]string{"title": "x"})
	rec := httptest.NewRecorder()

	handler.Upload(rec, asActor(req, "user-1"))

	expectStatus(t, rec, http.StatusBadRequest)
}

func TestVideoHandlerStream(t *testing.T) {
	svc := &stubVideoService{info: videos.StreamingInfo{ManifestURL: "https://stream.example.com/x.m3u8", Title: "t"}}
	handler := VideoHandler{Videos: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/v1/stream", nil)
	req.SetPathValue("videoId", "v1")
	rec := httptest.NewRecorder()

	handler.Stream(rec, req)

	expectStatus(t, rec, http.StatusOK)
	var info videos.StreamingInfo
	decodeData(t, decodeEnvelope(t, rec), &info)
	if info.VideoID != "v1" || info.ManifestURL == "" {
		t.Fatalf("unexpected info %+v", info)
	}

	svc.infoErr = apperr.NotFound("video not found")
	rec = httptest.NewRecorder()
	handler.Stream(rec, req)
	expectStatus(t, rec, http.StatusNotFound)
}

func TestVideoHandlerDeleteTranslatesErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{name: "ok", want: http.StatusOK},
		{name: "missing", err: apperr.NotFound("video not found"), want: http.StatusNotFound},
		{name: "not owner", err: apperr.Forbidden("you do not own this video"), want: http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := VideoHandler{Videos: &stubVideoService{removeErr: tc.err}}
			req := httptest.NewRequest(http.MethodDelete, "/api/v1/videos/v1", nil)
			req.SetPathValue("videoId", "v1")
			rec := httptest.NewRecorder()

			handler.Delete(rec, asActor(req, "user-1"))

			expectStatus(t, rec, tc.want)
		})
	}
}

func TestVideoHandlerUpdate(t *testing.T) {
	svc := &stubVideoService{}
	handler := VideoHandler{Videos: svc}

	req := jsonRequest(t, http.MethodPatch, "/api/v1/videos/v1", map[string]string{"newTitle": "Renamed"})
	req.SetPathValue("videoId", "v1")
	rec := httptest.NewRecorder()

	handler.Update(rec, asActor(req, "user-1"))

	expectStatus(t, rec, http.StatusOK)
	if svc.lastTitle == nil || *svc.lastTitle != "Renamed" {
		t.Fatalf("expected new title to be passed, got %v", svc.lastTitle)
	}
	if svc.lastDesc != nil {
		t.Fatalf("expected description to be absent, got %q", *svc.lastDesc)
	}
}

func TestVideoHandlerChannel(t *testing.T) {
	svc := &stubVideoService{}
	handler := VideoHandler{Videos: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channel/owner-9/videos", nil)
	req.SetPathValue("channelId", "owner-9")
	rec := httptest.NewRecorder()

	handler.Channel(rec, req)

	expectStatus(t, rec, http.StatusOK)
	var list []models.Video
	decodeData(t, decodeEnvelope(t, rec), &list)
	if svc.listOwner != "owner-9" || len(list) != 2 {
		t.Fatalf("unexpected listing for %q: %+v", svc.listOwner, list)
	}
}
