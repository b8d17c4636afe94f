package videos

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/repositories"
	"github.com/vidhive/backend/internal/storage"
)

type fakeVideoRepo struct {
	mu        sync.Mutex
	videos    map[string]models.Video
	createErr error
	findErr   error
}

func newFakeVideoRepo(videos ...models.Video) *fakeVideoRepo {
	repo := &fakeVideoRepo{videos: make(map[string]models.Video)}
	for _, v := range videos {
		repo.videos[v.ID] = v
	}
	return repo
}

func (r *fakeVideoRepo) Create(_ context.Context, video models.Video) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.videos[video.ID] = video
	return nil
}

func (r *fakeVideoRepo) FindByID(_ context.Context, id string) (models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return models.Video{}, r.findErr
	}
	video, ok := r.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (r *fakeVideoRepo) ListByOwner(_ context.Context, ownerID string) ([]models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Video
	for _, v := range r.videos {
		if v.OwnerID == ownerID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeVideoRepo) UpdateText(_ context.Context, id string, title, description *string, updatedAt time.Time) (models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if title != nil {
		video.Title = *title
	}
	if description != nil {
		video.Description = *description
	}
	video.UpdatedAt = updatedAt
	r.videos[id] = video
	return video, nil
}

func (r *fakeVideoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

func (r *fakeVideoRepo) ListMissingStoredIDs(context.Context) ([]models.Video, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Video
	for _, v := range r.videos {
		if v.VideoStoredID == "" || v.ThumbnailStoredID == "" {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeVideoRepo) SetStoredIDs(_ context.Context, id, videoStoredID, thumbnailStoredID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	video, ok := r.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.VideoStoredID = videoStoredID
	video.ThumbnailStoredID = thumbnailStoredID
	r.videos[id] = video
	return nil
}

func (r *fakeVideoRepo) get(id string) (models.Video, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.videos[id]
	return v, ok
}

type fakePendingRepo struct {
	mu      sync.Mutex
	markers map[string]models.PendingUpload
}

func newFakePendingRepo(markers ...models.PendingUpload) *fakePendingRepo {
	repo := &fakePendingRepo{markers: make(map[string]models.PendingUpload)}
	for _, m := range markers {
		repo.markers[m.ID] = m
	}
	return repo
}

func (r *fakePendingRepo) Create(_ context.Context, upload models.PendingUpload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[upload.ID] = upload
	return nil
}

func (r *fakePendingRepo) Update(_ context.Context, upload models.PendingUpload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.markers[upload.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.markers[upload.ID] = upload
	return nil
}

func (r *fakePendingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.markers[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.markers, id)
	return nil
}

func (r *fakePendingRepo) ListStale(_ context.Context, before time.Time, _ int) ([]models.PendingUpload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PendingUpload
	for _, m := range r.markers {
		if m.CreatedAt.Before(before) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakePendingRepo) all() []models.PendingUpload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.PendingUpload, 0, len(r.markers))
	for _, m := range r.markers {
		out = append(out, m)
	}
	return out
}

type fakeMedia struct {
	mu        sync.Mutex
	uploadErr map[storage.Kind]error
	deleteErr map[string]error
	failTimes map[string]int
	uploads   int
	reserved  int
	untouched map[string]bool
	deleted   []string
	attempts  map[string]int
	onUpload  func(storedID string, kind storage.Kind)
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{
		uploadErr: make(map[storage.Kind]error),
		deleteErr: make(map[string]error),
		failTimes: make(map[string]int),
		untouched: make(map[string]bool),
		attempts:  make(map[string]int),
	}
}

func (m *fakeMedia) NewStoredID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserved++
	id := fmt.Sprintf("videotube/asset-%d", m.reserved)
	m.untouched[id] = true
	return id
}

func (m *fakeMedia) Upload(_ context.Context, localPath string, kind storage.Kind, storedID string) (storage.Asset, error) {
	if m.onUpload != nil {
		m.onUpload(storedID, kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.uploadErr[kind]; err != nil {
		return storage.Asset{}, &storage.UploadError{Path: localPath, Kind: kind, Err: err}
	}
	m.uploads++
	if storedID == "" {
		storedID = fmt.Sprintf("videotube/%s-%d", kind, m.uploads)
	}
	delete(m.untouched, storedID)
	ext := ".mp4"
	if kind == storage.KindImage {
		ext = ".jpg"
	}
	return storage.Asset{
		StoredID:        storedID,
		URL:             "https://media.example.com/vidhive/" + string(kind) + "/upload/" + storedID + ext,
		DurationSeconds: 42,
		Kind:            kind,
	}, nil
}

// Delete reports reserved ids that never received an upload as missing, the
// way the object store does.
func (m *fakeMedia) Delete(_ context.Context, storedID string, kind storage.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[storedID]++
	if m.untouched[storedID] {
		return &storage.DeleteError{StoredID: storedID, Kind: kind, Err: storage.ErrAssetNotFound}
	}
	if remaining := m.failTimes[storedID]; remaining > 0 {
		m.failTimes[storedID] = remaining - 1
		return &storage.DeleteError{StoredID: storedID, Kind: kind, Err: fmt.Errorf("provider unavailable")}
	}
	if err := m.deleteErr[storedID]; err != nil {
		return &storage.DeleteError{StoredID: storedID, Kind: kind, Err: err}
	}
	m.deleted = append(m.deleted, storedID)
	return nil
}

func (m *fakeMedia) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.deleted...)
	sort.Strings(out)
	return out
}

func (m *fakeMedia) attemptsFor(storedID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[storedID]
}

type fakeComments struct {
	byVideo map[string][]string
	calls   []string
}

func (c *fakeComments) DeleteByVideo(_ context.Context, videoID string) ([]string, error) {
	c.calls = append(c.calls, videoID)
	ids := c.byVideo[videoID]
	delete(c.byVideo, videoID)
	return ids, nil
}

type likeCascadeCall struct {
	target models.LikeTarget
	ids    []string
}

type fakeLikes struct {
	calls []likeCascadeCall
}

func (l *fakeLikes) DeleteByTargets(_ context.Context, target models.LikeTarget, ids []string) (int64, error) {
	l.calls = append(l.calls, likeCascadeCall{target: target, ids: append([]string(nil), ids...)})
	return int64(len(ids)), nil
}

type fakeQueue struct {
	queued []AssetDeletion
}

func (q *fakeQueue) Enqueue(_ context.Context, deletion AssetDeletion) error {
	q.queued = append(q.queued, deletion)
	return nil
}

func sequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}
