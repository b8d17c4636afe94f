package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vidhive/backend/internal/logging"
	"github.com/vidhive/backend/internal/models"
	"github.com/vidhive/backend/internal/repositories"
	"github.com/vidhive/backend/internal/storage"
)

const attemptTimeout = 30 * time.Second

// AssetRemover deletes hosted assets.
type AssetRemover interface {
	Delete(ctx context.Context, storedID string, kind storage.Kind) error
}

// VideoFinder loads video records.
type VideoFinder interface {
	FindByID(ctx context.Context, id string) (models.Video, error)
}

// JanitorConfig controls the retry workers and the reconciliation sweep.
type JanitorConfig struct {
	QueueSize    int
	Workers      int
	MaxAttempts  int
	RetryBackoff time.Duration
	StaleAfter   time.Duration
	SweepBatch   int
}

// SweepReport summarises one reconciliation pass over stale markers.
type SweepReport struct {
	Scanned   int
	Resolved  int
	Reclaimed int
	Failed    int
}

// Janitor retries failed asset deletions on a worker pool and reconciles
// pending uploads that never completed.
type Janitor struct {
	media   AssetRemover
	pending repositories.PendingUploadRepository
	videos  VideoFinder
	cfg     JanitorConfig
	logger  *slog.Logger
	now     func() time.Time

	jobs   chan deletionJob
	stop   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

type deletionJob struct {
	deletion AssetDeletion
	attempt  int
}

// NewJanitor constructs the janitor and starts its workers.
func NewJanitor(media AssetRemover, pending repositories.PendingUploadRepository, videos VideoFinder, cfg JanitorConfig, logger *slog.Logger) *Janitor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = 2 * time.Hour
	}
	if cfg.SweepBatch <= 0 {
		cfg.SweepBatch = 100
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	j := &Janitor{
		media:   media,
		pending: pending,
		videos:  videos,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "janitor")),
		now:     time.Now,
		jobs:    make(chan deletionJob, cfg.QueueSize),
		stop:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	j.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go j.worker()
	}

	return j
}

// Enqueue schedules a deletion for retry.
func (j *Janitor) Enqueue(ctx context.Context, deletion AssetDeletion) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.stop:
		return ErrJanitorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-j.stop:
		return ErrJanitorClosed
	case j.jobs <- deletionJob{deletion: deletion}:
		return nil
	}
}

// Shutdown stops accepting work and waits for queued deletions to drain.
func (j *Janitor) Shutdown(ctx context.Context) error {
	j.once.Do(func() { close(j.stop) })

	done := make(chan struct{})
	go func() {
		j.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		j.cancel()
		return ctx.Err()
	case <-done:
		j.cancel()
		return nil
	}
}

func (j *Janitor) worker() {
	defer j.wg.Done()

	for {
		select {
		case job := <-j.jobs:
			j.handle(job)
		case <-j.stop:
			for {
				select {
				case job := <-j.jobs:
					j.handle(job)
				default:
					return
				}
			}
		}
	}
}

func (j *Janitor) handle(job deletionJob) {
	job.attempt++
	logger := j.logger.With(
		slog.String("video_id", job.deletion.VideoID),
		slog.String("stored_id", job.deletion.StoredID),
		slog.String("kind", string(job.deletion.Kind)),
		slog.Int("attempt", job.attempt),
	)

	ctx, cancel := context.WithTimeout(j.ctx, attemptTimeout)
	err := j.media.Delete(ctx, job.deletion.StoredID, job.deletion.Kind)
	cancel()

	if err == nil || errors.Is(err, storage.ErrAssetNotFound) {
		logger.Info("asset deleted on retry")
		return
	}
	if job.attempt >= j.cfg.MaxAttempts {
		logger.Error("asset deletion abandoned", slog.Any("error", err))
		return
	}

	backoff := j.cfg.RetryBackoff << (job.attempt - 1)
	logger.Warn("asset deletion failed; retrying", slog.Duration("backoff", backoff), slog.Any("error", err))
	time.AfterFunc(backoff, func() { j.requeue(job, logger) })
}

func (j *Janitor) requeue(job deletionJob, logger *slog.Logger) {
	select {
	case <-j.stop:
		logger.Error("janitor stopped; asset deletion dropped")
		return
	default:
	}

	select {
	case j.jobs <- job:
	default:
		logger.Error("janitor queue full; asset deletion dropped")
	}
}

// Run sweeps stale pending uploads every interval until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil {
				j.logger.Error("sweep failed", slog.Any("error", err))
			}
		}
	}
}

// Sweep reconciles markers older than the configured age. A marker whose
// video record exists is simply cleared. Otherwise its assets are deleted and
// the marker is cleared once nothing is left.
func (j *Janitor) Sweep(ctx context.Context) (SweepReport, error) {
	ctx = logging.WithLogger(ctx, j.logger)
	ctx, span := logging.StartSpan(ctx, "videos.sweep")
	defer span.End()

	cutoff := j.now().UTC().Add(-j.cfg.StaleAfter)
	stale, err := j.pending.ListStale(ctx, cutoff, j.cfg.SweepBatch)
	if err != nil {
		span.Fail(err)
		return SweepReport{}, fmt.Errorf("list stale uploads: %w", err)
	}

	logger := logging.FromContext(ctx)
	report := SweepReport{Scanned: len(stale)}
	for _, marker := range stale {
		markerLogger := logger.With(slog.String("pending_id", marker.ID), slog.String("video_id", marker.VideoID))

		_, err := j.videos.FindByID(ctx, marker.VideoID)
		switch {
		case err == nil:
			if err := j.pending.Delete(ctx, marker.ID); err != nil {
				markerLogger.Warn("clear completed marker", slog.Any("error", err))
				report.Failed++
				continue
			}
			report.Resolved++
			continue
		case !errors.Is(err, repositories.ErrNotFound):
			markerLogger.Warn("look up marker video", slog.Any("error", err))
			report.Failed++
			continue
		}

		if !j.reclaim(ctx, markerLogger, marker) {
			report.Failed++
			continue
		}
		if err := j.pending.Delete(ctx, marker.ID); err != nil {
			markerLogger.Warn("clear reclaimed marker", slog.Any("error", err))
			report.Failed++
			continue
		}
		report.Reclaimed++
	}

	logger.Info("sweep finished",
		slog.Int("scanned", report.Scanned),
		slog.Int("resolved", report.Resolved),
		slog.Int("reclaimed", report.Reclaimed),
		slog.Int("failed", report.Failed),
	)
	return report, nil
}

func (j *Janitor) reclaim(ctx context.Context, logger *slog.Logger, marker models.PendingUpload) bool {
	ok := true
	for _, asset := range markerAssets(marker) {
		attemptCtx, cancel := context.WithTimeout(ctx, attemptTimeout)
		err := j.media.Delete(attemptCtx, asset.StoredID, asset.Kind)
		cancel()
		if err == nil || errors.Is(err, storage.ErrAssetNotFound) {
			continue
		}
		ok = false
		logger.Warn("reclaim orphaned asset",
			slog.String("stored_id", asset.StoredID),
			slog.String("kind", string(asset.Kind)),
			slog.Any("error", err),
		)
	}
	return ok
}

var _ DeletionQueue = (*Janitor)(nil)
