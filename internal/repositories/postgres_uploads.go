package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/vidhive/backend/internal/db"
	"github.com/vidhive/backend/internal/models"
)

// PostgresPendingUploadRepository persists upload saga markers in PostgreSQL.
type PostgresPendingUploadRepository struct {
	pool db.Pool
}

// NewPostgresPendingUploadRepository constructs a marker repository backed by PostgreSQL.
func NewPostgresPendingUploadRepository(pool db.Pool) *PostgresPendingUploadRepository {
	return &PostgresPendingUploadRepository{pool: pool}
}

// Create stores a new marker.
func (r *PostgresPendingUploadRepository) Create(ctx context.Context, upload models.PendingUpload) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO pending_uploads (id, video_id, owner_id, video_stored_id, thumbnail_stored_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, upload.ID, upload.VideoID, upload.OwnerID, upload.VideoStoredID, upload.ThumbnailStoredID, upload.CreatedAt)
	if err != nil {
		return wrapWriteError("insert pending upload", err)
	}

	return nil
}

// Update records the stored ids reached so far.
func (r *PostgresPendingUploadRepository) Update(ctx context.Context, upload models.PendingUpload) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE pending_uploads
        SET video_stored_id = $2, thumbnail_stored_id = $3
        WHERE id = $1
    `, upload.ID, upload.VideoStoredID, upload.ThumbnailStoredID)
	if err != nil {
		return fmt.Errorf("update pending upload: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a marker.
func (r *PostgresPendingUploadRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.pool, "pending_uploads", id)
}

// ListStale returns markers created before the cutoff, oldest first.
func (r *PostgresPendingUploadRepository) ListStale(ctx context.Context, before time.Time, limit int) ([]models.PendingUpload, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if limit <= 0 {
		limit = 100
	}

	rows, err := conn.Query(ctx, `
        SELECT id, video_id, owner_id, video_stored_id, thumbnail_stored_id, created_at
        FROM pending_uploads
        WHERE created_at < $1
        ORDER BY created_at
        LIMIT $2
    `, before, limit)
	if err != nil {
		return nil, fmt.Errorf("query stale uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]models.PendingUpload, 0)
	for rows.Next() {
		var u models.PendingUpload
		if err := rows.Scan(&u.ID, &u.VideoID, &u.OwnerID, &u.VideoStoredID, &u.ThumbnailStoredID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending upload: %w", err)
		}
		uploads = append(uploads, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stale uploads: %w", err)
	}

	return uploads, nil
}

var _ PendingUploadRepository = (*PostgresPendingUploadRepository)(nil)
