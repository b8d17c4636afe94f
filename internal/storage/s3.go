package storage

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/vidhive/backend/internal/config"
	"github.com/vidhive/backend/internal/logging"
)

// Kind distinguishes the two asset families kept on the media host.
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

func (k Kind) valid() bool { return k == KindVideo || k == KindImage }

// Asset describes an object stored on the media host.
type Asset struct {
	StoredID        string
	URL             string
	DurationSeconds float64
	Kind            Kind
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectAPI interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// MediaStore keeps video and image assets on an S3-compatible service.
type MediaStore struct {
	uploader  objectUploader
	objects   objectAPI
	prober    Prober
	bucket    string
	namespace string
	folder    string
	baseURL   string
	newID     func() string
}

// NewMediaStore configures a client and uploader targeting the provided
// object store. prober may be nil, in which case durations are left at zero.
func NewMediaStore(ctx context.Context, cfg config.ObjectStoreConfig, prober Prober) (*MediaStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("media store: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return &MediaStore{
		uploader:  uploader,
		objects:   client,
		prober:    prober,
		bucket:    cfg.Bucket,
		namespace: strings.Trim(cfg.Namespace, "/"),
		folder:    strings.Trim(cfg.Folder, "/"),
		baseURL:   strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		newID:     uuid.NewString,
	}, nil
}

// NewStoredID reserves an identifier for an upload that has not started yet.
func (s *MediaStore) NewStoredID() string {
	return s.storedID()
}

// Upload transfers the file at localPath to the media host under storedID.
// An empty storedID gets a fresh one. For videos the duration is probed
// locally; a failed probe is logged and leaves it at zero.
func (s *MediaStore) Upload(ctx context.Context, localPath string, kind Kind, storedID string) (Asset, error) {
	if !kind.valid() {
		return Asset{}, &UploadError{Path: localPath, Kind: kind, Err: ErrUnsupportedKind}
	}
	storedID = strings.Trim(strings.TrimSpace(storedID), "/")
	if storedID == "" {
		storedID = s.storedID()
	}

	file, err := os.Open(localPath)
	if err != nil {
		return Asset{}, &UploadError{Path: localPath, Kind: kind, Err: err}
	}
	defer file.Close()

	logger := logging.FromContext(ctx)

	var duration float64
	if kind == KindVideo && s.prober != nil {
		probed, err := s.prober.Duration(ctx, localPath)
		if err != nil {
			logger.Warn("probe video duration", slog.String("file", filepath.Base(localPath)), slog.Any("error", err))
		} else {
			duration = probed
		}
	}

	ext := strings.ToLower(filepath.Ext(localPath))
	key := s.objectKey(kind, storedID) + ext

	contentType := contentTypeFor(ext)

	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType),
	}); err != nil {
		return Asset{}, &UploadError{Path: localPath, Kind: kind, Err: err}
	}

	logger.Info("asset uploaded", slog.String("kind", string(kind)), slog.String("stored_id", storedID))

	return Asset{
		StoredID:        storedID,
		URL:             s.publicURL(key),
		DurationSeconds: duration,
		Kind:            kind,
	}, nil
}

// Delete removes every object stored under storedID for the given kind.
func (s *MediaStore) Delete(ctx context.Context, storedID string, kind Kind) error {
	storedID = strings.Trim(strings.TrimSpace(storedID), "/")
	if !kind.valid() {
		return &DeleteError{StoredID: storedID, Kind: kind, Err: ErrUnsupportedKind}
	}
	if storedID == "" {
		return &DeleteError{StoredID: storedID, Kind: kind, Err: ErrAssetNotFound}
	}

	prefix := s.objectKey(kind, storedID) + "."
	paginator := s3.NewListObjectsV2Paginator(s.objects, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return &DeleteError{StoredID: storedID, Kind: kind, Err: fmt.Errorf("list objects: %w", err)}
		}
		for _, obj := range page.Contents {
			if _, err := s.objects.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				return &DeleteError{StoredID: storedID, Kind: kind, Err: fmt.Errorf("delete object %s: %w", aws.ToString(obj.Key), err)}
			}
			deleted++
		}
	}

	if deleted == 0 {
		return &DeleteError{StoredID: storedID, Kind: kind, Err: ErrAssetNotFound}
	}
	return nil
}

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

func contentTypeFor(ext string) string {
	if contentType, ok := contentTypes[ext]; ok {
		return contentType
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func (s *MediaStore) storedID() string {
	id := s.newID()
	if s.folder == "" {
		return id
	}
	return s.folder + "/" + id
}

func (s *MediaStore) objectKey(kind Kind, storedID string) string {
	return path.Join(s.namespace, string(kind), uploadMarker, storedID)
}

func (s *MediaStore) publicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return s.baseURL + "/" + key
}
