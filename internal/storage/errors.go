package storage

import (
	"errors"
	"fmt"
	"path/filepath"
)

var (
	// ErrAssetNotFound indicates no stored object matches the identifier.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrUnrecognizedURL indicates a hosted URL does not carry a stored id.
	ErrUnrecognizedURL = errors.New("unrecognized asset url")
	// ErrUnsupportedKind indicates an asset kind other than video or image.
	ErrUnsupportedKind = errors.New("unsupported asset kind")
)

// UploadError reports a failed transfer of a local file to the media host.
type UploadError struct {
	Path string
	Kind Kind
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s asset %s: %v", e.Kind, filepath.Base(e.Path), e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// DeleteError reports a failed removal of a hosted asset.
type DeleteError struct {
	StoredID string
	Kind     Kind
	Err      error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s asset %s: %v", e.Kind, e.StoredID, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }
