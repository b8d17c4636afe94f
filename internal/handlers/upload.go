package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/vidhive/backend/internal/apperr"
	"github.com/vidhive/backend/internal/logging"
)

const (
	sniffLen      = 512
	maxFieldBytes = 8 << 10
)

// Extensions by sniffed content type. The media store derives the object's
// content type from the staged file's extension.
var (
	videoTypes = map[string]string{
		"video/mp4":  ".mp4",
		"video/webm": ".webm",
	}
	imageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
)

// stagedUpload holds the files and text fields of a multipart upload.
type stagedUpload struct {
	files  map[string]string
	fields map[string]string
}

func (s *stagedUpload) cleanup(r *http.Request) {
	for _, path := range s.files {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(r.Context()).Warn("remove staged upload", slog.String("path", path), slog.Any("error", err))
		}
	}
}

// stageMultipart streams the request's file parts to temp files in dir. Each
// expected file field is checked against its allowed content types using the
// leading bytes. The caller must call cleanup even when an error is returned.
func stageMultipart(r *http.Request, dir string, fileTypes map[string]map[string]string) (*stagedUpload, error) {
	staged := &stagedUpload{files: make(map[string]string), fields: make(map[string]string)}

	reader, err := r.MultipartReader()
	if err != nil {
		return staged, apperr.Wrap(apperr.KindValidation, "expected a multipart form", err)
	}

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return staged, nil
		}
		if err != nil {
			return staged, multipartError(err)
		}

		name := part.FormName()
		allowed, isFile := fileTypes[name]
		switch {
		case isFile:
			if _, dup := staged.files[name]; dup {
				part.Close()
				return staged, apperr.Validation(fmt.Sprintf("%s was sent more than once", name))
			}
			path, err := stageFile(part, dir, name, allowed)
			part.Close()
			if path != "" {
				staged.files[name] = path
			}
			if err != nil {
				return staged, err
			}
		case name != "":
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			part.Close()
			if err != nil {
				return staged, multipartError(err)
			}
			if len(value) > maxFieldBytes {
				return staged, apperr.Validation(fmt.Sprintf("%s is too long", name))
			}
			staged.fields[name] = string(value)
		default:
			part.Close()
		}
	}
}

func stageFile(part *multipart.Part, dir, name string, allowed map[string]string) (string, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", multipartError(err)
	}
	head = head[:n]
	if n == 0 {
		return "", apperr.Validation(fmt.Sprintf("%s is empty", name))
	}

	contentType, _, _ := strings.Cut(http.DetectContentType(head), ";")
	ext, ok := allowed[contentType]
	if !ok {
		return "", apperr.Validation(fmt.Sprintf("%s has unsupported content type %s", name, contentType))
	}

	file, err := os.CreateTemp(dir, "vidhive-"+name+"-*"+ext)
	if err != nil {
		return "", apperr.Internal("create staging file", err)
	}
	path := file.Name()

	if _, err := io.Copy(file, io.MultiReader(bytes.NewReader(head), part)); err != nil {
		file.Close()
		return path, multipartError(err)
	}
	if err := file.Close(); err != nil {
		return path, apperr.Internal("close staging file", err)
	}
	return path, nil
}

func multipartError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperr.Validation("upload exceeds the size limit")
	}
	return apperr.Wrap(apperr.KindValidation, "malformed multipart body", err)
}
