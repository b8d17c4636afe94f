package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// DeriveStoredID recovers a stored id from a hosted asset URL. It exists for
// records written before stored ids were persisted; new code reads the id
// from the record instead.
//
// The id is whatever follows the first "<kind>/upload" pair, minus the file
// extension. A manifest URL carries exactly one "sp_hls" segment after the
// pair; a delivery URL may carry one version ("v1712345") segment instead.
// Only that single leading segment is dropped, so folders that look like a
// version or transform survive.
func DeriveStoredID(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnrecognizedURL, err)
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	marker := -1
	for i := 0; i+1 < len(segments); i++ {
		if isKindSegment(segments[i]) && segments[i+1] == uploadMarker {
			marker = i + 1
			break
		}
	}
	if marker < 0 {
		return "", fmt.Errorf("%w: no kind/%s pair in %q", ErrUnrecognizedURL, uploadMarker, rawURL)
	}

	rest := segments[marker+1:]
	if len(rest) > 1 && (rest[0] == hlsTransform || isVersionSegment(rest[0])) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", fmt.Errorf("%w: no identifier after %q in %q", ErrUnrecognizedURL, uploadMarker, rawURL)
	}

	last := rest[len(rest)-1]
	last = strings.TrimSuffix(last, path.Ext(last))
	if last == "" {
		return "", fmt.Errorf("%w: empty identifier in %q", ErrUnrecognizedURL, rawURL)
	}

	parts := append(append([]string{}, rest[:len(rest)-1]...), last)
	for _, part := range parts {
		if part == "" {
			return "", fmt.Errorf("%w: empty path segment in %q", ErrUnrecognizedURL, rawURL)
		}
	}

	return strings.Join(parts, "/"), nil
}

func isKindSegment(segment string) bool {
	return segment == string(KindVideo) || segment == string(KindImage)
}

func isVersionSegment(segment string) bool {
	if len(segment) < 2 || segment[0] != 'v' {
		return false
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
