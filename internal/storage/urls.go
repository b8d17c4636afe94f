package storage

import "strings"

const (
	uploadMarker   = "upload"
	hlsTransform   = "sp_hls"
	manifestSuffix = ".m3u8"
)

// BuildManifestURL returns the adaptive-streaming manifest address for a
// stored video:
//
//	https://<host>/<namespace>/video/upload/sp_hls/<storedID>.m3u8
func BuildManifestURL(host, namespace, storedID string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.Trim(host, "/")

	segments := make([]string, 0, 5)
	if ns := strings.Trim(namespace, "/"); ns != "" {
		segments = append(segments, ns)
	}
	segments = append(segments, string(KindVideo), uploadMarker, hlsTransform, strings.Trim(storedID, "/")+manifestSuffix)

	return "https://" + host + "/" + strings.Join(segments, "/")
}

// URLBuilder is the configured form of BuildManifestURL.
type URLBuilder struct {
	Host      string
	Namespace string
}

// Manifest returns the manifest URL for storedID.
func (b URLBuilder) Manifest(storedID string) string {
	return BuildManifestURL(b.Host, b.Namespace, storedID)
}
