package assets

import (
	"encoding/base64"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
)

var dataURIPattern = regexp.MustCompile(`(?is)^data:([a-z0-9]+/[a-z0-9+\-.]+);base64,(.+)$`)

// UploadedFilePrefix names files received as data URIs.
const UploadedFilePrefix = "Uploaded_file"

var mimeExtensions = map[string]string{
	"image/jpeg":      "jpg",
	"image/png":       "png",
	"image/gif":       "gif",
	"image/webp":      "webp",
	"image/svg+xml":   "svg",
	"application/pdf": "pdf",
	"text/plain":      "txt",
	"text/csv":        "csv",
	"application/zip": "zip",
	"audio/mpeg":      "mp3",
	"video/mp4":       "mp4",
}

// IsDataURI reports whether s has the strict data:<mime>;base64,<payload> shape.
func IsDataURI(s string) bool {
	return dataURIPattern.MatchString(s)
}

// ParseDataURI decodes a data URI. An empty filename is derived from the mime type.
func ParseDataURI(s string, filename string) (models.Upload, error) {
	matches := dataURIPattern.FindStringSubmatch(s)
	if matches == nil {
		return models.Upload{}, fmt.Errorf("value is not a base64 data URI")
	}

	mimeType := strings.ToLower(matches[1])
	content, err := base64.StdEncoding.DecodeString(strings.TrimSpace(matches[2]))
	if err != nil {
		return models.Upload{}, fmt.Errorf("invalid base64 payload: %w", err)
	}

	if filename == "" {
		filename = UploadedFilePrefix + "." + extensionForMime(mimeType)
	}

	return models.Upload{
		Filename: filename,
		MimeType: mimeType,
		Content:  content,
	}, nil
}

func extensionForMime(mimeType string) string {
	if ext, ok := mimeExtensions[mimeType]; ok {
		return ext
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}
