package upload

import (
	"errors"
	"path/filepath"
	"strings"
)

var allowedExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
	".pdf":  true,
	".csv":  true,
	".txt":  true,
	".zip":  true,
	// Note: SVG is intentionally excluded due to XSS risk without sanitization
}

var allowedContentType = map[string]bool{
	"image/jpeg":               true,
	"image/png":                true,
	"image/gif":                true,
	"image/webp":               true,
	"image/avif":               true,
	"application/pdf":          true,
	"text/csv":                 true,
	"text/plain":               true,
	"application/zip":          true,
	"application/octet-stream": true,
}

// ValidatePresignRequest checks filename and declared content type before a
// presigned upload URL is issued. The bucket enforces the content type on
// PUT, so a client cannot smuggle a different type past this check.
func ValidatePresignRequest(filename, contentType string) (string, error) {
	if len(filename) > 255 {
		return "", errors.New("Dateiname ist zu lang")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", errors.New("Dieser Dateityp wird nicht unterstützt")
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	if strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml") {
		return "", errors.New("Ungültiger Dateityp: HTML-Inhalte sind nicht erlaubt")
	}
	if strings.HasPrefix(ct, "text/xml") || strings.HasPrefix(ct, "application/xml") || ct == "image/svg+xml" {
		// Block SVG/XML until sanitizer is available
		return "", errors.New("SVG/XML werden aus Sicherheitsgründen nicht unterstützt")
	}

	if !allowedContentType[ct] {
		return "", errors.New("Der Dateityp wird nicht unterstützt")
	}

	return ct, nil
}
