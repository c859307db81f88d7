package upload

import (
	"strings"
	"testing"
)

func TestValidatePresignRequest_AllowedTypes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"photo.jpg", "image/jpeg", "image/jpeg"},
		{"report.pdf", "application/pdf", "application/pdf"},
		{"data.csv", "text/csv; charset=utf-8", "text/csv"},
		{"archive.zip", "application/zip", "application/zip"},
		{"blob.png", "", "application/octet-stream"},
	}
	for _, tc := range cases {
		got, err := ValidatePresignRequest(tc.filename, tc.contentType)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.filename, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.filename, tc.want, got)
		}
	}
}

func TestValidatePresignRequest_RejectsDangerousTypes(t *testing.T) {
	t.Parallel()

	if _, err := ValidatePresignRequest("image.svg", "image/svg+xml"); err == nil {
		t.Fatalf("expected SVG to be rejected")
	}
	if _, err := ValidatePresignRequest("page.txt", "text/html"); err == nil {
		t.Fatalf("expected HTML content type to be rejected")
	}
	if _, err := ValidatePresignRequest("script.exe", "application/octet-stream"); err == nil {
		t.Fatalf("expected unknown extension to be rejected")
	}
}

func TestValidatePresignRequest_RejectsOverlongFilename(t *testing.T) {
	t.Parallel()

	name := strings.Repeat("a", 300) + ".png"
	if _, err := ValidatePresignRequest(name, "image/png"); err == nil {
		t.Fatalf("expected overlong filename to be rejected")
	}
}
