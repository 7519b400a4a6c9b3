package storage

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestStorage(t *testing.T, prefix string) *Storage {
	t.Helper()
	s, err := New(context.Background(), Config{
		Endpoint:  "http://localhost:9000",
		Bucket:    "media",
		Prefix:    prefix,
		AccessKey: "test",
		SecretKey: "test",
	})
	if err != nil {
		t.Fatalf("expected no error creating storage client, got: %v", err)
	}
	return s
}

func TestObjectKeyStripsLeadingSlash(t *testing.T) {
	s := newTestStorage(t, "")
	if got := s.ObjectKey("/movies/a.mkv"); got != "movies/a.mkv" {
		t.Errorf("expected movies/a.mkv, got %q", got)
	}
}

func TestObjectKeyAppliesPrefix(t *testing.T) {
	s := newTestStorage(t, "media/")
	if got := s.ObjectKey("/movies/a.mkv"); got != "media/movies/a.mkv" {
		t.Errorf("expected media/movies/a.mkv, got %q", got)
	}
}

func TestGenerateDownloadURLIsPresigned(t *testing.T) {
	s := newTestStorage(t, "")
	u, err := s.GenerateDownloadURL(context.Background(), "/movies/a.mkv", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(u, "http://localhost:9000/media/movies/a.mkv?") {
		t.Errorf("unexpected presigned URL: %s", u)
	}
	if !strings.Contains(u, "X-Amz-Signature=") {
		t.Errorf("expected signature in presigned URL, got %s", u)
	}
}

func TestGenerateDownloadURLWithDispositionSetsAttachment(t *testing.T) {
	s := newTestStorage(t, "")
	u, err := s.GenerateDownloadURLWithDisposition(context.Background(), "/a.mkv", `we"ird.mkv`, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(u, "response-content-disposition=") {
		t.Errorf("expected content disposition override, got %s", u)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := sanitizeFilename("a\"b\\c\n.mkv"); got != "a_b_c_.mkv" {
		t.Errorf("expected a_b_c_.mkv, got %q", got)
	}
}
