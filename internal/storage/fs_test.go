package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFSStore(t *testing.T) {
	ctx := context.Background()
	tempDir := t.TempDir()

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create FSStore: %v", err)
	}

	t.Run("DownloadMissing", func(t *testing.T) {
		_, err := store.Download(ctx, "raw", "missing.png")
		if !errors.Is(err, ErrObjectNotFound) {
			t.Errorf("Expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("UploadAndDownload", func(t *testing.T) {
		data := []byte("png-bytes")
		if err := store.Upload(ctx, "raw", "meal-images/oats.png", data, "image/png"); err != nil {
			t.Fatalf("Failed to upload: %v", err)
		}

		filePath := filepath.Join(tempDir, "raw", "meal-images", "oats.png")
		if _, err := os.Stat(filePath); err != nil {
			t.Errorf("Expected file '%s' to be created: %v", filePath, err)
		}

		got, err := store.Download(ctx, "raw", "meal-images/oats.png")
		if err != nil {
			t.Fatalf("Failed to download: %v", err)
		}
		if string(got) != string(data) {
			t.Errorf("Expected %q, got %q", data, got)
		}
	})

	t.Run("RejectsEscapingKeys", func(t *testing.T) {
		if err := store.Upload(ctx, "raw", "../outside.png", []byte("x"), ""); err == nil {
			t.Error("Expected an error for a key escaping the bucket")
		}
		if err := store.Upload(ctx, "", "a.png", []byte("x"), ""); err == nil {
			t.Error("Expected an error for an empty bucket")
		}
	})
}

func TestContentTypeForKey(t *testing.T) {
	cases := map[string]string{
		"a.png":     "image/png",
		"dir/b.JPG": "image/jpeg",
		"c.jpeg":    "image/jpeg",
		"d.webp":    "image/webp",
		"e":         "application/octet-stream",
		"plan.json": "application/json",
	}
	for key, want := range cases {
		if got := ContentTypeForKey(key); got != want {
			t.Errorf("ContentTypeForKey(%q) = %q, want %q", key, got, want)
		}
	}
}
