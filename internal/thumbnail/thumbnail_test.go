package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"

	"mealhow/internal/config"
	"mealhow/internal/logger"
	"mealhow/internal/storage"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string][]byte)}
}

func (m *memoryStore) Upload(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = data
	return nil
}

func (m *memoryStore) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestFitWithin(t *testing.T) {
	cases := []struct {
		w, h, box    int
		wantW, wantH int
	}{
		{2048, 1024, 512, 512, 256},
		{1024, 2048, 512, 256, 512},
		{1024, 1024, 256, 256, 256},
		{300, 200, 512, 300, 200},
	}
	for _, tc := range cases {
		w, h := FitWithin(tc.w, tc.h, tc.box, tc.box)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("FitWithin(%d, %d, %d) = %dx%d, want %dx%d", tc.w, tc.h, tc.box, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestFlattenUsesWhiteBackground(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	flat := Flatten(src)
	r, g, b, _ := flat.At(0, 0).RGBA()
	if r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("Expected transparent pixels to become white, got %d,%d,%d", r, g, b)
	}
}

func TestConvert(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{ThumbnailBucket: "public", ThumbnailDir: "meal-images"}

	t.Run("CreatesAllSizes", func(t *testing.T) {
		store := newMemoryStore()
		store.objects["raw/oats.png"] = pngBytes(t, 600, 300, color.NRGBA{R: 200, A: 255})

		keys, err := NewConverter(cfg, store, logger.Nop()).Convert(ctx, "raw", "oats.png")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(keys) != 3 {
			t.Fatalf("Expected 3 thumbnails, got %v", keys)
		}

		wantSizes := map[string][2]int{
			"public/meal-images/oats_256x256.jpg":   {256, 128},
			"public/meal-images/oats_512x512.jpg":   {512, 256},
			"public/meal-images/oats_1024x1024.jpg": {600, 300},
		}
		for key, size := range wantSizes {
			data, ok := store.objects[key]
			if !ok {
				t.Errorf("Expected %s to be uploaded", key)
				continue
			}
			img, err := jpeg.Decode(bytes.NewReader(data))
			if err != nil {
				t.Errorf("Expected %s to be a JPEG: %v", key, err)
				continue
			}
			if b := img.Bounds(); b.Dx() != size[0] || b.Dy() != size[1] {
				t.Errorf("%s: got %dx%d, want %dx%d", key, b.Dx(), b.Dy(), size[0], size[1])
			}
		}
	})

	t.Run("SkipsThumbnailsAndNonImages", func(t *testing.T) {
		store := newMemoryStore()
		conv := NewConverter(cfg, store, logger.Nop())

		for _, name := range []string{"meal-images/oats_256x256.jpg", "notes.txt"} {
			keys, err := conv.Convert(ctx, "raw", name)
			if err != nil || keys != nil {
				t.Errorf("Expected %s to be skipped, got %v, %v", name, keys, err)
			}
		}
	})

	t.Run("MissingObject", func(t *testing.T) {
		conv := NewConverter(cfg, newMemoryStore(), logger.Nop())
		if _, err := conv.Convert(ctx, "raw", "missing.png"); !errors.Is(err, storage.ErrObjectNotFound) {
			t.Errorf("Expected ErrObjectNotFound, got %v", err)
		}
	})

	t.Run("CorruptImage", func(t *testing.T) {
		store := newMemoryStore()
		store.objects["raw/bad.png"] = []byte("not an image")
		if _, err := NewConverter(cfg, store, logger.Nop()).Convert(ctx, "raw", "bad.png"); err == nil {
			t.Error("Expected a decode error")
		}
	})
}
