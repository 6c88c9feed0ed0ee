package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"mealhow/internal/config"
	"mealhow/internal/logger"
	"mealhow/internal/meal"
	"mealhow/internal/storage"
)

const jpegQuality = 90

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// Converter re-encodes uploaded meal images into JPEG thumbnails.
type Converter struct {
	store  storage.ObjectStore
	bucket string
	dir    string
	log    *logger.Logger
}

// NewConverter creates a new Converter writing to the configured thumbnail bucket and directory.
func NewConverter(cfg *config.Config, store storage.ObjectStore, log *logger.Logger) *Converter {
	return &Converter{
		store:  store,
		bucket: cfg.ThumbnailBucket,
		dir:    strings.Trim(cfg.ThumbnailDir, "/"),
		log:    log.With("service", "ThumbnailConverter"),
	}
}

// Convert renders bucket/objectName into every thumbnail size and returns the
// written keys. Thumbnails themselves and non-image objects are skipped.
func (c *Converter) Convert(ctx context.Context, bucket, objectName string) ([]string, error) {
	ext := strings.ToLower(path.Ext(objectName))
	if !imageExtensions[ext] || (c.dir != "" && strings.HasPrefix(objectName, c.dir+"/")) {
		c.log.Debug("Skipping object", "bucket", bucket, "name", objectName)
		return nil, nil
	}

	data, err := c.store.Download(ctx, bucket, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", objectName, err)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", objectName, err)
	}
	flat := Flatten(src)

	base := strings.TrimSuffix(objectName, path.Ext(objectName))
	keys := make([]string, len(meal.ThumbnailSizes))

	eg, egctx := errgroup.WithContext(ctx)
	for i, size := range meal.ThumbnailSizes {
		eg.Go(func() error {
			encoded, err := Encode(Resize(flat, size, size))
			if err != nil {
				return fmt.Errorf("failed to encode %dx%d thumbnail: %w", size, size, err)
			}

			key := fmt.Sprintf("%s_%dx%d.jpg", base, size, size)
			if c.dir != "" {
				key = c.dir + "/" + key
			}
			if err := c.store.Upload(egctx, c.bucket, key, encoded, "image/jpeg"); err != nil {
				return fmt.Errorf("failed to upload %s: %w", key, err)
			}
			keys[i] = key
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	c.log.Info("Thumbnails created", "source", objectName, "format", format, "count", len(keys))
	return keys, nil
}

// Flatten draws src over a white background, dropping transparency.
func Flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// FitWithin scales w x h down to fit the box, keeping the aspect ratio. Images
// already inside the box keep their size.
func FitWithin(w, h, boxW, boxH int) (int, int) {
	if w <= boxW && h <= boxH {
		return w, h
	}
	if w*boxH > h*boxW {
		return boxW, max(1, h*boxW/w)
	}
	return max(1, w*boxH/h), boxH
}

// Resize fits src within boxW x boxH using Catmull-Rom resampling.
func Resize(src image.Image, boxW, boxH int) image.Image {
	b := src.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), boxW, boxH)
	if w == b.Dx() && h == b.Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

// Encode writes img as JPEG.
func Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
