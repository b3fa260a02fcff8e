package storage

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	// MaxImageDimension bounds the longest side of stored document images.
	MaxImageDimension = 1200
	JPEGQuality       = 80
)

// IsImage reports whether the content type is a raster image we re-encode.
func IsImage(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	}
	return false
}

// CompressImage downscales to maxDimension keeping the aspect ratio and
// re-encodes as JPEG.
func CompressImage(data []byte, maxDimension int, quality int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (format: %s): %w", format, err)
	}

	bounds := img.Bounds()
	width, height := scaledSize(bounds.Dx(), bounds.Dy(), maxDimension)

	resized := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

func scaledSize(width, height, maxDimension int) (int, int) {
	if width >= height && width > maxDimension {
		return maxDimension, max(1, height*maxDimension/width)
	}
	if height > width && height > maxDimension {
		return max(1, width*maxDimension/height), maxDimension
	}
	return width, height
}

// Extension returns the lowercase extension without the dot, or "bin".
func Extension(filename, contentType string) string {
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), "."); ext != "" {
		return ext
	}
	switch strings.ToLower(contentType) {
	case "application/pdf":
		return "pdf"
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	}
	return "bin"
}
