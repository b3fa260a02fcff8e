package storage

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2400, 600))
	for x := 0; x < 2400; x++ {
		src.Set(x, x%600, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	out, err := CompressImage(buf.Bytes(), MaxImageDimension, JPEGQuality)
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1200, decoded.Bounds().Dx())
	assert.Equal(t, 300, decoded.Bounds().Dy())
}

func TestCompressImage_RejectsNonImage(t *testing.T) {
	_, err := CompressImage([]byte("%PDF-1.4"), MaxImageDimension, JPEGQuality)
	assert.Error(t, err)
}

func TestScaledSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantW, wantH  int
	}{
		{"small image untouched", 800, 600, 800, 600},
		{"wide image", 2400, 1200, 1200, 600},
		{"tall image", 1000, 4000, 300, 1200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := scaledSize(tt.width, tt.height, 1200)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestPublicURLRoundTrip(t *testing.T) {
	url := PublicURL("https://cdn.example.com/storage/", "resumes", "abc/cv.pdf")
	assert.Equal(t, "https://cdn.example.com/storage/resumes/abc/cv.pdf", url)
	assert.Equal(t, "abc/cv.pdf", KeyFromURL("https://cdn.example.com/storage", "resumes", url))
	assert.Equal(t, "abc/cv.pdf", KeyFromURL("", "resumes", "https://other.host/x/resumes/abc/cv.pdf"))
	assert.Equal(t, "abc/cv.pdf", KeyFromURL("", "resumes", "abc/cv.pdf"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension("Payslip.PDF", "application/pdf"))
	assert.Equal(t, "png", Extension("", "image/png"))
	assert.Equal(t, "bin", Extension("", "application/octet-stream"))
}
