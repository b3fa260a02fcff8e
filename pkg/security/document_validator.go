package security

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
)

// MaxDocumentSize caps verification uploads and resumes.
const MaxDocumentSize = 10 << 20

// Magic byte prefixes for the accepted document kinds, keyed by extension
var documentSignatures = map[string][][]byte{
	".jpg":  {{0xFF, 0xD8, 0xFF}},
	".jpeg": {{0xFF, 0xD8, 0xFF}},
	".png":  {{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}},
	".webp": {{0x52, 0x49, 0x46, 0x46}}, // RIFF
	".pdf":  {{0x25, 0x50, 0x44, 0x46}}, // %PDF
}

var documentMIMETypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// DocumentCheck is the outcome of ValidateDocument. ContentType is the sniffed
// type and should replace whatever the client declared.
type DocumentCheck struct {
	Extension   string
	ContentType string
}

// ValidateDocument accepts PDF, JPEG, PNG or WebP uploads whose content matches
// their extension. application/octet-stream is never accepted.
func ValidateDocument(filename string, data []byte) (DocumentCheck, error) {
	if len(data) == 0 {
		return DocumentCheck{}, fmt.Errorf("document is empty")
	}
	if len(data) > MaxDocumentSize {
		return DocumentCheck{}, fmt.Errorf("document exceeds %d MB", MaxDocumentSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	signatures, ok := documentSignatures[ext]
	if !ok {
		return DocumentCheck{}, fmt.Errorf("file type %q not allowed: use PDF, JPG, PNG or WebP", ext)
	}
	if !hasSignature(data, signatures) {
		return DocumentCheck{}, fmt.Errorf("file content does not match its extension")
	}

	detected := http.DetectContentType(data)
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	if !documentMIMETypes[detected] {
		return DocumentCheck{}, fmt.Errorf("content type %s not allowed", detected)
	}
	return DocumentCheck{Extension: ext, ContentType: detected}, nil
}

func hasSignature(data []byte, signatures [][]byte) bool {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig) {
			return true
		}
	}
	return false
}
