package services

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Detector labels file contents. Detection works on the bytes themselves;
// the filename extension is never trusted.
type Detector interface {
	Detect(data []byte) string
}

// MimeDetector sniffs magic numbers via the mimetype library.
type MimeDetector struct{}

func (MimeDetector) Detect(data []byte) string {
	mt := mimetype.Detect(data)
	if ext := strings.TrimPrefix(mt.Extension(), "."); ext != "" {
		return ext
	}
	return mt.String()
}
