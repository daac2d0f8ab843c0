package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeDetector(t *testing.T) {
	d := MimeDetector{}

	assert.Equal(t, "png", d.Detect(append(pngHeader, 0, 0, 0, 0)))
	assert.Equal(t, "txt", d.Detect([]byte("plain text contents")))
	// Unknown bytes fall back to the full MIME string.
	assert.NotEmpty(t, d.Detect([]byte{0x00, 0x01, 0x02}))
}
