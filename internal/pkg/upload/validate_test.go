package upload

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestValidateImageBySniff(t *testing.T) {
	data := pngBytes(t)

	mime, err := ValidateImageBySniff("billboard.png", data)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)

	_, err = ValidateImageBySniff("billboard.exe", data)
	assert.Error(t, err)

	_, err = ValidateImageBySniff("billboard.png", []byte("<html><body>x</body></html>"))
	assert.Error(t, err)

	_, err = ValidateImageBySniff("billboard.svg", []byte(`<?xml version="1.0"?><svg/>`))
	assert.Error(t, err)
}

func TestVerifyDecodable(t *testing.T) {
	assert.NoError(t, VerifyDecodable("image/png", pngBytes(t)))

	// PNG magic number followed by garbage sniffs as an image but must not
	// pass the decode check.
	fake := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0xAB}, 64)...)
	assert.Error(t, VerifyDecodable("image/png", fake))

	assert.NoError(t, VerifyDecodable("image/webp", []byte("RIFF....WEBP")))
}
