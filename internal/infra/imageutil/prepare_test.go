package imageutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/weatherlens/pkg/errors"
)

func TestDetectMIME(t *testing.T) {
	p := NewPreparer(0, 0)
	pngData := encodePNG(t, 4, 4)

	require.Equal(t, "image/jpeg", p.DetectMIME(pngData, "image/jpeg"))
	require.Equal(t, "image/png", p.DetectMIME(pngData, ""))
	require.Equal(t, "image/png", p.DetectMIME(pngData, "application/octet-stream"))
	require.Equal(t, "text/plain", p.DetectMIME([]byte("just some text"), ""))
}

func TestFitLeavesSmallImagesAlone(t *testing.T) {
	p := NewPreparer(64, 0)
	data := encodePNG(t, 32, 16)

	out, mime, err := p.Fit(data, "image/png")
	require.NoError(t, err)
	require.Equal(t, data, out)
	require.Equal(t, "image/png", mime)
}

func TestFitScalesLargeImages(t *testing.T) {
	p := NewPreparer(50, 0)
	data := encodePNG(t, 200, 100)

	out, mime, err := p.Fit(data, "image/png")
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mime)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 50, cfg.Width)
	require.Equal(t, 25, cfg.Height)
}

func TestFitRejectsUndecodable(t *testing.T) {
	_, _, err := NewPreparer(0, 0).Fit([]byte("not an image"), "image/heic")
	require.Error(t, err)
}

func TestFitRejectsImagesOverPixelBudget(t *testing.T) {
	p := NewPreparer(64, 10_000)

	_, _, err := p.Fit(encodePNG(t, 200, 100), "image/png")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	// The budget applies before the dimension shortcut too.
	_, _, err = NewPreparer(4096, 1_000).Fit(encodePNG(t, 40, 40), "image/png")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	out, _, err := p.Fit(encodePNG(t, 100, 100), "image/png")
	require.NoError(t, err)
	require.NotEmpty(t, out)
}

func TestFitRejectsHugeDimensionsWithoutDecoding(t *testing.T) {
	// Only the header is present: decoding pixel data would fail, so an
	// invalid_input result proves the budget is checked first.
	data := pngHeader(16000, 16000)

	_, _, err := NewPreparer(0, 0).Fit(data, "image/png")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Equal(t, "Image dimensions are too large", apperrors.Message(err))
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// pngHeader returns a PNG signature plus an IHDR chunk for an 8-bit grayscale
// image of the given size.
func pngHeader(w, h uint32) []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 0 // grayscale

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}
