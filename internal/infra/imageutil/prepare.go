package imageutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder

	apperrors "github.com/yanqian/weatherlens/pkg/errors"
)

const (
	defaultMaxDimension = 2048
	defaultMaxPixels    = 50_000_000
	jpegQuality         = 90
)

// Preparer sniffs uploaded bytes and scales oversized images down.
type Preparer struct {
	maxDimension int
	maxPixels    int64
}

// NewPreparer builds a Preparer. Non-positive arguments use the defaults.
// maxPixels bounds the decoded bitmap, which a small compressed file can
// inflate far beyond the upload size limit.
func NewPreparer(maxDimension int, maxPixels int64) *Preparer {
	if maxDimension <= 0 {
		maxDimension = defaultMaxDimension
	}
	if maxPixels <= 0 {
		maxPixels = defaultMaxPixels
	}
	return &Preparer{maxDimension: maxDimension, maxPixels: maxPixels}
}

// DetectMIME trusts a declared image type and sniffs the content otherwise.
func (p *Preparer) DetectMIME(data []byte, declared string) string {
	declared = strings.ToLower(strings.TrimSpace(declared))
	if i := strings.Index(declared, ";"); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	detected := mimetype.Detect(data).String()
	if i := strings.Index(detected, ";"); i >= 0 {
		detected = detected[:i]
	}
	return detected
}

// Fit scales the image to fit within maxDimension on both axes and re-encodes
// it as JPEG. Images already within bounds are returned unchanged. No
// upscaling. Images above the pixel budget fail with invalid_input before
// any pixel data is decoded.
func (p *Preparer) Fit(data []byte, mimeType string) ([]byte, string, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image config: %w", err)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > p.maxPixels {
		return nil, "", apperrors.Wrap(apperrors.CodeInvalidInput, "Image dimensions are too large",
			fmt.Errorf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, p.maxPixels))
	}
	if cfg.Width <= p.maxDimension && cfg.Height <= p.maxDimension {
		return data, mimeType, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	scaled := scaleToFit(src, p.maxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}

func scaleToFit(img image.Image, bound int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= bound && h <= bound {
		return img
	}

	ratio := float64(bound) / float64(w)
	if rh := float64(bound) / float64(h); rh < ratio {
		ratio = rh
	}
	newW := max(1, int(float64(w)*ratio))
	newH := max(1, int(float64(h)*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
