package escpos

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"strings"

	_ "image/png"
)

var ErrEmptyImage = errors.New("image has no pixels")

const (
	// Pixels with alpha below this render as blank paper.
	alphaThreshold = 128
	// Luminance below this is ink.
	inkThreshold = 128
)

// DecodeImage decodes a base64 PNG, with or without a data-URI prefix.
func DecodeImage(encoded string) (image.Image, error) {
	if idx := strings.Index(encoded, "base64,"); idx >= 0 {
		encoded = encoded[idx+len("base64,"):]
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("invalid base64 image data: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Raster converts an image into a complete ESC/POS raster print job
// scaled to targetWidth dots: initialize, GS v 0 header, packed bitmap,
// trailing feed and a full cut.
func Raster(img image.Image, targetWidth int) ([]byte, error) {
	bitmap, width, height, err := Bitmap(img, targetWidth)
	if err != nil {
		return nil, err
	}

	bytesPerRow := (width + 7) / 8

	out := make([]byte, 0, len(bitmap)+24)
	out = append(out, Initialize()...)
	out = append(out, gs, 'v', '0', 0,
		byte(bytesPerRow&0xFF), byte(bytesPerRow>>8),
		byte(height&0xFF), byte(height>>8))
	out = append(out, bitmap...)
	out = append(out, LineFeed(4)...)
	out = append(out, CutFull()...)
	return out, nil
}

// Bitmap scales the image to targetWidth with nearest-neighbor sampling,
// thresholds it to monochrome and packs it 8 pixels per byte, MSB first,
// row-major. It returns the packed rows and the scaled dimensions.
func Bitmap(img image.Image, targetWidth int) ([]byte, int, int, error) {
	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()
	if srcW <= 0 || srcH <= 0 {
		return nil, 0, 0, ErrEmptyImage
	}
	if targetWidth <= 0 {
		return nil, 0, 0, fmt.Errorf("invalid target width %d", targetWidth)
	}

	scale := float64(targetWidth) / float64(srcW)
	targetHeight := int(float64(srcH)*scale + 0.5)
	if targetHeight < 1 {
		targetHeight = 1
	}

	bytesPerRow := (targetWidth + 7) / 8
	packed := make([]byte, bytesPerRow*targetHeight)

	for y := 0; y < targetHeight; y++ {
		srcY := bounds.Min.Y + int(float64(y)/scale)
		if srcY >= bounds.Max.Y {
			srcY = bounds.Max.Y - 1
		}
		for x := 0; x < targetWidth; x++ {
			srcX := bounds.Min.X + int(float64(x)/scale)
			if srcX >= bounds.Max.X {
				srcX = bounds.Max.X - 1
			}
			if isInk(img.At(srcX, srcY).RGBA()) {
				packed[y*bytesPerRow+x/8] |= 0x80 >> uint(x%8)
			}
		}
	}

	return packed, targetWidth, targetHeight, nil
}

// isInk maps a 16-bit premultiplied RGBA sample to one monochrome dot.
// Transparent pixels print as paper, everything else by luminance.
func isInk(r, g, b, a uint32) bool {
	if a>>8 < alphaThreshold {
		return false
	}
	lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
	return lum < inkThreshold
}
