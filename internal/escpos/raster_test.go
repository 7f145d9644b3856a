package escpos

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func checkerboard(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.NRGBA{A: 255})
			} else {
				img.Set(x, y, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
			}
		}
	}
	return img
}

func TestBitmapCheckerboard(t *testing.T) {
	packed, width, height, err := Bitmap(checkerboard(8), 8)
	if err != nil {
		t.Fatalf("Bitmap returned error: %v", err)
	}
	if width != 8 || height != 8 {
		t.Fatalf("dimensions mismatch: got %dx%d want 8x8", width, height)
	}

	want := []byte{0xAA, 0x55, 0xAA, 0x55, 0xAA, 0x55, 0xAA, 0x55}
	if !bytes.Equal(packed, want) {
		t.Fatalf("packed bitmap mismatch:\ngot  %x\nwant %x", packed, want)
	}
}

func TestBitmapScalesPreservingAspect(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 50))
	packed, width, height, err := Bitmap(img, 384)
	if err != nil {
		t.Fatalf("Bitmap returned error: %v", err)
	}
	if width != 384 {
		t.Fatalf("width mismatch: got %d want 384", width)
	}
	if height != 192 {
		t.Fatalf("height mismatch: got %d want 192", height)
	}
	if len(packed) != 48*192 {
		t.Fatalf("packed length mismatch: got %d want %d", len(packed), 48*192)
	}
}

func TestBitmapTransparentIsBlank(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 1))
	// Fully transparent black pixels must not print as ink.
	packed, _, _, err := Bitmap(img, 8)
	if err != nil {
		t.Fatalf("Bitmap returned error: %v", err)
	}
	if packed[0] != 0 {
		t.Fatalf("transparent pixels produced ink: %x", packed[0])
	}
}

func TestRasterDeterministic(t *testing.T) {
	img := checkerboard(16)
	first, err := Raster(img, 16)
	if err != nil {
		t.Fatalf("Raster returned error: %v", err)
	}
	second, err := Raster(img, 16)
	if err != nil {
		t.Fatalf("Raster returned error: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("Raster is not deterministic")
	}
}

func TestRasterFraming(t *testing.T) {
	out, err := Raster(checkerboard(8), 8)
	if err != nil {
		t.Fatalf("Raster returned error: %v", err)
	}

	if !bytes.HasPrefix(out, []byte{0x1B, '@'}) {
		t.Fatalf("missing ESC @ initialize prefix: %x", out[:2])
	}

	header := []byte{0x1D, 'v', '0', 0, 1, 0, 8, 0}
	if !bytes.Equal(out[2:10], header) {
		t.Fatalf("raster header mismatch:\ngot  %x\nwant %x", out[2:10], header)
	}

	if !bytes.HasSuffix(out, []byte{0x1D, 'V', 0}) {
		t.Fatalf("missing full-cut suffix: %x", out[len(out)-3:])
	}
}

func TestBitmapRejectsInvalidInput(t *testing.T) {
	if _, _, _, err := Bitmap(image.NewNRGBA(image.Rect(0, 0, 0, 0)), 8); err == nil {
		t.Fatalf("expected error for empty image")
	}
	if _, _, _, err := Bitmap(checkerboard(8), 0); err == nil {
		t.Fatalf("expected error for zero target width")
	}
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
	}{
		{name: "not-base64", encoded: "!!not base64!!"},
		{name: "not-png", encoded: "aGVsbG8gd29ybGQ="},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeImage(tc.encoded); err == nil {
				t.Fatalf("expected decode error")
			}
		})
	}
}
