package escpos

import "testing"

func TestCode128BChecksum(t *testing.T) {
	// Manual Code128-B computation for "SO-00001":
	// 104 + 51*1 + 47*2 + 13*3 + 16*4 + 16*5 + 16*6 + 16*7 + 17*8 = 776
	// 776 mod 103 = 55
	sum, ok := Code128BChecksum("SO-00001")
	if !ok {
		t.Fatalf("Code128BChecksum returned ok=false")
	}
	if sum != 55 {
		t.Fatalf("checksum mismatch: got %d want 55", sum)
	}
}

func TestEncodeCode128BStructure(t *testing.T) {
	modules, ok := EncodeCode128B("SO-00001")
	if !ok {
		t.Fatalf("EncodeCode128B returned ok=false")
	}

	// start + 8 data + checksum = 10 six-element symbols, stop has 7.
	if len(modules) != 10*6+7 {
		t.Fatalf("module count mismatch: got %d want %d", len(modules), 10*6+7)
	}

	// Alternating bar/space, starting with a bar.
	for i, m := range modules {
		if m == 0 {
			t.Fatalf("zero-width module at %d", i)
		}
		if (i%2 == 0) != (m > 0) {
			t.Fatalf("module %d breaks bar/space alternation: %d", i, m)
		}
	}

	// Start-B prefix 211214.
	wantStart := []int{2, -1, 1, -2, 1, -4}
	for i, w := range wantStart {
		if modules[i] != w {
			t.Fatalf("start symbol mismatch at %d: got %d want %d", i, modules[i], w)
		}
	}

	// Checksum symbol 55 (311321) sits right before the stop pattern.
	wantChecksum := []int{3, -1, 1, -3, 2, -1}
	off := 9 * 6
	for i, w := range wantChecksum {
		if modules[off+i] != w {
			t.Fatalf("checksum symbol mismatch at %d: got %d want %d", i, modules[off+i], w)
		}
	}

	// Stop pattern 2331112.
	wantStop := []int{2, -3, 3, -1, 1, -1, 2}
	off = 10 * 6
	for i, w := range wantStop {
		if modules[off+i] != w {
			t.Fatalf("stop symbol mismatch at %d: got %d want %d", i, modules[off+i], w)
		}
	}
}

func TestEncodeCode128BStripsNonPrintable(t *testing.T) {
	clean, ok := EncodeCode128B("SO-1")
	if !ok {
		t.Fatalf("EncodeCode128B returned ok=false for clean input")
	}
	dirty, ok := EncodeCode128B("SO\x01-\x802\b1")
	if !ok {
		t.Fatalf("EncodeCode128B returned ok=false for dirty input")
	}
	stripped, ok := EncodeCode128B("SO-21")
	if !ok {
		t.Fatalf("EncodeCode128B returned ok=false for stripped input")
	}
	if len(dirty) != len(stripped) {
		t.Fatalf("dirty input encoded to %d modules, stripped equivalent to %d", len(dirty), len(stripped))
	}
	for i := range dirty {
		if dirty[i] != stripped[i] {
			t.Fatalf("dirty encoding diverges from stripped equivalent at module %d", i)
		}
	}

	if len(clean) == 0 {
		t.Fatalf("empty encoding for clean input")
	}

	if _, ok := EncodeCode128B("\x01\x02\x03"); ok {
		t.Fatalf("expected ok=false when nothing printable remains")
	}
	if _, ok := EncodeCode128B(""); ok {
		t.Fatalf("expected ok=false for empty input")
	}
}

func TestRenderCode128B(t *testing.T) {
	out, ok := RenderCode128B("SO-00001", 384, 80)
	if !ok {
		t.Fatalf("RenderCode128B returned ok=false")
	}
	if len(out) == 0 {
		t.Fatalf("empty barcode job")
	}

	again, _ := RenderCode128B("SO-00001", 384, 80)
	if len(out) != len(again) {
		t.Fatalf("RenderCode128B is not deterministic")
	}
	for i := range out {
		if out[i] != again[i] {
			t.Fatalf("RenderCode128B is not deterministic at byte %d", i)
		}
	}

	if _, ok := RenderCode128B("", 384, 80); ok {
		t.Fatalf("expected ok=false for empty text")
	}
	if _, ok := RenderCode128B("SO-1", 0, 80); ok {
		t.Fatalf("expected ok=false for zero width")
	}
}
