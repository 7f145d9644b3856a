// Package escpos renders receipt content into ESC/POS printer byte
// sequences. All functions are pure: the same input always produces the
// same bytes, which is what lets transports replay and tests assert on
// golden buffers.
package escpos

const (
	esc = 0x1B
	gs  = 0x1D
)

// Initialize resets the printer to its power-on state (ESC @).
func Initialize() []byte {
	return []byte{esc, '@'}
}

// LineFeed advances the paper by n lines.
func LineFeed(n int) []byte {
	if n < 0 {
		n = 0
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = '\n'
	}
	return out
}

// CutFull issues a full paper cut (GS V 0).
func CutFull() []byte {
	return []byte{gs, 'V', 0}
}

// DrawerKick pulses drawer pin 2 (ESC p 0 t1 t2). The 25/250 pulse
// timings are the de facto values cash drawers expect.
func DrawerKick() []byte {
	return []byte{esc, 'p', 0, 25, 250}
}

// TextJob frames a raw text receipt: initialize, the text as-is, a feed
// so the content clears the cutter, then a full cut.
func TextJob(text string) []byte {
	out := make([]byte, 0, len(text)+16)
	out = append(out, Initialize()...)
	out = append(out, text...)
	out = append(out, LineFeed(4)...)
	out = append(out, CutFull()...)
	return out
}
