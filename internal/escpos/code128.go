package escpos

// Code128 symbol widths, indexed by symbol value 0-106. Each symbol is
// three bars and three spaces, alternating and starting with a bar; the
// stop symbol (106) carries a fourth, two-module termination bar.
var code128Patterns = [107][]int{
	{2, 1, 2, 2, 2, 2}, {2, 2, 2, 1, 2, 2}, {2, 2, 2, 2, 2, 1}, {1, 2, 1, 2, 2, 3},
	{1, 2, 1, 3, 2, 2}, {1, 3, 1, 2, 2, 2}, {1, 2, 2, 2, 1, 3}, {1, 2, 2, 3, 1, 2},
	{1, 3, 2, 2, 1, 2}, {2, 2, 1, 2, 1, 3}, {2, 2, 1, 3, 1, 2}, {2, 3, 1, 2, 1, 2},
	{1, 1, 2, 2, 3, 2}, {1, 2, 2, 1, 3, 2}, {1, 2, 2, 2, 3, 1}, {1, 1, 3, 2, 2, 2},
	{1, 2, 3, 1, 2, 2}, {1, 2, 3, 2, 2, 1}, {2, 2, 3, 2, 1, 1}, {2, 2, 1, 1, 3, 2},
	{2, 2, 1, 2, 3, 1}, {2, 1, 3, 2, 1, 2}, {2, 2, 3, 1, 1, 2}, {3, 1, 2, 1, 3, 1},
	{3, 1, 1, 2, 2, 2}, {3, 2, 1, 1, 2, 2}, {3, 2, 1, 2, 2, 1}, {3, 1, 2, 2, 1, 2},
	{3, 2, 2, 1, 1, 2}, {3, 2, 2, 2, 1, 1}, {2, 1, 2, 1, 2, 3}, {2, 1, 2, 3, 2, 1},
	{2, 3, 2, 1, 2, 1}, {1, 1, 1, 3, 2, 3}, {1, 3, 1, 1, 2, 3}, {1, 3, 1, 3, 2, 1},
	{1, 1, 2, 3, 1, 3}, {1, 3, 2, 1, 1, 3}, {1, 3, 2, 3, 1, 1}, {2, 1, 1, 3, 1, 3},
	{2, 3, 1, 1, 1, 3}, {2, 3, 1, 3, 1, 1}, {1, 1, 2, 1, 3, 3}, {1, 1, 2, 3, 3, 1},
	{1, 3, 2, 1, 3, 1}, {1, 1, 3, 1, 2, 3}, {1, 1, 3, 3, 2, 1}, {1, 3, 3, 1, 2, 1},
	{3, 1, 3, 1, 2, 1}, {2, 1, 1, 3, 3, 1}, {2, 3, 1, 1, 3, 1}, {2, 1, 3, 1, 1, 3},
	{2, 1, 3, 3, 1, 1}, {2, 1, 3, 1, 3, 1}, {3, 1, 1, 1, 2, 3}, {3, 1, 1, 3, 2, 1},
	{3, 3, 1, 1, 2, 1}, {3, 1, 2, 1, 1, 3}, {3, 1, 2, 3, 1, 1}, {3, 3, 2, 1, 1, 1},
	{3, 1, 4, 1, 1, 1}, {2, 2, 1, 4, 1, 1}, {4, 3, 1, 1, 1, 1}, {1, 1, 1, 2, 2, 4},
	{1, 1, 1, 4, 2, 2}, {1, 2, 1, 1, 2, 4}, {1, 2, 1, 4, 2, 1}, {1, 4, 1, 1, 2, 2},
	{1, 4, 1, 2, 2, 1}, {1, 1, 2, 2, 1, 4}, {1, 1, 2, 4, 1, 2}, {1, 2, 2, 1, 1, 4},
	{1, 2, 2, 4, 1, 1}, {1, 4, 2, 1, 1, 2}, {1, 4, 2, 2, 1, 1}, {2, 4, 1, 2, 1, 1},
	{2, 2, 1, 1, 1, 4}, {4, 1, 3, 1, 1, 1}, {2, 4, 1, 1, 1, 2}, {1, 3, 4, 1, 1, 1},
	{1, 1, 1, 2, 4, 2}, {1, 2, 1, 1, 4, 2}, {1, 2, 1, 2, 4, 1}, {1, 1, 4, 2, 1, 2},
	{1, 2, 4, 1, 1, 2}, {1, 2, 4, 2, 1, 1}, {4, 1, 1, 2, 1, 2}, {4, 2, 1, 1, 1, 2},
	{4, 2, 1, 2, 1, 1}, {2, 1, 2, 1, 4, 1}, {2, 1, 4, 1, 2, 1}, {4, 1, 2, 1, 2, 1},
	{1, 1, 1, 1, 4, 3}, {1, 1, 1, 3, 4, 1}, {1, 3, 1, 1, 4, 1}, {1, 1, 4, 1, 1, 3},
	{1, 1, 4, 3, 1, 1}, {4, 1, 1, 1, 1, 3}, {4, 1, 1, 3, 1, 1}, {1, 1, 3, 1, 4, 1},
	{1, 1, 4, 1, 3, 1}, {3, 1, 1, 1, 4, 1}, {4, 1, 1, 1, 3, 1}, {2, 1, 1, 4, 1, 2},
	{2, 1, 1, 2, 1, 4}, {2, 1, 1, 2, 3, 2}, {2, 3, 3, 1, 1, 1, 2},
}

const (
	code128StartB = 104
	code128Stop   = 106
)

// EncodeCode128B encodes printable-ASCII text as a Code128-B bar/space
// sequence. Positive entries are bar widths, negative entries space
// widths, in module units. Characters outside 0x20-0x7E are stripped
// first; if nothing survives, ok is false and no modules are returned.
func EncodeCode128B(text string) (modules []int, ok bool) {
	filtered := make([]byte, 0, len(text))
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x20 && text[i] <= 0x7E {
			filtered = append(filtered, text[i])
		}
	}
	if len(filtered) == 0 {
		return nil, false
	}

	symbols := make([]int, 0, len(filtered)+3)
	symbols = append(symbols, code128StartB)

	checksum := code128StartB
	for i, ch := range filtered {
		value := int(ch) - 0x20
		symbols = append(symbols, value)
		checksum += value * (i + 1)
	}
	symbols = append(symbols, checksum%103, code128Stop)

	for _, sym := range symbols {
		for i, w := range code128Patterns[sym] {
			if i%2 == 0 {
				modules = append(modules, w)
			} else {
				modules = append(modules, -w)
			}
		}
	}
	return modules, true
}

// Code128BChecksum returns the modulo-103 check symbol for text, after
// the same printable-ASCII filtering EncodeCode128B applies.
func Code128BChecksum(text string) (int, bool) {
	checksum := code128StartB
	pos := 1
	for i := 0; i < len(text); i++ {
		if text[i] < 0x20 || text[i] > 0x7E {
			continue
		}
		checksum += (int(text[i]) - 0x20) * pos
		pos++
	}
	if pos == 1 {
		return 0, false
	}
	return checksum % 103, true
}

// RenderCode128B rasterizes a Code128-B barcode into a complete ESC/POS
// print job. Module widths scale to fill targetWidth dots; height is the
// bar height in dots.
func RenderCode128B(text string, targetWidth, height int) ([]byte, bool) {
	modules, ok := EncodeCode128B(text)
	if !ok || targetWidth <= 0 || height <= 0 {
		return nil, false
	}

	totalUnits := 0
	for _, m := range modules {
		if m < 0 {
			totalUnits -= m
		} else {
			totalUnits += m
		}
	}
	unitWidth := targetWidth / totalUnits
	if unitWidth < 1 {
		unitWidth = 1
	}

	width := totalUnits * unitWidth
	bytesPerRow := (width + 7) / 8
	row := make([]byte, bytesPerRow)

	x := 0
	for _, m := range modules {
		if m > 0 {
			for i := 0; i < m*unitWidth; i++ {
				row[x/8] |= 0x80 >> uint(x%8)
				x++
			}
		} else {
			x += -m * unitWidth
		}
	}

	out := make([]byte, 0, bytesPerRow*height+24)
	out = append(out, Initialize()...)
	out = append(out, gs, 'v', '0', 0,
		byte(bytesPerRow&0xFF), byte(bytesPerRow>>8),
		byte(height&0xFF), byte(height>>8))
	for y := 0; y < height; y++ {
		out = append(out, row...)
	}
	out = append(out, LineFeed(4)...)
	out = append(out, CutFull()...)
	return out, true
}
