package vision

// Mask is a binary foreground classification with the same dimensions as
// its source frame. Bits holds one byte per pixel in row-major order; any
// non-zero value is foreground.
type Mask struct {
	Width  int
	Height int
	Bits   []uint8
}

// NewMask allocates an all-background mask.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Bits:   make([]uint8, width*height),
	}
}

// Get reports whether the pixel at (x, y) is foreground. Out-of-bounds
// coordinates are background.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x] != 0
}

// Set marks the pixel at (x, y) as foreground or background.
func (m *Mask) Set(x, y int, fg bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if fg {
		m.Bits[y*m.Width+x] = 1
	} else {
		m.Bits[y*m.Width+x] = 0
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b != 0 {
			n++
		}
	}
	return n
}
