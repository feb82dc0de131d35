package vision

// DefaultKernelRadius is the structuring-element radius for mask cleaning.
// Radius 2 is a 5x5 square, matching the scale of noise seen on belt footage.
const DefaultKernelRadius = 2

// Clean applies an opening (erode, dilate) to drop isolated noise pixels,
// then a closing (dilate, erode) to fill small gaps inside a single item's
// silhouette. The kernel is a fixed square of the given radius. Clean is a
// pure function of its input mask.
func Clean(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m
	}
	opened := Dilate(Erode(m, radius), radius)
	closed := Erode(Dilate(opened, radius), radius)
	return closed
}

// Erode clears any foreground pixel whose square neighbourhood of the given
// radius contains a background pixel. Pixels outside the frame count as
// background, so blobs touching the border shrink from the edge.
func Erode(m *Mask, radius int) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Bits[y*m.Width+x] == 0 {
				continue
			}
			if neighbourhoodAll(m, x, y, radius) {
				out.Bits[y*m.Width+x] = 1
			}
		}
	}
	return out
}

// Dilate sets any background pixel whose square neighbourhood of the given
// radius contains a foreground pixel.
func Dilate(m *Mask, radius int) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Bits[y*m.Width+x] != 0 {
				out.Bits[y*m.Width+x] = 1
				continue
			}
			if neighbourhoodAny(m, x, y, radius) {
				out.Bits[y*m.Width+x] = 1
			}
		}
	}
	return out
}

func neighbourhoodAll(m *Mask, cx, cy, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < 0 || y >= m.Height {
			return false
		}
		row := y * m.Width
		for dx := -radius; dx <= radius; dx++ {
			x := cx + dx
			if x < 0 || x >= m.Width || m.Bits[row+x] == 0 {
				return false
			}
		}
	}
	return true
}

func neighbourhoodAny(m *Mask, cx, cy, radius int) bool {
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < 0 || y >= m.Height {
			continue
		}
		row := y * m.Width
		for dx := -radius; dx <= radius; dx++ {
			x := cx + dx
			if x < 0 || x >= m.Width {
				continue
			}
			if m.Bits[row+x] != 0 {
				return true
			}
		}
	}
	return false
}
