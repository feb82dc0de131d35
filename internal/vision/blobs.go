package vision

import "image"

// DefaultMinArea is the default noise floor for blob extraction in pixels².
const DefaultMinArea = 1500

// Point is a centroid position in pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Detection is one connected foreground region surviving the minimum-area
// filter. Detections are produced fresh each frame and never mutated.
type Detection struct {
	Bounds   image.Rectangle
	Centroid Point
	Area     int
}

// ExtractBlobs finds maximal 8-connected foreground regions in the mask and
// returns a Detection per region with area >= minArea. Regions are
// discovered in raster-scan order of their first pixel, which downstream
// tie-breaking relies on for determinism.
func ExtractBlobs(m *Mask, minArea int) []Detection {
	if minArea < 1 {
		minArea = 1
	}
	labels := make([]int32, len(m.Bits))
	var detections []Detection
	var stack []int

	for start := range m.Bits {
		if m.Bits[start] == 0 || labels[start] != 0 {
			continue
		}

		// Flood fill one component.
		area := 0
		sumX, sumY := 0, 0
		minX, minY := m.Width, m.Height
		maxX, maxY := -1, -1

		stack = append(stack[:0], start)
		labels[start] = 1
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x := idx % m.Width
			y := idx / m.Width

			area++
			sumX += x
			sumY += y
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			for dy := -1; dy <= 1; dy++ {
				ny := y + dy
				if ny < 0 || ny >= m.Height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx := x + dx
					if nx < 0 || nx >= m.Width {
						continue
					}
					nidx := ny*m.Width + nx
					if m.Bits[nidx] != 0 && labels[nidx] == 0 {
						labels[nidx] = 1
						stack = append(stack, nidx)
					}
				}
			}
		}

		if area < minArea {
			continue
		}
		detections = append(detections, Detection{
			Bounds: image.Rect(minX, minY, maxX+1, maxY+1),
			Centroid: Point{
				X: float64(sumX) / float64(area),
				Y: float64(sumY) / float64(area),
			},
			Area: area,
		})
	}
	return detections
}
