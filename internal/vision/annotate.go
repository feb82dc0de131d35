package vision

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	boxColor      = color.RGBA{0, 255, 0, 255}
	centroidColor = color.RGBA{255, 0, 0, 255}
	lineColor     = color.RGBA{255, 0, 0, 255}
	textColor     = color.RGBA{255, 0, 0, 255}
	labelColor    = color.RGBA{0, 255, 0, 255}
)

// Annotate draws detections, track identities, the counting line, and the
// running count onto a copy of the frame. The source frame is not modified.
func Annotate(f *Frame, detections []Detection, tracks []*Track, lineY int, count int) *Frame {
	img := image.NewRGBA(f.Image.Bounds())
	draw.Draw(img, img.Bounds(), f.Image, f.Image.Bounds().Min, draw.Src)

	for _, det := range detections {
		drawRect(img, det.Bounds, boxColor, 2)
		drawDot(img, int(det.Centroid.X), int(det.Centroid.Y), 3, centroidColor)
	}

	for _, tr := range tracks {
		if tr.LastSeen != f.Index {
			continue
		}
		c := tr.Centroid()
		drawText(img, int(c.X)+6, int(c.Y)-6, fmt.Sprintf("#%d", tr.ID), labelColor)
	}

	drawHLine(img, lineY, lineColor, 2)
	drawText(img, 10, lineY-8, "COUNTING LINE", textColor)
	drawText(img, 10, 24, fmt.Sprintf("Count: %d", count), textColor)

	return &Frame{Index: f.Index, Image: img, Width: f.Width, Height: f.Height}
}

func drawRect(img *image.RGBA, r image.Rectangle, c color.RGBA, thickness int) {
	r = r.Intersect(img.Bounds())
	for t := 0; t < thickness; t++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			setPix(img, x, r.Min.Y+t, c)
			setPix(img, x, r.Max.Y-1-t, c)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			setPix(img, r.Min.X+t, y, c)
			setPix(img, r.Max.X-1-t, y, c)
		}
	}
}

func drawHLine(img *image.RGBA, y int, c color.RGBA, thickness int) {
	b := img.Bounds()
	for t := 0; t < thickness; t++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			setPix(img, x, y+t, c)
		}
	}
}

func drawDot(img *image.RGBA, cx, cy, radius int, c color.RGBA) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				setPix(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func drawText(img *image.RGBA, x, y int, s string, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func setPix(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
