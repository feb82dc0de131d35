package vision

import (
	"image"
	"time"

	"github.com/disintegration/imaging"
)

// Frame is one decoded video frame. Frames are produced in temporal order
// with a 0-based monotonic index and are owned by the pipeline iteration
// that consumes them.
type Frame struct {
	Index  int
	Image  *image.RGBA
	Width  int
	Height int
}

// Timestamp returns the frame's position in the video derived from its
// index and the source frame rate.
func (f *Frame) Timestamp(fps float64) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Duration(float64(f.Index) / fps * float64(time.Second))
}

// Meta describes the geometry and timing of a frame source. TotalFrames is
// an estimate and may be zero when the container does not declare it.
type Meta struct {
	Width       int
	Height      int
	FPS         float64
	TotalFrames int
}

// FrameSource yields frames in strict temporal order. Next returns io.EOF
// after the final frame.
type FrameSource interface {
	Meta() Meta
	Next() (*Frame, error)
	Close() error
}

// FrameSink consumes annotated frames in the order they are written.
type FrameSink interface {
	Write(f *Frame) error
	Close() error
}

// Grayscale converts a frame to 8-bit luma using the Rec. 601 weights the
// image/color package uses.
func Grayscale(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		si := img.PixOffset(b.Min.X, y)
		di := gray.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			r := uint32(img.Pix[si])
			g := uint32(img.Pix[si+1])
			bl := uint32(img.Pix[si+2])
			// 0.299R + 0.587G + 0.114B in 16.16 fixed point
			gray.Pix[di] = uint8((19595*r + 38470*g + 7471*bl + 1<<15) >> 16)
			si += 4
			di++
		}
	}
	return gray
}

// BlurGray applies a Gaussian blur to a grayscale image. Blurring before
// background classification suppresses sensor noise so single pixels do not
// flip between foreground and background. A sigma of 0 disables the blur.
func BlurGray(gray *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return gray
	}
	blurred := imaging.Blur(gray, sigma)
	out := image.NewGray(gray.Bounds())
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	for y := 0; y < h; y++ {
		si := blurred.PixOffset(0, y)
		di := out.PixOffset(0, y)
		for x := 0; x < w; x++ {
			// imaging returns NRGBA; the blur of a gray image keeps R=G=B.
			out.Pix[di] = blurred.Pix[si]
			si += 4
			di++
		}
	}
	return out
}
