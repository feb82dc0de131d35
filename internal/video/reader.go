package video

import (
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

// Reader decodes a video file into RGBA frames by streaming rawvideo from
// ffmpeg's stdout. Frames arrive strictly in temporal order.
type Reader struct {
	meta   vision.Meta
	cmd    *exec.Cmd
	stdout io.ReadCloser
	buf    []byte
	index  int
	closed bool
}

// OpenReader probes the file and starts the decode process. The context
// cancels the underlying ffmpeg process, which surfaces as a read error at
// the next frame boundary.
func OpenReader(ctx context.Context, path string) (*Reader, error) {
	meta, err := Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-i", path,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vision.ErrInput, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", vision.ErrInput, err)
	}

	return &Reader{
		meta:   meta,
		cmd:    cmd,
		stdout: stdout,
		buf:    make([]byte, meta.Width*meta.Height*4),
	}, nil
}

// Meta returns the probed stream geometry. TotalFrames is an estimate.
func (r *Reader) Meta() vision.Meta { return r.meta }

// Next returns the next frame, or io.EOF after the last one. A short read
// mid-frame means the stream broke mid-decode and reports vision.ErrDecode.
func (r *Reader) Next() (*vision.Frame, error) {
	n, err := io.ReadFull(r.stdout, r.buf)
	if err == io.EOF && n == 0 {
		if werr := r.cmd.Wait(); werr != nil {
			r.closed = true
			if r.index == 0 {
				return nil, fmt.Errorf("%w: ffmpeg: %v", vision.ErrInput, werr)
			}
			return nil, fmt.Errorf("%w: ffmpeg exited: %v", vision.ErrDecode, werr)
		}
		r.closed = true
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("%w: frame %d: %v", vision.ErrDecode, r.index, err)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.meta.Width, r.meta.Height))
	copy(img.Pix, r.buf)
	f := &vision.Frame{
		Index:  r.index,
		Image:  img,
		Width:  r.meta.Width,
		Height: r.meta.Height,
	}
	r.index++
	return f, nil
}

// Close terminates the decode process and releases the pipe. Safe to call
// after EOF or mid-stream (cancellation).
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.stdout.Close()
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	_ = r.cmd.Wait()
	return nil
}
