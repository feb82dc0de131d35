package video

import (
	"context"
	"fmt"
	"io"
	"os/exec"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

// Writer encodes annotated RGBA frames to an H.264 MP4 by streaming rawvideo
// into ffmpeg's stdin. Frame order is preserved: frames are written from the
// single pipeline goroutine in input order.
type Writer struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	closed bool
}

// OpenWriter starts the encode process for frames of the given geometry.
func OpenWriter(ctx context.Context, path string, meta vision.Meta) (*Writer, error) {
	fps := meta.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-v", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"-r", fmt.Sprintf("%g", fps),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		path,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vision.ErrOutput, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start ffmpeg: %v", vision.ErrOutput, err)
	}
	return &Writer{cmd: cmd, stdin: stdin}, nil
}

// Write encodes one frame. Errors are fatal to the run: a count without the
// promised annotated artifact violates the pipeline contract.
func (w *Writer) Write(f *vision.Frame) error {
	if _, err := w.stdin.Write(f.Image.Pix); err != nil {
		return fmt.Errorf("%w: frame %d: %v", vision.ErrOutput, f.Index, err)
	}
	return nil
}

// Close flushes the encoder and waits for ffmpeg to finish the container.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.stdin.Close(); err != nil {
		return fmt.Errorf("%w: %v", vision.ErrOutput, err)
	}
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("%w: finalize output: %v", vision.ErrOutput, err)
	}
	return nil
}

// Abort kills the encoder without finalizing the container. Used on
// cancellation so a half-written file is not mistaken for a result.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.stdin.Close()
	if w.cmd.Process != nil {
		_ = w.cmd.Process.Kill()
	}
	_ = w.cmd.Wait()
}
