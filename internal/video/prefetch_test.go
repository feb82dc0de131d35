package video

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

type scriptedSource struct {
	meta   vision.Meta
	frames int // frames delivered before err
	err    error
	pos    int
	closed bool
}

func (s *scriptedSource) Meta() vision.Meta { return s.meta }

func (s *scriptedSource) Next() (*vision.Frame, error) {
	if s.pos >= s.frames {
		return nil, s.err
	}
	f := &vision.Frame{Index: s.pos}
	s.pos++
	return f, nil
}

func (s *scriptedSource) Close() error {
	s.closed = true
	return nil
}

func TestPrefetcherPreservesOrder(t *testing.T) {
	src := &scriptedSource{frames: 20, err: io.EOF}
	p := NewPrefetcher(src)
	defer p.Close()

	for i := 0; i < 20; i++ {
		f, err := p.Next()
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if f.Index != i {
			t.Fatalf("frame out of order: got index %d, want %d", f.Index, i)
		}
	}
	if _, err := p.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("after last frame: err = %v, want io.EOF", err)
	}
}

func TestPrefetcherEOFSticks(t *testing.T) {
	src := &scriptedSource{frames: 1, err: io.EOF}
	p := NewPrefetcher(src)
	defer p.Close()

	if _, err := p.Next(); err != nil {
		t.Fatalf("first frame: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := p.Next(); !errors.Is(err, io.EOF) {
			t.Fatalf("call %d after EOF: err = %v, want io.EOF", i, err)
		}
	}
}

func TestPrefetcherPropagatesDecodeError(t *testing.T) {
	decodeErr := fmt.Errorf("%w: truncated stream", vision.ErrDecode)
	src := &scriptedSource{frames: 3, err: decodeErr}
	p := NewPrefetcher(src)
	defer p.Close()

	for i := 0; i < 3; i++ {
		if _, err := p.Next(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	_, err := p.Next()
	if !errors.Is(err, vision.ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	// The error sticks on subsequent calls.
	if _, err := p.Next(); !errors.Is(err, vision.ErrDecode) {
		t.Errorf("repeated call: err = %v, want ErrDecode", err)
	}
}

func TestPrefetcherMetaPassthrough(t *testing.T) {
	meta := vision.Meta{Width: 640, Height: 480, FPS: 25, TotalFrames: 100}
	p := NewPrefetcher(&scriptedSource{meta: meta, err: io.EOF})
	defer p.Close()
	if got := p.Meta(); got != meta {
		t.Errorf("Meta() = %+v, want %+v", got, meta)
	}
}

func TestPrefetcherCloseClosesSource(t *testing.T) {
	src := &scriptedSource{frames: 1000, err: io.EOF}
	p := NewPrefetcher(src)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !src.closed {
		t.Error("wrapped source not closed")
	}
	// Close is idempotent.
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
