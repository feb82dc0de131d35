package video

import (
	"io"
	"sync"

	"github.com/beltmetrics/conveyor.report/internal/vision"
)

// Prefetcher wraps a FrameSource and decodes one frame ahead of the
// consumer so decode I/O overlaps with pipeline compute. The handoff is a
// bounded single-slot channel: ordering is preserved and at most one frame
// is in flight. This is an optimization only; the pipeline is correct with
// the bare source.
type Prefetcher struct {
	src vision.FrameSource

	slot chan prefetched
	stop chan struct{}
	once sync.Once
	done error
}

type prefetched struct {
	frame *vision.Frame
	err   error
}

// NewPrefetcher starts the decode-ahead goroutine over src.
func NewPrefetcher(src vision.FrameSource) *Prefetcher {
	p := &Prefetcher{
		src:  src,
		slot: make(chan prefetched, 1),
		stop: make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Prefetcher) loop() {
	defer close(p.slot)
	for {
		frame, err := p.src.Next()
		select {
		case p.slot <- prefetched{frame: frame, err: err}:
		case <-p.stop:
			return
		}
		if err != nil {
			return
		}
	}
}

// Meta returns the wrapped source's metadata.
func (p *Prefetcher) Meta() vision.Meta { return p.src.Meta() }

// Next returns the next frame in order. The first source error (including
// io.EOF) is delivered exactly once and then sticks.
func (p *Prefetcher) Next() (*vision.Frame, error) {
	if p.done != nil {
		return nil, p.done
	}
	item, ok := <-p.slot
	if !ok {
		p.done = io.EOF
		return nil, io.EOF
	}
	if item.err != nil {
		p.done = item.err
		return nil, item.err
	}
	return item.frame, nil
}

// Close stops the decode-ahead goroutine and closes the wrapped source.
func (p *Prefetcher) Close() error {
	p.once.Do(func() { close(p.stop) })
	return p.src.Close()
}
