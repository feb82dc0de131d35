package vision

import "errors"

// Error kinds surfaced by a pipeline run. Each fatal condition terminates
// the run with exactly one of these in the error chain; none is ever
// downgraded to a partial success.
var (
	// ErrInput marks an input video that is missing, unreadable, or in an
	// unsupported format. Raised before any frame is processed.
	ErrInput = errors.New("input video unreadable")

	// ErrDecode marks a frame that failed to decode mid-stream. Tracking
	// integrity depends on an unbroken frame sequence, so this is fatal.
	ErrDecode = errors.New("frame decode failed")

	// ErrOutput marks a failure to write the annotated output video.
	// Producing a count without the promised artifact would violate the
	// run contract, so this is fatal too.
	ErrOutput = errors.New("annotated output write failed")

	// ErrConfig marks configuration outside its valid range, rejected
	// before processing starts.
	ErrConfig = errors.New("invalid configuration")
)
