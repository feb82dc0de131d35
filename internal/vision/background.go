package vision

import (
	"image"
)

// Defaults for the background model. The update fraction matches the slow
// adaptation used for static-scene learning; the variance threshold is the
// squared-deviation multiplier above which a pixel is classified foreground.
const (
	DefaultLearningRate    = 0.02
	DefaultVarThreshold    = 16.0
	DefaultMinVariance     = 9.0
	DefaultInitialVariance = 100.0
	DefaultBlurSigma       = 2.0
	DefaultWarmupFrames    = 0
)

// BackgroundParams configures the adaptive background model.
type BackgroundParams struct {
	// LearningRate is the exponential update fraction applied to the
	// per-pixel mean and variance each frame. Small values absorb slow
	// lighting drift while keeping fast-moving items in the foreground.
	LearningRate float64

	// VarThreshold is the multiplier k in the foreground test
	// (x-mean)^2 > k * variance.
	VarThreshold float64

	// MinVariance floors the per-pixel variance so a perfectly static
	// scene does not classify sensor noise as foreground.
	MinVariance float64

	// BlurSigma is the Gaussian pre-blur applied before classification.
	BlurSigma float64

	// WarmupFrames suppresses foreground output for the first N frames
	// while the model settles. Zero emits from the first frame; the model
	// seeds from the first observation so early noise stays bounded.
	WarmupFrames int
}

// DefaultBackgroundParams returns the model defaults.
func DefaultBackgroundParams() BackgroundParams {
	return BackgroundParams{
		LearningRate: DefaultLearningRate,
		VarThreshold: DefaultVarThreshold,
		MinVariance:  DefaultMinVariance,
		BlurSigma:    DefaultBlurSigma,
		WarmupFrames: DefaultWarmupFrames,
	}
}

// BackgroundModel maintains per-pixel adaptive statistics over the frames of
// a single run. It is owned exclusively by one pipeline; state never crosses
// runs.
type BackgroundModel struct {
	Params BackgroundParams

	width  int
	height int
	mean   []float32
	vari   []float32
	frames int
	seeded bool
}

// NewBackgroundModel creates a model for frames of the given dimensions.
func NewBackgroundModel(width, height int, params BackgroundParams) *BackgroundModel {
	if params.LearningRate <= 0 || params.LearningRate > 1 {
		params.LearningRate = DefaultLearningRate
	}
	if params.VarThreshold <= 0 {
		params.VarThreshold = DefaultVarThreshold
	}
	if params.MinVariance <= 0 {
		params.MinVariance = DefaultMinVariance
	}
	return &BackgroundModel{
		Params: params,
		width:  width,
		height: height,
		mean:   make([]float32, width*height),
		vari:   make([]float32, width*height),
	}
}

// FramesSeen returns the number of frames the model has absorbed.
func (bm *BackgroundModel) FramesSeen() int { return bm.frames }

// Update absorbs one grayscale frame into the model and returns the
// foreground mask for it. The first frame seeds the per-pixel mean so the
// model does not start from an all-zero background; its mask is empty.
func (bm *BackgroundModel) Update(gray *image.Gray) *Mask {
	mask := NewMask(bm.width, bm.height)
	alpha := float32(bm.Params.LearningRate)
	k := float32(bm.Params.VarThreshold)
	minVar := float32(bm.Params.MinVariance)

	if !bm.seeded {
		for i := range bm.mean {
			bm.mean[i] = float32(gray.Pix[i])
			bm.vari[i] = DefaultInitialVariance
		}
		bm.seeded = true
		bm.frames++
		return mask
	}

	suppress := bm.frames < bm.Params.WarmupFrames
	for i := range bm.mean {
		x := float32(gray.Pix[i])
		d := x - bm.mean[i]
		v := bm.vari[i]
		if v < minVar {
			v = minVar
		}
		fg := d*d > k*v
		if fg {
			if suppress {
				// Items passing during warmup must not inflate the
				// settling statistics, or their pixels classify as
				// background the moment warmup ends.
				continue
			}
			mask.Bits[i] = 1
		}
		// Foreground pixels still update, just slowly enough that a
		// stalled item eventually merges into the background.
		bm.mean[i] += alpha * d
		bm.vari[i] = (1-alpha)*bm.vari[i] + alpha*d*d
	}
	bm.frames++
	return mask
}
