package resampler

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Converter converts mono float frames from one sample rate to another.
// Implementations may be stateful across frames; a Converter is not safe for
// concurrent use.
type Converter interface {
	// Process converts one frame of samples. The returned slice may be
	// shorter or longer than the input depending on the rate ratio, and may
	// be empty while the converter buffers internally.
	Process(samples []float32) ([]float32, error)
}

// Linear is a stateless Converter using linear interpolation.
type Linear struct {
	FromRate int
	ToRate   int

	interpolate func(samples []float32, fromRate, toRate int) []float32
}

// NewLinear creates a linear Converter using the given interpolation
// function (typically pcm.ResampleLinear).
func NewLinear(fromRate, toRate int, fn func([]float32, int, int) []float32) *Linear {
	return &Linear{FromRate: fromRate, ToRate: toRate, interpolate: fn}
}

// Process converts one frame by pure interpolation; no state is carried
// between frames.
func (l *Linear) Process(samples []float32) ([]float32, error) {
	return l.interpolate(samples, l.FromRate, l.ToRate), nil
}

// HQ is a Converter backed by a soxr-style polyphase resampler. It carries
// filter state between frames, so the first frames may yield fewer samples
// than the rate ratio implies.
type HQ struct {
	rs resampling.Resampler
}

// NewHQ creates a high-quality mono converter from fromRate to toRate.
func NewHQ(fromRate, toRate int) (*HQ, error) {
	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(fromRate),
		OutputRate: float64(toRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}
	return &HQ{rs: rs}, nil
}

// Process converts one frame through the polyphase filter.
func (h *HQ) Process(samples []float32) ([]float32, error) {
	in := make([]float64, len(samples))
	for i, s := range samples {
		in[i] = float64(s)
	}
	out, err := h.rs.Process(in)
	if err != nil {
		return nil, fmt.Errorf("resampler: %w", err)
	}
	res := make([]float32, len(out))
	for i, s := range out {
		res[i] = float32(s)
	}
	return res, nil
}
