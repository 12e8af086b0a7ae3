// Package resampler provides a high-quality sample-rate converter for
// capture frames, built on a pure Go soxr-style resampler. The linear
// interpolator in pkg/audio/pcm is the default capture path; this package is
// the opt-in alternative when capture quality matters more than latency.
package resampler
