// Package capture turns a live microphone into a stream of fixed-rate PCM16
// frames for the live session, with mute handling and a continuous amplitude
// signal for UI feedback.
package capture

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elits-ai/elits/pkg/audio/pcm"
	"github.com/elits-ai/elits/pkg/audio/portaudio"
	"github.com/elits-ai/elits/pkg/audio/resampler"
)

// Device is a microphone-like source of mono int16 samples.
type Device interface {
	// SampleRate returns the device sample rate in Hz.
	SampleRate() int

	// ReadFrame fills buf with captured samples, blocking until samples are
	// available, and returns the count read.
	ReadFrame(buf []int16) (int, error)

	// Close releases the device. Must be idempotent.
	Close() error
}

// DeviceError reports a failure to acquire or read the input device
// (permission denied, no device, device lost). It is retryable: the caller
// should surface it with a retry affordance, not treat it as fatal.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("capture: device: %v", e.Err) }
func (e *DeviceError) Unwrap() error { return e.Err }

const (
	// DefaultTargetRate is the input rate the live endpoint expects.
	DefaultTargetRate = 16000

	// defaultFrameSize is the number of device samples pulled per read.
	defaultFrameSize = 4096

	// levelSmoothing is the exponential smoothing factor for the amplitude
	// signal.
	levelSmoothing = 0.8
)

// Options configures a Capture.
type Options struct {
	// TargetRate is the output frame sample rate. Default 16000.
	TargetRate int

	// FrameSize is the number of device samples read per iteration.
	// Default 4096.
	FrameSize int

	// HighQuality selects the polyphase resampler over the default linear
	// interpolator for the device-rate conversion.
	HighQuality bool

	// OpenDevice acquires the input device. Default opens the system
	// microphone at 48 kHz via portaudio.
	OpenDevice func() (Device, error)
}

// Capture owns an input device and emits little-endian PCM16 frames at the
// target rate to a callback. Muting suppresses frames without touching the
// device, and the amplitude signal stays live through mute.
type Capture struct {
	opts Options

	mu      sync.Mutex
	dev     Device
	done    chan struct{}
	started bool

	muted atomic.Bool
	level atomic.Uint64 // math.Float64bits of the smoothed RMS
	wg    sync.WaitGroup
}

// New creates a Capture with the given options.
func New(opts Options) *Capture {
	if opts.TargetRate == 0 {
		opts.TargetRate = DefaultTargetRate
	}
	if opts.FrameSize == 0 {
		opts.FrameSize = defaultFrameSize
	}
	if opts.OpenDevice == nil {
		opts.OpenDevice = func() (Device, error) {
			return portaudio.OpenMicrophone(pcm.L16Mono48K, 20*time.Millisecond)
		}
	}
	return &Capture{opts: opts}
}

// Start acquires the device and begins emitting frames to onFrame. Frames
// produced while muted are dropped, not buffered. Returns a *DeviceError if
// the device cannot be acquired.
func (c *Capture) Start(onFrame func(frame []byte)) error {
	if onFrame == nil {
		return errors.New("capture: onFrame must not be nil")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return errors.New("capture: already started")
	}

	dev, err := c.opts.OpenDevice()
	if err != nil {
		return &DeviceError{Err: err}
	}

	var conv resampler.Converter
	if dev.SampleRate() != c.opts.TargetRate {
		if c.opts.HighQuality {
			hq, err := resampler.NewHQ(dev.SampleRate(), c.opts.TargetRate)
			if err != nil {
				dev.Close()
				return err
			}
			conv = hq
		} else {
			conv = resampler.NewLinear(dev.SampleRate(), c.opts.TargetRate, pcm.ResampleLinear)
		}
	}

	c.dev = dev
	c.done = make(chan struct{})
	c.started = true

	c.wg.Add(1)
	go c.readLoop(dev, conv, c.done, onFrame)
	return nil
}

func (c *Capture) readLoop(dev Device, conv resampler.Converter, done chan struct{}, onFrame func([]byte)) {
	defer c.wg.Done()

	buf := make([]int16, c.opts.FrameSize)
	for {
		select {
		case <-done:
			return
		default:
		}

		n, err := dev.ReadFrame(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}

		samples := pcm.Int16ToFloat32(buf[:n])
		c.updateLevel(samples)

		if c.muted.Load() {
			continue
		}

		if conv != nil {
			samples, err = conv.Process(samples)
			if err != nil || len(samples) == 0 {
				continue
			}
		}
		onFrame(pcm.Int16ToBytes(pcm.Float32ToInt16(samples)))
	}
}

// updateLevel folds one frame into the smoothed RMS amplitude.
func (c *Capture) updateLevel(samples []float32) {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	prev := math.Float64frombits(c.level.Load())
	c.level.Store(math.Float64bits(levelSmoothing*prev + (1-levelSmoothing)*rms))
}

// Level returns the current smoothed amplitude in [0, 1]. It stays live while
// muted so the UI can still show input activity.
func (c *Capture) Level() float64 {
	return math.Float64frombits(c.level.Load())
}

// SetMuted toggles frame suppression without tearing down the device, so
// resuming is instant.
func (c *Capture) SetMuted(muted bool) { c.muted.Store(muted) }

// Muted reports whether frames are currently suppressed.
func (c *Capture) Muted() bool { return c.muted.Load() }

// Stop releases the device and stops the read loop. Safe to call when never
// started or already stopped.
func (c *Capture) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	close(c.done)
	dev := c.dev
	c.dev = nil
	c.mu.Unlock()

	dev.Close()
	c.wg.Wait()
	c.level.Store(0)
}
