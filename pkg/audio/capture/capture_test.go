package capture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/elits-ai/elits/pkg/audio/pcm"
)

// fakeDevice serves queued frames and then blocks until closed.
type fakeDevice struct {
	rate   int
	frames [][]int16

	mu     sync.Mutex
	next   int
	closed chan struct{}
	once   sync.Once
}

func newFakeDevice(rate int, frames ...[]int16) *fakeDevice {
	return &fakeDevice{rate: rate, frames: frames, closed: make(chan struct{})}
}

func (d *fakeDevice) SampleRate() int { return d.rate }

func (d *fakeDevice) ReadFrame(buf []int16) (int, error) {
	d.mu.Lock()
	if d.next < len(d.frames) {
		f := d.frames[d.next]
		d.next++
		d.mu.Unlock()
		return copy(buf, f), nil
	}
	d.mu.Unlock()
	<-d.closed
	return 0, errors.New("device closed")
}

func (d *fakeDevice) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}

func collectFrames(t *testing.T, c *Capture, want int) [][]byte {
	t.Helper()
	var mu sync.Mutex
	var got [][]byte
	done := make(chan struct{})
	if err := c.Start(func(frame []byte) {
		mu.Lock()
		got = append(got, frame)
		if len(got) == want {
			close(done)
		}
		mu.Unlock()
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frames")
	}
	c.Stop()
	mu.Lock()
	defer mu.Unlock()
	return got
}

func TestStartEmitsResampledFrames(t *testing.T) {
	dev := newFakeDevice(48000, make([]int16, 480), make([]int16, 480))
	c := New(Options{OpenDevice: func() (Device, error) { return dev, nil }})

	frames := collectFrames(t, c, 2)
	for i, f := range frames {
		// 480 samples at 48 kHz resample to 160 at 16 kHz, 2 bytes each.
		if len(f) != 320 {
			t.Errorf("frame %d: len=%d, want 320", i, len(f))
		}
	}
}

func TestStartDeviceError(t *testing.T) {
	c := New(Options{OpenDevice: func() (Device, error) {
		return nil, errors.New("permission denied")
	}})

	err := c.Start(func([]byte) {})
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("err=%v, want *DeviceError", err)
	}
	c.Stop() // no-op after failed start
}

func TestMuteDropsFramesButTracksLevel(t *testing.T) {
	loud := make([]int16, 480)
	for i := range loud {
		loud[i] = 16000
	}
	dev := newFakeDevice(48000, loud, loud, loud)
	c := New(Options{OpenDevice: func() (Device, error) { return dev, nil }})
	c.SetMuted(true)

	if err := c.Start(func([]byte) {
		t.Error("muted capture must not emit frames")
	}); err != nil {
		t.Fatalf("start: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for c.Level() == 0 {
		select {
		case <-deadline:
			t.Fatal("level never rose while muted")
		case <-time.After(5 * time.Millisecond):
		}
	}
	c.Stop()
}

func TestUnmuteResumes(t *testing.T) {
	dev := newFakeDevice(16000, make([]int16, 160))
	c := New(Options{OpenDevice: func() (Device, error) { return dev, nil }})

	c.SetMuted(true)
	if !c.Muted() {
		t.Fatal("expected muted")
	}
	c.SetMuted(false)

	frames := collectFrames(t, c, 1)
	// Device already at target rate, frame passes through unresampled.
	if len(frames[0]) != 320 {
		t.Errorf("len=%d, want 320", len(frames[0]))
	}
}

func TestStopIdempotent(t *testing.T) {
	dev := newFakeDevice(16000)
	c := New(Options{OpenDevice: func() (Device, error) { return dev, nil }})
	if err := c.Start(func([]byte) {}); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Stop()
	c.Stop()
	if c.Level() != 0 {
		t.Errorf("level=%v after stop, want 0", c.Level())
	}
}

func TestFrameBytesRoundTrip(t *testing.T) {
	src := make([]int16, 160)
	for i := range src {
		src[i] = int16(i * 100)
	}
	dev := newFakeDevice(16000, src)
	c := New(Options{OpenDevice: func() (Device, error) { return dev, nil }})

	frames := collectFrames(t, c, 1)
	got := pcm.BytesToInt16(frames[0])
	if len(got) != len(src) {
		t.Fatalf("len=%d, want %d", len(got), len(src))
	}
	for i := range got {
		if d := int(got[i]) - int(src[i]); d < -1 || d > 1 {
			t.Fatalf("sample %d: got %d, want %d", i, got[i], src[i])
		}
	}
}
