package playback

import (
	"sync"
	"testing"
	"time"

	"github.com/elits-ai/elits/pkg/audio/pcm"
)

func TestScheduleGapless(t *testing.T) {
	var s schedule
	now := time.Unix(100, 0)

	// First chunk plays immediately, second butts against it even though it
	// arrived at the same instant.
	if got := s.next(now, 20*time.Millisecond); !got.Equal(now) {
		t.Errorf("first start=%v, want %v", got, now)
	}
	want := now.Add(20 * time.Millisecond)
	if got := s.next(now, 20*time.Millisecond); !got.Equal(want) {
		t.Errorf("second start=%v, want %v", got, want)
	}
}

func TestScheduleCatchesUpAfterGap(t *testing.T) {
	var s schedule
	now := time.Unix(100, 0)
	s.next(now, 20*time.Millisecond)

	// A chunk arriving well after the cursor plays immediately.
	later := now.Add(time.Second)
	if got := s.next(later, 20*time.Millisecond); !got.Equal(later) {
		t.Errorf("start=%v, want %v", got, later)
	}
}

func TestScheduleReset(t *testing.T) {
	var s schedule
	now := time.Unix(100, 0)
	s.next(now, time.Hour)

	s.reset(now)
	if got := s.next(now, 20*time.Millisecond); !got.Equal(now) {
		t.Errorf("start after reset=%v, want %v", got, now)
	}
}

// discardSink counts writes without playing anything.
type discardSink struct {
	mu     sync.Mutex
	writes int
	closed int
}

func (d *discardSink) WriteFrame(b []byte) error {
	d.mu.Lock()
	d.writes++
	d.mu.Unlock()
	return nil
}

func (d *discardSink) Close() error {
	d.mu.Lock()
	d.closed++
	d.mu.Unlock()
	return nil
}

func (d *discardSink) counts() (writes, closed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes, d.closed
}

// chunkOf returns b bytes of silence, valid PCM16 length.
func chunkOf(b int) []byte { return make([]byte, b) }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(2 * time.Millisecond):
		}
	}
}

func TestPlayerWritesInOrder(t *testing.T) {
	sink := &discardSink{}
	p := New(sink, pcm.L16Mono24K, Options{})
	defer p.Stop()

	p.Enqueue(chunkOf(96)) // 2ms at 24 kHz
	p.Enqueue(chunkOf(96))
	p.Enqueue(chunkOf(96))

	waitFor(t, func() bool { w, _ := sink.counts(); return w == 3 })
	waitFor(t, func() bool { return !p.Active() })
}

func TestPlayerActiveTransitionsOnce(t *testing.T) {
	var mu sync.Mutex
	var edges []bool
	sink := &discardSink{}
	p := New(sink, pcm.L16Mono24K, Options{OnActive: func(a bool) {
		mu.Lock()
		edges = append(edges, a)
		mu.Unlock()
	}})
	defer p.Stop()

	p.Enqueue(chunkOf(96))
	p.Enqueue(chunkOf(96))

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(edges) == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if !edges[0] || edges[1] {
		t.Errorf("edges=%v, want [true false]", edges)
	}
}

func TestFlushDropsPending(t *testing.T) {
	sink := &discardSink{}
	p := New(sink, pcm.L16Mono24K, Options{})
	defer p.Stop()

	// A long first chunk keeps later chunks waiting on the cursor.
	p.Enqueue(chunkOf(48000)) // 1s at 24 kHz
	p.Enqueue(chunkOf(48000))
	p.Enqueue(chunkOf(48000))
	p.Flush()

	waitFor(t, func() bool { return !p.Active() })
	if w, _ := sink.counts(); w > 1 {
		t.Errorf("writes=%d after flush, want at most 1", w)
	}

	// The cursor reset, so new audio plays without waiting out the old tail.
	p.Enqueue(chunkOf(96))
	waitFor(t, func() bool { return !p.Active() })
}

func TestStopIdempotent(t *testing.T) {
	sink := &discardSink{}
	p := New(sink, pcm.L16Mono24K, Options{})
	p.Enqueue(chunkOf(96))
	p.Stop()
	p.Stop()

	if _, closed := sink.counts(); closed != 1 {
		t.Errorf("sink closed %d times, want 1", closed)
	}
	p.Enqueue(chunkOf(96)) // dropped, no panic
	if p.Active() {
		t.Error("player active after stop")
	}
}

func TestStopFiresInactiveEdge(t *testing.T) {
	var mu sync.Mutex
	var last *bool
	sink := &discardSink{}
	p := New(sink, pcm.L16Mono24K, Options{OnActive: func(a bool) {
		mu.Lock()
		v := a
		last = &v
		mu.Unlock()
	}})

	p.Enqueue(chunkOf(48000 * 10)) // long enough to still be pending at Stop
	p.Stop()

	mu.Lock()
	defer mu.Unlock()
	if last == nil || *last {
		t.Error("expected final inactive edge after stop")
	}
}
