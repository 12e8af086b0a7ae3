// Package playback plays model audio chunks gaplessly on an output device,
// tracking whether the assistant is currently audible and supporting the
// immediate cut-off an interruption requires.
package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/elits-ai/elits/pkg/audio/pcm"
)

// Sink is a speaker-like consumer of little-endian PCM16 bytes. WriteFrame
// blocks until the device has consumed the chunk.
type Sink interface {
	WriteFrame(b []byte) error
	Close() error
}

// defaultQueueSize bounds how many chunks can wait for the writer. The model
// streams faster than real time, so bursts are normal.
const defaultQueueSize = 256

// Options configures a Player.
type Options struct {
	// OnActive is called with true when playback becomes audible and false
	// when the last queued chunk finishes or is flushed. Transitions fire
	// exactly once per edge.
	OnActive func(active bool)

	// QueueSize bounds the pending chunk queue. Default 256.
	QueueSize int

	// Logger receives drop warnings. Default slog.Default().
	Logger *slog.Logger
}

type chunk struct {
	data   []byte
	start  time.Time
	cancel <-chan struct{}
}

// Player schedules PCM16 chunks for gapless playback on a Sink. Chunks are
// played in arrival order. Flush drops everything not yet written so new
// audio starts immediately.
type Player struct {
	sink   Sink
	format pcm.Format
	opts   Options

	queue chan chunk
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	sched   schedule
	genCh   chan struct{} // closed when the current generation is flushed
	pending int
	stopped bool
}

// New creates a Player writing chunks of the given format to sink and starts
// its writer loop.
func New(sink Sink, format pcm.Format, opts Options) *Player {
	if opts.QueueSize == 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	p := &Player{
		sink:   sink,
		format: format,
		opts:   opts,
		queue:  make(chan chunk, opts.QueueSize),
		done:   make(chan struct{}),
		genCh:  make(chan struct{}),
	}
	p.wg.Add(1)
	go p.writeLoop()
	return p
}

// Enqueue schedules one chunk for playback. Chunks enqueued after Stop are
// dropped silently; a full queue drops the chunk with a warning rather than
// blocking the caller.
func (p *Player) Enqueue(b []byte) {
	if len(b) == 0 {
		return
	}

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	d := p.format.Duration(int64(len(b)))
	c := chunk{data: b, start: p.sched.next(time.Now(), d), cancel: p.genCh}
	select {
	case p.queue <- c:
	default:
		p.mu.Unlock()
		p.opts.Logger.Warn("playback queue full, dropping chunk", "bytes", len(b))
		return
	}
	p.pending++
	edge := p.pending == 1
	p.mu.Unlock()

	if edge && p.opts.OnActive != nil {
		p.opts.OnActive(true)
	}
}

func (p *Player) writeLoop() {
	defer p.wg.Done()
	for {
		var c chunk
		select {
		case <-p.done:
			return
		case c = <-p.queue:
		}

		if p.waitStart(c) {
			if err := p.sink.WriteFrame(c.data); err != nil {
				p.opts.Logger.Warn("playback write failed", "error", err)
			}
		}
		p.finishChunk()
	}
}

// waitStart sleeps until the chunk's start time and reports whether the chunk
// should still be played. A flush or stop during the wait cancels it.
func (p *Player) waitStart(c chunk) bool {
	select {
	case <-c.cancel:
		return false
	default:
	}
	if wait := time.Until(c.start); wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-p.done:
			return false
		case <-c.cancel:
			return false
		case <-t.C:
		}
	}
	return true
}

func (p *Player) finishChunk() {
	p.mu.Lock()
	p.pending--
	edge := p.pending == 0
	p.mu.Unlock()

	if edge && p.opts.OnActive != nil {
		p.opts.OnActive(false)
	}
}

// Active reports whether any chunk is queued or playing.
func (p *Player) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending > 0
}

// Flush drops all chunks not yet written to the sink and resets the cursor to
// now, so the next Enqueue plays immediately. Called on interruption.
func (p *Player) Flush() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	close(p.genCh)
	p.genCh = make(chan struct{})
	p.sched.reset(time.Now())
	p.mu.Unlock()
}

// Stop flushes, stops the writer, and closes the sink. Idempotent.
func (p *Player) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.genCh)
	close(p.done)
	edge := p.pending > 0
	p.pending = 0
	p.mu.Unlock()

	p.wg.Wait()
	if err := p.sink.Close(); err != nil {
		p.opts.Logger.Warn("playback sink close failed", "error", err)
	}
	if edge && p.opts.OnActive != nil {
		p.opts.OnActive(false)
	}
}
