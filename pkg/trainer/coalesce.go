package trainer

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elits-ai/elits/pkg/live"
)

const (
	// DefaultUserDebounce is the quiet period after which the user transcript
	// buffer is finalized.
	DefaultUserDebounce = time.Second

	// DefaultModelDebounce is the quiet period for the model's transcript
	// buffer. Shorter than the user's because model deltas arrive in tighter
	// bursts.
	DefaultModelDebounce = 800 * time.Millisecond
)

// reasoningLeadIn matches model transcript fragments that leak planning text
// rather than spoken lines. Best-effort, English-only heuristic.
var reasoningLeadIn = regexp.MustCompile(`(?i)^(Initiating|Acknowledging|Processing|I'll|I'm|I need|Let me|Now |Okay)`)

// Line is one finalized transcript utterance.
type Line struct {
	ID        string
	Direction live.Direction
	Text      string
	At        time.Time
}

// CoalescerOptions tunes the per-direction debounce windows.
type CoalescerOptions struct {
	UserDebounce  time.Duration
	ModelDebounce time.Duration
}

// Coalescer buffers fragmented transcript deltas per direction and emits
// finalized lines. A direction's buffer flushes when its debounce timer
// expires with no further deltas, or immediately when a delta for the other
// direction arrives, so lines are never interleaved mid-utterance.
type Coalescer struct {
	opts CoalescerOptions
	emit func(Line)

	mu         sync.Mutex
	userBuf    string
	modelBuf   string
	userTimer  *time.Timer
	modelTimer *time.Timer
}

// NewCoalescer creates a coalescer delivering finalized lines to emit. The
// emit callback runs synchronously under the coalescer's lock and must not
// call back into the coalescer.
func NewCoalescer(emit func(Line), opts CoalescerOptions) *Coalescer {
	if opts.UserDebounce == 0 {
		opts.UserDebounce = DefaultUserDebounce
	}
	if opts.ModelDebounce == 0 {
		opts.ModelDebounce = DefaultModelDebounce
	}
	return &Coalescer{opts: opts, emit: emit}
}

// Add appends one transcript delta. Model deltas that are blank or that match
// the reasoning lead-in filter are discarded without touching either buffer.
func (c *Coalescer) Add(text string, dir live.Direction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if dir == live.DirectionUser {
		c.flushModelLocked()
		c.userBuf += text
		c.resetTimer(&c.userTimer, c.opts.UserDebounce, c.flushUser)
		return
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" || reasoningLeadIn.MatchString(trimmed) {
		return
	}
	c.flushUserLocked()
	c.modelBuf += text
	c.resetTimer(&c.modelTimer, c.opts.ModelDebounce, c.flushModel)
}

func (c *Coalescer) resetTimer(t **time.Timer, d time.Duration, fn func()) {
	if *t != nil {
		(*t).Stop()
	}
	*t = time.AfterFunc(d, fn)
}

func (c *Coalescer) flushUser() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushUserLocked()
}

func (c *Coalescer) flushModel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushModelLocked()
}

func (c *Coalescer) flushUserLocked() {
	if c.userTimer != nil {
		c.userTimer.Stop()
		c.userTimer = nil
	}
	text := strings.TrimSpace(c.userBuf)
	c.userBuf = ""
	if text != "" {
		c.emit(Line{ID: uuid.NewString(), Direction: live.DirectionUser, Text: text, At: time.Now()})
	}
}

func (c *Coalescer) flushModelLocked() {
	if c.modelTimer != nil {
		c.modelTimer.Stop()
		c.modelTimer = nil
	}
	text := strings.TrimSpace(c.modelBuf)
	c.modelBuf = ""
	if text != "" {
		c.emit(Line{ID: uuid.NewString(), Direction: live.DirectionModel, Text: text, At: time.Now()})
	}
}

// Flush finalizes both buffers immediately, user first. Called on hang-up so
// trailing speech is not lost.
func (c *Coalescer) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushUserLocked()
	c.flushModelLocked()
}
