// Package trainer orchestrates a voice training call: it wires microphone
// capture into the live session, streams model audio into the playback queue,
// and coalesces transcript deltas into a finalized conversation log.
package trainer

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elits-ai/elits/pkg/audio/capture"
	"github.com/elits-ai/elits/pkg/audio/pcm"
	"github.com/elits-ai/elits/pkg/audio/playback"
	"github.com/elits-ai/elits/pkg/audio/portaudio"
	"github.com/elits-ai/elits/pkg/live"
)

// DefaultSpeakingThreshold is the smoothed amplitude above which the user
// counts as speaking.
const DefaultSpeakingThreshold = 0.05

// Options configures a Trainer.
type Options struct {
	// APIKey authenticates the live session. Required.
	APIKey string

	// SystemPrompt is the persona instruction for the call. Default is the
	// built-in trainer interview prompt.
	SystemPrompt string

	// Voice is the prebuilt voice name. Defaults to the live package default.
	Voice string

	// SpeakingThreshold is the amplitude above which UserSpeaking reports
	// true. Default 0.05.
	SpeakingThreshold float64

	// ClientOptions are extra live client options, mainly endpoint and model
	// overrides for tests.
	ClientOptions []live.Option

	// OpenDevice acquires the microphone. Default is the portaudio device.
	OpenDevice func() (capture.Device, error)

	// OpenSink acquires the speaker. Default is the portaudio device at the
	// model's 24 kHz output rate.
	OpenSink func() (playback.Sink, error)

	// OnLine receives each finalized transcript line as it is produced.
	OnLine func(Line)

	// OnStateChange receives connection state transitions.
	OnStateChange func(live.ConnectionState)

	// Logger receives call lifecycle logs. Default slog.Default().
	Logger *slog.Logger
}

// Trainer owns one voice call at a time. Connect establishes the pipeline,
// Disconnect releases it; both are safe to call repeatedly.
type Trainer struct {
	opts Options

	mu          sync.Mutex
	client      *live.Client
	mic         *capture.Capture
	player      *playback.Player
	coalescer   *Coalescer
	lines       []Line
	connectedAt time.Time

	state      atomic.Int32 // live.ConnectionState
	aiSpeaking atomic.Bool
}

// New creates a Trainer. No resources are acquired until Connect.
func New(opts Options) *Trainer {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = TrainerPrompt
	}
	if opts.SpeakingThreshold == 0 {
		opts.SpeakingThreshold = DefaultSpeakingThreshold
	}
	if opts.OpenSink == nil {
		opts.OpenSink = func() (playback.Sink, error) {
			return portaudio.OpenSpeaker(pcm.L16Mono24K, 20*time.Millisecond)
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Trainer{opts: opts}
}

// Connect tears down any previous call, then builds the pipeline: playback
// sink, live session with model fallback, and microphone capture feeding the
// session. On any failure everything acquired so far is released and the
// error is returned for the UI's retry affordance.
func (t *Trainer) Connect(ctx context.Context) error {
	t.Disconnect()

	sink, err := t.opts.OpenSink()
	if err != nil {
		return &capture.DeviceError{Err: err}
	}
	player := playback.New(sink, pcm.L16Mono24K, playback.Options{
		OnActive: func(active bool) { t.aiSpeaking.Store(active) },
		Logger:   t.opts.Logger,
	})

	coalescer := NewCoalescer(t.appendLine, CoalescerOptions{})

	clientOpts := append([]live.Option{
		live.WithSystemInstruction(t.opts.SystemPrompt),
	}, t.opts.ClientOptions...)
	if t.opts.Voice != "" {
		clientOpts = append(clientOpts, live.WithVoice(t.opts.Voice))
	}
	client := live.NewClient(t.opts.APIKey, live.Handlers{
		OnAudio:      player.Enqueue,
		OnTranscript: coalescer.Add,
		OnStateChange: func(s live.ConnectionState) {
			t.onStateChange(s)
		},
		OnInterrupted: player.Flush,
		OnError: func(err error) {
			t.opts.Logger.Warn("live session error", "error", err)
		},
	}, clientOpts...)

	micOpts := capture.Options{}
	if t.opts.OpenDevice != nil {
		micOpts.OpenDevice = t.opts.OpenDevice
	}
	mic := capture.New(micOpts)

	t.mu.Lock()
	t.client = client
	t.mic = mic
	t.player = player
	t.coalescer = coalescer
	t.lines = nil
	t.mu.Unlock()

	if err := client.Connect(ctx); err != nil {
		// The client already reported the error state; hanging it up here
		// would overwrite that with disconnected and lose the retry
		// affordance. Release everything else and leave the state alone.
		t.release(false)
		return err
	}

	if err := mic.Start(func(frame []byte) {
		client.SendAudio(frame)
	}); err != nil {
		t.Disconnect()
		return err
	}

	t.opts.Logger.Info("call connected")
	return nil
}

// Disconnect hangs up and releases the session, microphone, and speaker, in
// that order. Pending transcript fragments are finalized. Idempotent.
func (t *Trainer) Disconnect() {
	t.release(true)
}

// release clears the pipeline. hangUp additionally disconnects the live
// client; the connect-failure path skips that because the client never held a
// session and its state must keep reporting the failure.
func (t *Trainer) release(hangUp bool) {
	t.mu.Lock()
	client, mic, player, coalescer := t.client, t.mic, t.player, t.coalescer
	t.client, t.mic, t.player, t.coalescer = nil, nil, nil, nil
	t.connectedAt = time.Time{}
	t.mu.Unlock()

	if hangUp && client != nil {
		client.Disconnect()
	}
	if mic != nil {
		mic.Stop()
	}
	if player != nil {
		player.Stop()
	}
	if coalescer != nil {
		coalescer.Flush()
	}
	t.aiSpeaking.Store(false)
}

func (t *Trainer) onStateChange(s live.ConnectionState) {
	t.state.Store(int32(s))
	t.mu.Lock()
	if s == live.StateConnected {
		t.connectedAt = time.Now()
	} else {
		t.connectedAt = time.Time{}
	}
	t.mu.Unlock()
	if t.opts.OnStateChange != nil {
		t.opts.OnStateChange(s)
	}
}

func (t *Trainer) appendLine(line Line) {
	t.mu.Lock()
	t.lines = append(t.lines, line)
	t.mu.Unlock()
	if t.opts.OnLine != nil {
		t.opts.OnLine(line)
	}
}

// State returns the live connection state.
func (t *Trainer) State() live.ConnectionState {
	return live.ConnectionState(t.state.Load())
}

// Elapsed returns how long the call has been connected, zero when it is not.
func (t *Trainer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.connectedAt.IsZero() {
		return 0
	}
	return time.Since(t.connectedAt)
}

// ToggleMute flips microphone muting and returns the new muted state.
func (t *Trainer) ToggleMute() bool {
	t.mu.Lock()
	mic := t.mic
	t.mu.Unlock()
	if mic == nil {
		return false
	}
	muted := !mic.Muted()
	mic.SetMuted(muted)
	return muted
}

// Muted reports whether the microphone is muted.
func (t *Trainer) Muted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mic != nil && t.mic.Muted()
}

// AssistantSpeaking reports whether model audio is currently audible.
func (t *Trainer) AssistantSpeaking() bool { return t.aiSpeaking.Load() }

// UserSpeaking reports whether the microphone amplitude is above the speaking
// threshold.
func (t *Trainer) UserSpeaking() bool {
	t.mu.Lock()
	mic := t.mic
	t.mu.Unlock()
	return mic != nil && mic.Level() > t.opts.SpeakingThreshold
}

// Level returns the current microphone amplitude in [0, 1], or 0 when no
// call is active.
func (t *Trainer) Level() float64 {
	t.mu.Lock()
	mic := t.mic
	t.mu.Unlock()
	if mic == nil {
		return 0
	}
	return mic.Level()
}

// Transcript returns the finalized lines so far, oldest first.
func (t *Trainer) Transcript() []Line {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Line(nil), t.lines...)
}

// TrainerPrompt is the default interview persona for a training call.
const TrainerPrompt = `You are an interviewer building a personality profile of the user through a voice call.

CRITICAL VOICE RULES:
- Keep EVERY response to 1-2 sentences MAX. This is a phone call.
- Ask ONE question at a time, then STOP and WAIT for the user to respond.
- NEVER keep talking after asking a question. Say your piece, then silence.
- Speak in English only.

CONVERSATION FLOW:
1. Greet warmly, ask their name
2. Ask about their professional skills/expertise
3. Ask about interests and passions
4. Ask about communication style preferences
5. Ask about values and personality
6. After 5-8 exchanges, summarize what you learned

STYLE:
- Natural phone call energy, not robotic
- Mirror their tone
- Show genuine curiosity
- Be warm but concise`
