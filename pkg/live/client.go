// Package live implements the client side of a bidirectional streaming voice
// session with the generative-language live endpoint: connection setup with
// multi-model fallback, outbound audio and text framing, and inbound event
// demultiplexing into audio, text, and transcript callbacks.
package live

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elits-ai/elits/pkg/audio/pcm"
)

const (
	// DefaultEndpoint is the live websocket endpoint.
	DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

	// DefaultHandshakeTimeout bounds each candidate model's setup handshake.
	DefaultHandshakeTimeout = 8 * time.Second

	// DefaultVoice is the prebuilt voice used when none is configured.
	DefaultVoice = "Aoede"

	// DefaultLanguage is the speech and transcription language code.
	DefaultLanguage = "en-US"
)

// DefaultModels is the candidate model list, tried in order. The endpoint may
// deprecate or rate-limit individual identifiers independently, so the first
// model whose handshake completes wins.
var DefaultModels = []string{
	"gemini-2.5-flash-native-audio-latest",
	"gemini-2.5-flash-native-audio-preview-12-2025",
}

// Handlers receives session events. All handlers are optional; nil handlers
// drop their events. Handlers are invoked from the session's read goroutine
// in message arrival order and must not block.
type Handlers struct {
	// OnAudio receives decoded PCM16 audio chunks at 24 kHz.
	OnAudio func(pcm []byte)

	// OnText receives model text fragments from turn parts.
	OnText func(text string)

	// OnTranscript receives transcription deltas tagged by speaker.
	OnTranscript func(text string, dir Direction)

	// OnStateChange receives every connection state transition.
	OnStateChange func(state ConnectionState)

	// OnError receives mid-call socket errors. Handshake failures are not
	// reported here; they are returned from Connect.
	OnError func(err error)

	// OnInterrupted fires when the server reports the user talked over the
	// model. The caller should flush queued playback immediately.
	OnInterrupted func()
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey            string
	endpoint          string
	models            []string
	handshakeTimeout  time.Duration
	voice             string
	language          string
	systemInstruction string
}

// Option configures the Client.
type Option func(*clientConfig)

// WithEndpoint overrides the websocket endpoint, mainly for tests.
func WithEndpoint(url string) Option {
	return func(c *clientConfig) { c.endpoint = url }
}

// WithModels overrides the candidate model list tried in priority order.
func WithModels(models ...string) Option {
	return func(c *clientConfig) { c.models = models }
}

// WithHandshakeTimeout overrides the per-model setup timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.handshakeTimeout = d }
}

// WithVoice sets the prebuilt voice name for model speech.
func WithVoice(voice string) Option {
	return func(c *clientConfig) { c.voice = voice }
}

// WithLanguage sets the speech and transcription language code.
func WithLanguage(code string) Option {
	return func(c *clientConfig) { c.language = code }
}

// WithSystemInstruction sets the persona prompt negotiated at setup.
func WithSystemInstruction(text string) Option {
	return func(c *clientConfig) { c.systemInstruction = text }
}

// Client manages the streaming session lifecycle. At most one session exists
// at a time; Connect tears down any prior session first.
type Client struct {
	cfg      clientConfig
	handlers Handlers

	mu    sync.Mutex
	sess  *session
	state ConnectionState
}

// NewClient creates a live session client. The apiKey is required; handlers
// may be zero if the caller only needs send operations.
func NewClient(apiKey string, handlers Handlers, opts ...Option) *Client {
	cfg := clientConfig{
		apiKey:           apiKey,
		endpoint:         DefaultEndpoint,
		models:           DefaultModels,
		handshakeTimeout: DefaultHandshakeTimeout,
		voice:            DefaultVoice,
		language:         DefaultLanguage,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Client{cfg: cfg, handlers: handlers, state: StateDisconnected}
}

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	if c.handlers.OnStateChange != nil {
		c.handlers.OnStateChange(state)
	}
}

// Connect establishes a session, trying each candidate model in order until
// one completes the setup handshake within the per-model timeout. On success
// the state is connected and the winning session's events start flowing to
// the handlers. If every candidate fails, the state is error and the
// aggregated *HandshakeError is returned.
func (c *Client) Connect(ctx context.Context) error {
	c.teardown()
	c.setState(StateConnecting)

	var attempts []Attempt
	for _, model := range c.cfg.models {
		sess, err := c.dial(ctx, model)
		if err != nil {
			attempts = append(attempts, Attempt{Model: model, Err: err})
			slog.Debug("live: connect attempt failed", "model", model, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		c.mu.Lock()
		c.sess = sess
		c.mu.Unlock()
		c.setState(StateConnected)
		go c.run(sess)
		return nil
	}

	c.setState(StateError)
	return &HandshakeError{Attempts: attempts}
}

// dial opens a socket to one candidate model, sends the setup frame, and
// races the setup confirmation against the handshake timeout.
func (c *Client) dial(ctx context.Context, model string) (*session, error) {
	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.cfg.endpoint+"?key="+c.cfg.apiKey, nil)
	if err != nil {
		return nil, &Error{Code: "dial_failed", Message: err.Error()}
	}

	sess := newSession(conn, model)
	if err := sess.send(c.setupFrame(model)); err != nil {
		sess.close()
		return nil, &Error{Code: "setup_send_failed", Message: err.Error()}
	}

	timer := time.NewTimer(c.cfg.handshakeTimeout)
	defer timer.Stop()
	for {
		select {
		case <-sess.setupCh:
			return sess, nil
		case item, ok := <-sess.events:
			if !ok || item.err != nil {
				sess.close()
				return nil, &Error{Code: "closed_before_setup", Message: fmt.Sprintf("%v", item.err)}
			}
			// Nothing meaningful arrives before setup completes; drop it.
		case <-timer.C:
			sess.close()
			return nil, &Error{Code: "handshake_timeout", Message: fmt.Sprintf("no setup confirmation within %s", c.cfg.handshakeTimeout)}
		case <-ctx.Done():
			sess.close()
			return nil, ctx.Err()
		}
	}
}

func (c *Client) setupFrame(model string) *clientMessage {
	return &clientMessage{
		Setup: &setup{
			Model: model,
			GenerationConfig: &generationConfig{
				ResponseModalities: []string{"AUDIO"},
				SpeechConfig: &speechConfig{
					VoiceConfig:  &voiceConfig{PrebuiltVoiceConfig: &prebuiltVoiceConfig{VoiceName: c.cfg.voice}},
					LanguageCode: c.cfg.language,
				},
				ThinkingConfig: &thinkingConfig{ThinkingBudget: 0},
			},
			SystemInstruction:        &content{Parts: []part{{Text: c.cfg.systemInstruction}}},
			InputAudioTranscription:  &transcriptionConfig{LanguageCode: c.cfg.language},
			OutputAudioTranscription: &transcriptionConfig{LanguageCode: c.cfg.language},
			RealtimeInputConfig: &realtimeInputConfig{
				AutomaticActivityDetection: &activityDetection{
					StartOfSpeechSensitivity: startSensitivityHigh,
					EndOfSpeechSensitivity:   endSensitivityHigh,
				},
			},
		},
	}
}

// run consumes the session's events after a successful handshake. It returns
// when the session closes, deliberately or not.
func (c *Client) run(sess *session) {
	for item := range sess.events {
		if item.err != nil {
			if sess.closed() {
				return
			}
			// Unsolicited close or read error on a live session. Release the
			// socket so the read goroutine is not left behind.
			sess.close()
			c.mu.Lock()
			current := c.sess == sess
			if current {
				c.sess = nil
			}
			c.mu.Unlock()
			if current {
				if c.handlers.OnError != nil {
					c.handlers.OnError(item.err)
				}
				c.setState(StateDisconnected)
			}
			return
		}
		c.handleMessage(item.msg)
	}
}

// handleMessage demuxes one server message. An interruption short-circuits
// the remaining fields of the same message.
func (c *Client) handleMessage(msg *serverMessage) {
	sc := msg.ServerContent
	if sc == nil {
		return
	}

	if sc.Interrupted {
		if c.handlers.OnInterrupted != nil {
			c.handlers.OnInterrupted()
		}
		return
	}

	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p.InlineData != nil && strings.HasPrefix(p.InlineData.MIMEType, "audio/") && p.InlineData.Data != "" {
				data, err := pcm.DecodeBase64(p.InlineData.Data)
				if err != nil {
					slog.Debug("live: dropping undecodable audio part", "error", err)
					continue
				}
				if c.handlers.OnAudio != nil {
					c.handlers.OnAudio(data)
				}
			}
			if p.Text != "" && c.handlers.OnText != nil {
				c.handlers.OnText(p.Text)
			}
		}
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" && c.handlers.OnTranscript != nil {
		c.handlers.OnTranscript(sc.InputTranscription.Text, DirectionUser)
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" && c.handlers.OnTranscript != nil {
		c.handlers.OnTranscript(sc.OutputTranscription.Text, DirectionModel)
	}
}

// activeSession returns the session handle only while connected.
func (c *Client) activeSession() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected {
		return nil
	}
	return c.sess
}

// SendAudio streams one PCM16 frame at 16 kHz to the model. Frames produced
// while not connected are dropped, never raised; the result names which.
func (c *Client) SendAudio(frame []byte) SendResult {
	sess := c.activeSession()
	if sess == nil {
		return SendDroppedNotConnected
	}
	msg := &clientMessage{RealtimeInput: &realtimeInput{
		MediaChunks: []blob{{
			MIMEType: pcm.L16Mono16K.MIMEType(),
			Data:     pcm.EncodeBase64(frame),
		}},
	}}
	if err := sess.send(msg); err != nil {
		return SendDroppedClosing
	}
	return SendSent
}

// SendText sends a complete user text turn.
func (c *Client) SendText(text string) SendResult {
	sess := c.activeSession()
	if sess == nil {
		return SendDroppedNotConnected
	}
	msg := &clientMessage{ClientContent: &clientContent{
		Turns:        []content{{Role: "user", Parts: []part{{Text: text}}}},
		TurnComplete: true,
	}}
	if err := sess.send(msg); err != nil {
		return SendDroppedClosing
	}
	return SendSent
}

// teardown closes and clears any existing session without notifying.
func (c *Client) teardown() {
	c.mu.Lock()
	sess := c.sess
	c.sess = nil
	c.mu.Unlock()
	if sess != nil {
		sess.close()
	}
}

// Disconnect hangs up. Callable in any state, including already
// disconnected, without error.
func (c *Client) Disconnect() {
	c.teardown()
	c.setState(StateDisconnected)
}
