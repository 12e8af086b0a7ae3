package trainer

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/elits-ai/elits/pkg/audio/capture"
	"github.com/elits-ai/elits/pkg/audio/playback"
	"github.com/elits-ai/elits/pkg/live"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// callEndpoint fakes the live endpoint: it confirms setup and records the
// first byte of every inbound audio frame.
type callEndpoint struct {
	srv *httptest.Server

	mu     sync.Mutex
	frames []byte
}

func newCallEndpoint(t *testing.T) *callEndpoint {
	t.Helper()
	e := &callEndpoint{}
	e.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if _, _, err := conn.ReadMessage(); err != nil { // setup frame
			return
		}
		conn.WriteJSON(map[string]any{"setupComplete": map[string]any{}})

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var frame struct {
				RealtimeInput struct {
					MediaChunks []struct {
						Data string `json:"data"`
					} `json:"mediaChunks"`
				} `json:"realtimeInput"`
			}
			if json.Unmarshal(data, &frame) != nil {
				continue
			}
			for _, chunk := range frame.RealtimeInput.MediaChunks {
				raw, err := base64.StdEncoding.DecodeString(chunk.Data)
				if err != nil || len(raw) == 0 {
					continue
				}
				e.mu.Lock()
				e.frames = append(e.frames, raw[0])
				e.mu.Unlock()
			}
		}
	}))
	t.Cleanup(e.srv.Close)
	return e
}

func (e *callEndpoint) url() string {
	return "ws" + strings.TrimPrefix(e.srv.URL, "http")
}

func (e *callEndpoint) received() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]byte(nil), e.frames...)
}

func (e *callEndpoint) waitFrames(t *testing.T, n int) []byte {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if got := e.received(); len(got) >= n {
			return got
		}
		select {
		case <-deadline:
			t.Fatalf("frames=%v, want %d", e.received(), n)
		case <-time.After(2 * time.Millisecond):
		}
	}
}

// pushDevice is a microphone whose frames the test feeds in one by one. It
// signals ready at every ReadFrame entry, so a test that consumes one ready
// per pushed frame knows the previous frame was fully processed.
type pushDevice struct {
	frames chan []int16
	ready  chan struct{}
	closed chan struct{}
	once   sync.Once
}

func newPushDevice() *pushDevice {
	return &pushDevice{
		frames: make(chan []int16),
		ready:  make(chan struct{}, 64),
		closed: make(chan struct{}),
	}
}

func (d *pushDevice) SampleRate() int { return 16000 }

func (d *pushDevice) ReadFrame(buf []int16) (int, error) {
	select {
	case d.ready <- struct{}{}:
	case <-d.closed:
		return 0, errors.New("device closed")
	}
	select {
	case f := <-d.frames:
		return copy(buf, f), nil
	case <-d.closed:
		return 0, errors.New("device closed")
	}
}

func (d *pushDevice) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}

// pushAndWait feeds one frame whose first sample carries the given tag and
// blocks until the capture loop has finished processing it.
func (d *pushDevice) pushAndWait(t *testing.T, tag int16) {
	t.Helper()
	f := make([]int16, 160)
	f[0] = tag
	select {
	case d.frames <- f:
	case <-time.After(2 * time.Second):
		t.Fatal("capture loop never picked up frame")
	}
	select {
	case <-d.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("capture loop never finished frame")
	}
}

// awaitLoop consumes the ready signal emitted when the capture loop starts.
func (d *pushDevice) awaitLoop(t *testing.T) {
	t.Helper()
	select {
	case <-d.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("capture loop never started")
	}
}

type nullSink struct{}

func (nullSink) WriteFrame([]byte) error { return nil }
func (nullSink) Close() error            { return nil }

func newTestTrainer(t *testing.T, ep *callEndpoint, dev *pushDevice) *Trainer {
	t.Helper()
	tr := New(Options{
		APIKey: "test-key",
		ClientOptions: []live.Option{
			live.WithEndpoint(ep.url()),
			live.WithModels("test-model"),
		},
		OpenDevice: func() (capture.Device, error) { return dev, nil },
		OpenSink:   func() (playback.Sink, error) { return nullSink{}, nil },
	})
	t.Cleanup(tr.Disconnect)
	return tr
}

func TestCallMuteWindow(t *testing.T) {
	ep := newCallEndpoint(t)
	dev := newPushDevice()
	tr := newTestTrainer(t, ep, dev)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if got := tr.State(); got != live.StateConnected {
		t.Fatalf("state=%v, want connected", got)
	}

	dev.awaitLoop(t)
	for i := 1; i <= 5; i++ {
		dev.pushAndWait(t, int16(i))
	}
	ep.waitFrames(t, 5)

	if muted := tr.ToggleMute(); !muted {
		t.Fatal("ToggleMute should report muted")
	}
	for i := 6; i <= 10; i++ {
		dev.pushAndWait(t, int16(i))
	}
	if muted := tr.ToggleMute(); muted {
		t.Fatal("ToggleMute should report unmuted")
	}

	// A post-unmute sentinel frame proves the muted window was consumed and
	// dropped, not queued.
	dev.pushAndWait(t, 99)
	got := ep.waitFrames(t, 6)
	if len(got) != 6 {
		t.Fatalf("frames=%v, want exactly 6", got)
	}
	want := []byte{1, 2, 3, 4, 5, 99}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frames=%v, want %v", got, want)
		}
	}
}

func TestConnectFailureSurfacesError(t *testing.T) {
	dev := newPushDevice()
	var mu sync.Mutex
	var states []live.ConnectionState
	tr := New(Options{
		APIKey: "test-key",
		ClientOptions: []live.Option{
			live.WithEndpoint("ws://127.0.0.1:1"),
			live.WithModels("test-model"),
			live.WithHandshakeTimeout(100 * time.Millisecond),
		},
		OpenDevice: func() (capture.Device, error) { return dev, nil },
		OpenSink:   func() (playback.Sink, error) { return nullSink{}, nil },
		OnStateChange: func(s live.ConnectionState) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})
	t.Cleanup(tr.Disconnect)

	err := tr.Connect(context.Background())
	var hs *live.HandshakeError
	if !errors.As(err, &hs) {
		t.Fatalf("err=%v, want *HandshakeError", err)
	}
	if got := tr.State(); got != live.StateError {
		t.Errorf("state=%v, want error", got)
	}

	// Connect's own cleanup must not downgrade the error state; the last
	// transition the UI sees is the one the retry affordance keys off.
	mu.Lock()
	last := states[len(states)-1]
	mu.Unlock()
	if last != live.StateError {
		t.Errorf("last transition=%v, want error", last)
	}
}

func TestDeviceFailureReleasesSession(t *testing.T) {
	ep := newCallEndpoint(t)
	tr := New(Options{
		APIKey: "test-key",
		ClientOptions: []live.Option{
			live.WithEndpoint(ep.url()),
			live.WithModels("test-model"),
		},
		OpenDevice: func() (capture.Device, error) { return nil, errors.New("no device") },
		OpenSink:   func() (playback.Sink, error) { return nullSink{}, nil },
	})
	t.Cleanup(tr.Disconnect)

	err := tr.Connect(context.Background())
	var devErr *capture.DeviceError
	if !errors.As(err, &devErr) {
		t.Fatalf("err=%v, want *DeviceError", err)
	}
	if got := tr.State(); got != live.StateDisconnected {
		t.Errorf("state=%v, want disconnected", got)
	}
}

func TestDisconnectIdempotent(t *testing.T) {
	ep := newCallEndpoint(t)
	dev := newPushDevice()
	tr := newTestTrainer(t, ep, dev)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	tr.Disconnect()
	tr.Disconnect()

	if got := tr.State(); got != live.StateDisconnected {
		t.Errorf("state=%v, want disconnected", got)
	}
	if tr.Elapsed() != 0 {
		t.Error("elapsed should reset on disconnect")
	}
	if tr.Muted() || tr.UserSpeaking() || tr.AssistantSpeaking() {
		t.Error("derived flags should reset on disconnect")
	}
}

func TestElapsedCountsWhileConnected(t *testing.T) {
	ep := newCallEndpoint(t)
	dev := newPushDevice()
	tr := newTestTrainer(t, ep, dev)

	if tr.Elapsed() != 0 {
		t.Error("elapsed before connect should be zero")
	}
	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if tr.Elapsed() <= 0 {
		t.Error("elapsed should count while connected")
	}
}
