package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// session owns one websocket connection to the live endpoint. The read loop
// demuxes the setup confirmation from the event stream; everything else is
// delivered in arrival order on events.
type session struct {
	conn  *websocket.Conn
	model string

	setupCh   chan struct{} // closed when the server confirms setup
	events    chan messageOrError
	closeCh   chan struct{}
	closeOnce sync.Once
	setupOnce sync.Once
	writeMu   sync.Mutex
}

type messageOrError struct {
	msg *serverMessage
	err error
}

func newSession(conn *websocket.Conn, model string) *session {
	s := &session{
		conn:    conn,
		model:   model,
		setupCh: make(chan struct{}),
		events:  make(chan messageOrError, 100),
		closeCh: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// send writes one client frame to the socket. Serialized so concurrent audio
// and text sends never interleave a websocket write.
func (s *session) send(msg *clientMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		if b, err := json.Marshal(msg); err == nil {
			str := string(b)
			if len(str) > 500 {
				str = str[:500] + "..."
			}
			slog.Debug("live: sending frame", "model", s.model, "content", str)
		}
	}

	return s.conn.WriteJSON(msg)
}

// readLoop reads server messages until the socket errors or the session
// closes. The setup confirmation is surfaced via setupCh instead of events so
// the handshake race has a dedicated signal.
func (s *session) readLoop() {
	defer close(s.events)

	for {
		select {
		case <-s.closeCh:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closeCh:
			case s.events <- messageOrError{err: fmt.Errorf("read error: %w", err)}:
			}
			return
		}

		if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
			str := string(data)
			if len(str) > 1000 {
				str = str[:1000] + "..."
			}
			slog.Debug("live: received message", "model", s.model, "len", len(data), "content", str)
		}

		// One unparseable frame is a transient hiccup, not the end of the
		// session; keep reading.
		var msg serverMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("live: dropping unparseable frame", "model", s.model, "len", len(data), "error", err)
			continue
		}

		if msg.SetupComplete != nil {
			s.setupOnce.Do(func() { close(s.setupCh) })
			if msg.ServerContent == nil {
				continue
			}
		}

		select {
		case <-s.closeCh:
			return
		case s.events <- messageOrError{msg: &msg}:
		}
	}
}

// close tears the socket down. Idempotent; close errors are swallowed because
// the session is ending either way.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.closeCh)
		s.conn.Close()
	})
}

// closed reports whether close has been called deliberately, as opposed to
// the peer dropping the connection.
func (s *session) closed() bool {
	select {
	case <-s.closeCh:
		return true
	default:
		return false
	}
}
