package live

// ConnectionState is the session lifecycle state. It is owned by the Client;
// state change notifications are the only way callers learn the session is
// usable.
type ConnectionState int

const (
	// StateDisconnected is the initial state, also entered on hang-up or an
	// unsolicited close after being connected.
	StateDisconnected ConnectionState = iota

	// StateConnecting covers the whole fallback loop across candidate models.
	StateConnecting

	// StateConnected is entered only after the server confirms setup.
	StateConnected

	// StateError is entered when every candidate model fails to connect.
	StateError
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Direction tags a transcript delta with the speaker it belongs to.
type Direction int

const (
	// DirectionUser marks transcription of the user's microphone audio.
	DirectionUser Direction = iota

	// DirectionModel marks transcription of the model's spoken output.
	DirectionModel
)

func (d Direction) String() string {
	if d == DirectionUser {
		return "user"
	}
	return "model"
}

// SendResult is the named outcome of an outbound send. Sends never fail
// loudly; frames produced around connect/disconnect races are dropped with a
// result the caller can observe.
type SendResult int

const (
	// SendSent means the frame was written to the socket.
	SendSent SendResult = iota

	// SendDroppedNotConnected means the frame was dropped because the session
	// is not in the connected state.
	SendDroppedNotConnected

	// SendDroppedClosing means the write failed because the socket is already
	// closing; the frame is lost silently.
	SendDroppedClosing
)

func (r SendResult) String() string {
	switch r {
	case SendSent:
		return "sent"
	case SendDroppedNotConnected:
		return "dropped_not_connected"
	case SendDroppedClosing:
		return "dropped_closing"
	}
	return "unknown"
}
