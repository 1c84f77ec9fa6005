package stt

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nvsharma/courtlive/internal/audio"
)

// State of the streaming client. Closed is transient: full teardown always
// lands back on idle so the client can be restarted.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateClosed
)

// TranscriptEvent is one unit of recognized speech. Partial events are
// superseded by the next partial or by a committed event; committed events
// are immutable and appended to the session's ordered transcript.
type TranscriptEvent struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

// AudioProvider acquires microphone streams. *audio.Capture is the
// production implementation.
type AudioProvider interface {
	Acquire() (audio.Source, error)
}

// Callbacks are invoked from the client's receive loop. OnError receives
// both recoverable recognizer errors (*RecognizerError, stream stays open)
// and transport failures (*ConnectionError, after full teardown).
type Callbacks struct {
	OnPartial   func(TranscriptEvent)
	OnCommitted func(TranscriptEvent)
	OnError     func(error)
}

// Client owns one streaming recognizer session: the connection, the audio
// source, and the forwarding goroutines. At most one session is open per
// client instance.
type Client struct {
	transport Transport
	tokens    TokenProvider
	capture   AudioProvider
	callbacks Callbacks

	mu          sync.Mutex
	state       State
	language    string
	gen         int
	conn        Conn
	source      audio.Source
	cancel      context.CancelFunc
	forwardDone chan struct{}
	partial     string
	committed   []TranscriptEvent
}

func NewClient(transport Transport, tokens TokenProvider, capture AudioProvider, language string, callbacks Callbacks) *Client {
	return &Client{
		transport: transport,
		tokens:    tokens,
		capture:   capture,
		language:  language,
		callbacks: callbacks,
	}
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Language returns the configured recognition language.
func (c *Client) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// Transcript returns a copy of the ordered committed transcript list.
func (c *Client) Transcript() []TranscriptEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]TranscriptEvent, len(c.committed))
	copy(out, c.committed)
	return out
}

// Partial returns the current best-effort, still-mutable transcript.
func (c *Client) Partial() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.partial
}

// StartListening acquires the microphone, fetches a short-lived token,
// opens the language-tagged stream, and begins forwarding encoded frames
// once the recognizer signals session start. Any failure unwinds
// completely: audio released, socket closed, state back to idle.
func (c *Client) StartListening(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.state = StateConnecting
	startGen := c.gen
	language := c.language
	c.mu.Unlock()

	source, err := c.capture.Acquire()
	if err != nil {
		c.rollback(startGen, nil, nil)
		return err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		c.rollback(startGen, nil, source)
		return err
	}

	conn, err := c.transport.Dial(ctx, language, token)
	if err != nil {
		c.rollback(startGen, nil, source)
		return err
	}

	// The recognizer confirms the session before any audio may be sent.
	for {
		msg, rerr := conn.Receive()
		if rerr != nil {
			c.rollback(startGen, conn, source)
			return rerr
		}
		if msg.Type == MessageSessionStarted {
			break
		}
		if msg.Type == MessageError {
			c.rollback(startGen, conn, source)
			return &RecognizerError{Message: msg.Message}
		}
	}

	c.mu.Lock()
	if c.state != StateConnecting || c.gen != startGen {
		// Stopped while the handshake was in flight.
		c.mu.Unlock()
		_ = conn.Close()
		_ = source.Close()
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	forwardDone := make(chan struct{})

	c.state = StateOpen
	c.conn = conn
	c.source = source
	c.cancel = cancel
	c.forwardDone = forwardDone
	gen := c.gen
	c.mu.Unlock()

	go c.forwardLoop(loopCtx, conn, source, forwardDone)
	go c.receiveLoop(conn, gen)
	return nil
}

// StopListening is idempotent and safe in any state. It cancels audio
// forwarding first, then closes the connection and releases the device,
// and resets the partial buffer.
func (c *Client) StopListening() error {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.stopSession(gen)
	return nil
}

// ChangeLanguage reconfigures the recognition language. The wire protocol
// binds language at connect time, so while listening this is a single
// logical stop, reconfigure, restart. While idle it only updates the
// pending configuration.
func (c *Client) ChangeLanguage(ctx context.Context, language string) error {
	c.mu.Lock()
	listening := c.state != StateIdle
	c.language = language
	c.mu.Unlock()

	if !listening {
		return nil
	}
	if err := c.StopListening(); err != nil {
		return err
	}
	return c.StartListening(ctx)
}

// rollback unwinds a failed start attempt. Resources acquired so far are
// released and the state returns to idle unless a concurrent stop already
// moved the generation on.
func (c *Client) rollback(gen int, conn Conn, source audio.Source) {
	if conn != nil {
		_ = conn.Close()
	}
	if source != nil {
		_ = source.Close()
	}
	c.mu.Lock()
	if c.gen == gen && c.state == StateConnecting {
		c.state = StateIdle
	}
	c.mu.Unlock()
}

// stopSession tears down the full resource tree for the given session
// generation. Stale generations are ignored, which makes concurrent stops
// and error-path teardowns collapse into exactly one close per resource.
func (c *Client) stopSession(gen int) {
	c.mu.Lock()
	if c.gen != gen || c.state == StateIdle {
		c.mu.Unlock()
		return
	}

	conn := c.conn
	source := c.source
	cancel := c.cancel
	forwardDone := c.forwardDone

	c.gen++
	c.state = StateClosed
	c.conn = nil
	c.source = nil
	c.cancel = nil
	c.forwardDone = nil
	c.partial = ""
	c.mu.Unlock()

	// Forwarding must be fully cancelled before the socket goes away so no
	// frame is written on a half-closed connection. Releasing the device
	// unblocks a forward loop waiting in Read.
	if cancel != nil {
		cancel()
	}
	if source != nil {
		_ = source.Close()
	}
	if forwardDone != nil {
		<-forwardDone
	}
	if conn != nil {
		_ = conn.Close()
	}

	c.mu.Lock()
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Client) forwardLoop(ctx context.Context, conn Conn, source audio.Source, done chan struct{}) {
	defer close(done)
	for {
		frame, err := source.Read()
		if err != nil {
			if ctx.Err() == nil {
				c.reportError(err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := conn.SendAudio(audio.EncodeFrame(frame)); err != nil {
			if ctx.Err() == nil {
				c.reportError(err)
			}
			return
		}
	}
}

func (c *Client) receiveLoop(conn Conn, gen int) {
	for {
		msg, err := conn.Receive()
		if err != nil {
			c.mu.Lock()
			stale := c.gen != gen
			c.mu.Unlock()
			if stale {
				return
			}
			c.stopSession(gen)
			c.reportError(err)
			return
		}

		switch msg.Type {
		case MessagePartial:
			ev := TranscriptEvent{ID: uuid.NewString(), Text: msg.Text}
			c.mu.Lock()
			c.partial = msg.Text
			c.mu.Unlock()
			if c.callbacks.OnPartial != nil {
				c.callbacks.OnPartial(ev)
			}
		case MessageCommitted:
			ev := TranscriptEvent{ID: uuid.NewString(), Text: msg.Text, IsFinal: true}
			c.mu.Lock()
			c.committed = append(c.committed, ev)
			c.partial = ""
			c.mu.Unlock()
			if c.callbacks.OnCommitted != nil {
				c.callbacks.OnCommitted(ev)
			}
		case MessageError:
			// Recognizer-level errors are recoverable; the stream stays open.
			c.reportError(&RecognizerError{Message: msg.Message})
		default:
			// Unknown message types are ignored for forward compatibility.
		}
	}
}

func (c *Client) reportError(err error) {
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(err)
	}
}
