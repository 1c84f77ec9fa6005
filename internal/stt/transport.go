package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Server message types on the recognizer stream.
const (
	MessagePartial        = "partial_transcript"
	MessageCommitted      = "committed_transcript"
	MessageSessionStarted = "session_started"
	MessageError          = "error"
)

// ServerMessage is one inbound message from the streaming recognizer.
// Unknown types are passed through and ignored by the client for forward
// compatibility.
type ServerMessage struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Message string `json:"message,omitempty"`
}

type audioFrame struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

// Conn is one established recognizer stream. SendAudio writes a base64
// PCM16 frame; Receive blocks for the next server message.
type Conn interface {
	SendAudio(encoded string) error
	Receive() (ServerMessage, error)
	Close() error
}

// Transport opens recognizer streams. The language and model are bound at
// connect time; changing either requires a new connection.
type Transport interface {
	Dial(ctx context.Context, language, token string) (Conn, error)
}

// WebSocketTransport speaks the recognizer's message-framed protocol over
// a persistent websocket.
type WebSocketTransport struct {
	url    string
	model  string
	dialer *websocket.Dialer
}

func NewWebSocketTransport(rawURL, model string) *WebSocketTransport {
	return &WebSocketTransport{
		url:    rawURL,
		model:  model,
		dialer: &websocket.Dialer{HandshakeTimeout: 30 * time.Second},
	}
}

func (t *WebSocketTransport) Dial(ctx context.Context, language, token string) (Conn, error) {
	u, err := url.Parse(t.url)
	if err != nil {
		return nil, fmt.Errorf("parse recognizer url: %w", err)
	}
	q := u.Query()
	q.Set("model", t.model)
	q.Set("language", language)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	ws, _, err := t.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) SendAudio(encoded string) error {
	payload, err := json.Marshal(audioFrame{Type: "audio", Audio: encoded})
	if err != nil {
		return fmt.Errorf("marshal audio frame: %w", err)
	}
	if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return &ConnectionError{Err: err}
	}
	return nil
}

func (c *wsConn) Receive() (ServerMessage, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return ServerMessage{}, &ConnectionError{Err: err}
	}

	var msg ServerMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message: %w", err)
	}
	return msg, nil
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
