package stt

import (
	"errors"
	"fmt"
)

// ErrAlreadyActive is returned by StartListening when a session is already
// connecting or open. The microphone is exclusively owned; a second start
// must fail rather than silently open a second stream.
var ErrAlreadyActive = errors.New("stt: listening session already active")

// RecognizerError is a semantic error reported by the remote recognizer
// (e.g. unintelligible audio). The connection stays open; the error is
// forwarded to the caller and nothing is torn down.
type RecognizerError struct {
	Message string
}

func (e *RecognizerError) Error() string {
	return fmt.Sprintf("recognizer error: %s", e.Message)
}

// ConnectionError is a transport-level failure. It triggers full teardown
// of the resource tree and returns the client to idle.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("stream connection error: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
