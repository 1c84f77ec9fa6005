package audio

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is the fixed capture rate required by the streaming recognizer.
	SampleRate = 16000
	// Channels is mono capture; the recognizer rejects multi-channel input.
	Channels = 1
	// FramesPerBuffer is roughly 100ms of audio at 16 kHz.
	FramesPerBuffer = 1600
)

// ErrDeviceUnavailable is returned when no input device exists or the
// device cannot be opened (e.g. permission denied by the OS).
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Source is one acquired input stream. Read blocks until a full frame of
// float32 samples in [-1, 1] is available. Close stops and releases the
// underlying device and must be called on every exit path.
type Source interface {
	Read() ([]float32, error)
	Close() error
}

// Capture acquires microphone streams via PortAudio.
type Capture struct {
	sampleRate      int
	framesPerBuffer int
}

func NewCapture() *Capture {
	return &Capture{sampleRate: SampleRate, framesPerBuffer: FramesPerBuffer}
}

// Acquire opens the default input device at the fixed rate and channel
// count. Failures are wrapped in ErrDeviceUnavailable so callers can give
// the user an actionable "check microphone permissions" message.
func (c *Capture) Acquire() (Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	buf := make([]float32, c.framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(Channels, 0, float64(c.sampleRate), c.framesPerBuffer, buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	return &portaudioSource{stream: stream, buf: buf}, nil
}

type portaudioSource struct {
	stream *portaudio.Stream
	buf    []float32
	closed bool
}

func (s *portaudioSource) Read() ([]float32, error) {
	if err := s.stream.Read(); err != nil {
		return nil, err
	}
	frame := make([]float32, len(s.buf))
	copy(frame, s.buf)
	return frame, nil
}

func (s *portaudioSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	stopErr := s.stream.Stop()
	closeErr := s.stream.Close()
	termErr := portaudio.Terminate()

	if stopErr != nil {
		return stopErr
	}
	if closeErr != nil {
		return closeErr
	}
	return termErr
}
