package stt

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/rest"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
	"github.com/google/uuid"

	"github.com/nvsharma/courtlive/internal/audio"
)

// Recognizer is the input strategy selected once per listening session:
// either the primary streaming client or the non-streaming fallback. The
// two are never concurrently active.
type Recognizer interface {
	StartListening(ctx context.Context) error
	StopListening() error
	ChangeLanguage(ctx context.Context, language string) error
}

// Transcriber converts one whole utterance of PCM16 audio to text. The
// production implementation is the Deepgram prerecorded API.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) (string, error)
}

// FallbackRecognizer buffers microphone audio for the whole listening
// window and transcribes it in one shot on stop. It emits only committed
// results — no partials.
type FallbackRecognizer struct {
	capture     AudioProvider
	transcriber Transcriber
	onCommitted func(TranscriptEvent)
	onError     func(error)

	mu       sync.Mutex
	language string
	source   audio.Source
	cancel   context.CancelFunc
	done     chan struct{}
	pcm      bytes.Buffer
}

func NewFallbackRecognizer(capture AudioProvider, transcriber Transcriber, language string, callbacks Callbacks) *FallbackRecognizer {
	return &FallbackRecognizer{
		capture:     capture,
		transcriber: transcriber,
		language:    language,
		onCommitted: callbacks.OnCommitted,
		onError:     callbacks.OnError,
	}
}

func (r *FallbackRecognizer) StartListening(ctx context.Context) error {
	r.mu.Lock()
	if r.source != nil {
		r.mu.Unlock()
		return ErrAlreadyActive
	}
	r.mu.Unlock()

	source, err := r.capture.Acquire()
	if err != nil {
		return err
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	r.mu.Lock()
	// Re-check after Acquire: a concurrent start may have won the race
	// while the lock was released. The loser gives back its device.
	if r.source != nil {
		r.mu.Unlock()
		cancel()
		_ = source.Close()
		return ErrAlreadyActive
	}
	r.source = source
	r.cancel = cancel
	r.done = done
	r.pcm.Reset()
	r.mu.Unlock()

	go func() {
		defer close(done)
		for {
			frame, err := source.Read()
			if err != nil {
				if loopCtx.Err() == nil && r.onError != nil {
					r.onError(err)
				}
				return
			}
			if loopCtx.Err() != nil {
				return
			}
			r.mu.Lock()
			r.pcm.Write(audio.FrameToPCM16(frame))
			r.mu.Unlock()
		}
	}()

	return nil
}

// StopListening releases the device and transcribes whatever was buffered.
// Idempotent; a stop with no active session is a no-op.
func (r *FallbackRecognizer) StopListening() error {
	r.mu.Lock()
	source := r.source
	cancel := r.cancel
	done := r.done
	r.source = nil
	r.cancel = nil
	r.done = nil
	r.mu.Unlock()

	if source == nil {
		return nil
	}

	cancel()
	_ = source.Close()
	<-done

	r.mu.Lock()
	pcm := make([]byte, r.pcm.Len())
	copy(pcm, r.pcm.Bytes())
	r.pcm.Reset()
	language := r.language
	r.mu.Unlock()

	if len(pcm) == 0 {
		return nil
	}

	ctx, ctxCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer ctxCancel()

	text, err := r.transcriber.Transcribe(ctx, audio.WAVFromPCM(pcm, audio.SampleRate), language)
	if err != nil {
		return fmt.Errorf("fallback transcription: %w", err)
	}
	if text != "" && r.onCommitted != nil {
		r.onCommitted(TranscriptEvent{ID: uuid.NewString(), Text: text, IsFinal: true})
	}
	return nil
}

// ChangeLanguage takes effect on the next transcription; the fallback has
// no connection to re-establish.
func (r *FallbackRecognizer) ChangeLanguage(_ context.Context, language string) error {
	r.mu.Lock()
	r.language = language
	r.mu.Unlock()
	return nil
}

// DeepgramTranscriber is the prerecorded REST implementation of
// Transcriber.
type DeepgramTranscriber struct {
	client *listenv1rest.Client
}

func NewDeepgramTranscriber(apiKey string) *DeepgramTranscriber {
	rest := listen.NewREST(apiKey, &interfaces.ClientOptions{})
	return &DeepgramTranscriber{client: listenv1rest.New(rest)}
}

func (t *DeepgramTranscriber) Transcribe(ctx context.Context, wav []byte, language string) (string, error) {
	options := &interfaces.PreRecordedTranscriptionOptions{
		Model:       "nova-2",
		Language:    language,
		Punctuate:   true,
		SmartFormat: true,
	}

	res, err := t.client.FromStream(ctx, bytes.NewReader(wav), options)
	if err != nil {
		return "", fmt.Errorf("deepgram transcription: %w", err)
	}
	if len(res.Results.Channels) == 0 || len(res.Results.Channels[0].Alternatives) == 0 {
		return "", nil
	}
	return res.Results.Channels[0].Alternatives[0].Transcript, nil
}

// SelectRecognizer picks the input strategy for one listening session.
func SelectRecognizer(primary *Client, fallback *FallbackRecognizer, usePrimary bool) Recognizer {
	if usePrimary {
		return primary
	}
	return fallback
}
