package voice

import (
	"errors"
	"log"
	"strings"
	"sync"
	"time"
)

// TextSynthesizer writes utterances to the log and paces playback by word
// count, so the speaking/listening loop behaves as it would with a real
// speech device. Used when no platform TTS is attached.
type TextSynthesizer struct {
	voices []Voice
	logf   func(format string, args ...any)
}

func NewTextSynthesizer(languages []string) *TextSynthesizer {
	voices := make([]Voice, 0, len(languages))
	for _, lang := range languages {
		voices = append(voices, Voice{Name: "console-" + lang, Language: lang})
	}
	return &TextSynthesizer{voices: voices, logf: log.Printf}
}

func (s *TextSynthesizer) Voices() []Voice {
	return s.voices
}

func (s *TextSynthesizer) Speak(u Utterance) (Playback, error) {
	rate := u.Rate
	if rate <= 0 {
		rate = 1.0
	}
	words := len(strings.Fields(u.Text))
	duration := time.Duration(float64(words) / (baseWordsPerSecond * rate) * float64(time.Second))

	s.logf("speak [%s pitch=%.2f rate=%.2f]: %s", u.Voice.Name, u.Pitch, rate, u.Text)

	p := &timedPlayback{done: make(chan error, 1)}
	p.timer = time.AfterFunc(duration, func() {
		p.finish(nil)
	})
	return p, nil
}

type timedPlayback struct {
	timer *time.Timer
	done  chan error

	mu       sync.Mutex
	finished bool
}

func (p *timedPlayback) Done() <-chan error {
	return p.done
}

func (p *timedPlayback) Cancel() {
	p.timer.Stop()
	p.finish(errors.New("playback cancelled"))
}

func (p *timedPlayback) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}
	p.finished = true
	p.done <- err
}
