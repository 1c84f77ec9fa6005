package voice

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// baseWordsPerSecond is the assumed speaking rate at rate multiplier 1.0,
// used only for duration estimates.
const baseWordsPerSecond = 2.5

// Voice is one synthesizer voice.
type Voice struct {
	Name     string
	Language string
}

// Utterance is one synthesis request.
type Utterance struct {
	Text  string
	Voice Voice
	Pitch float64
	Rate  float64
}

// Playback is one in-flight utterance. Done delivers exactly one terminal
// signal (nil on completion, an error on failure or cancellation). Cancel
// stops playback synchronously and is idempotent.
type Playback interface {
	Done() <-chan error
	Cancel()
}

// Synthesizer is the platform speech-output capability.
type Synthesizer interface {
	Voices() []Voice
	Speak(u Utterance) (Playback, error)
}

// Callbacks signal utterance lifecycle. Both Finished outcomes (nil error
// and non-nil) are terminal for sequencing the next utterance.
type Callbacks struct {
	Started  func(role Role, text string)
	Finished func(role Role, text string, err error)
}

// Coordinator owns the active utterance: it selects voice and prosody per
// speaker role and guarantees no two utterances play concurrently.
type Coordinator struct {
	synth     Synthesizer
	language  string
	baseRate  float64
	callbacks Callbacks

	mu       sync.Mutex
	current  Playback
	speaking bool
	gen      int
}

func NewCoordinator(synth Synthesizer, language string, baseRate float64, callbacks Callbacks) *Coordinator {
	if baseRate <= 0 {
		baseRate = 1.0
	}
	return &Coordinator{
		synth:     synth,
		language:  language,
		baseRate:  baseRate,
		callbacks: callbacks,
	}
}

// SetLanguage changes the language used for voice selection on subsequent
// utterances.
func (c *Coordinator) SetLanguage(language string) {
	c.mu.Lock()
	c.language = language
	c.mu.Unlock()
}

// Speaking reports whether an utterance is currently playing.
func (c *Coordinator) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Speak cancels any in-flight utterance, then starts the text with the
// role's pitch and rate applied. The started callback fires before Speak
// returns; the finished callback fires exactly once per utterance.
func (c *Coordinator) Speak(text string, role Role) error {
	c.mu.Lock()
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
		c.speaking = false
	}
	c.gen++
	gen := c.gen
	language := c.language
	c.mu.Unlock()

	profile := ProfileFor(role)
	selected, err := c.selectVoice(language)
	if err != nil {
		return err
	}

	playback, err := c.synth.Speak(Utterance{
		Text:  text,
		Voice: selected,
		Pitch: profile.Pitch,
		Rate:  c.baseRate * profile.Rate,
	})
	if err != nil {
		return fmt.Errorf("start utterance: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// A newer Speak raced in; this utterance loses.
		c.mu.Unlock()
		playback.Cancel()
		return nil
	}
	c.current = playback
	c.speaking = true
	c.mu.Unlock()

	if c.callbacks.Started != nil {
		c.callbacks.Started(role, text)
	}

	go func() {
		err := <-playback.Done()
		c.mu.Lock()
		if c.gen == gen {
			c.current = nil
			c.speaking = false
		}
		c.mu.Unlock()
		if c.callbacks.Finished != nil {
			c.callbacks.Finished(role, text, err)
		}
	}()

	return nil
}

// Cancel stops the active utterance, if any.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.Cancel()
		c.current = nil
		c.speaking = false
	}
}

// EstimatedDuration returns a pacing estimate for the text at the judge
// base rate. Not a timing guarantee.
func (c *Coordinator) EstimatedDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	seconds := float64(words) / (baseWordsPerSecond * c.baseRate)
	return time.Duration(seconds * float64(time.Second))
}

// selectVoice picks a voice matching the active language, preferring an
// exact tag match, then a primary-subtag match, then the first available.
func (c *Coordinator) selectVoice(language string) (Voice, error) {
	voices := c.synth.Voices()
	if len(voices) == 0 {
		return Voice{}, fmt.Errorf("no voices available")
	}

	for _, v := range voices {
		if strings.EqualFold(v.Language, language) {
			return v, nil
		}
	}

	primary := language
	if i := strings.IndexByte(language, '-'); i > 0 {
		primary = language[:i]
	}
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Language), strings.ToLower(primary)) {
			return v, nil
		}
	}

	return voices[0], nil
}
