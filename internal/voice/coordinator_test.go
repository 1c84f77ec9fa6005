package voice

import (
	"sync"
	"testing"
	"time"
)

type fakePlayback struct {
	mu        sync.Mutex
	done      chan error
	cancelled bool
	finished  bool
}

func newFakePlayback() *fakePlayback {
	return &fakePlayback{done: make(chan error, 1)}
}

func (p *fakePlayback) Done() <-chan error { return p.done }

func (p *fakePlayback) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cancelled && !p.finished {
		p.cancelled = true
		p.done <- nil
	}
}

func (p *fakePlayback) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cancelled && !p.finished {
		p.finished = true
		p.done <- nil
	}
}

func (p *fakePlayback) wasCancelled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancelled
}

type fakeSynth struct {
	mu         sync.Mutex
	voices     []Voice
	utterances []Utterance
	playbacks  []*fakePlayback
}

func (s *fakeSynth) Voices() []Voice { return s.voices }

func (s *fakeSynth) Speak(u Utterance) (Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.utterances = append(s.utterances, u)
	p := newFakePlayback()
	s.playbacks = append(s.playbacks, p)
	return p, nil
}

func (s *fakeSynth) active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.playbacks {
		p.mu.Lock()
		if !p.cancelled && !p.finished {
			n++
		}
		p.mu.Unlock()
	}
	return n
}

func newTestCoordinator(voices []Voice) (*Coordinator, *fakeSynth) {
	synth := &fakeSynth{voices: voices}
	return NewCoordinator(synth, "en-IN", 1.0, Callbacks{}), synth
}

func TestSpeak_AppliesRoleProfile(t *testing.T) {
	coord, synth := newTestCoordinator([]Voice{{Name: "Asha", Language: "en-IN"}})

	if err := coord.Speak("The court is now in session.", RoleJudge); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}

	if len(synth.utterances) != 1 {
		t.Fatalf("expected 1 utterance, got %d", len(synth.utterances))
	}
	u := synth.utterances[0]
	judge := ProfileFor(RoleJudge)
	if u.Pitch != judge.Pitch {
		t.Errorf("expected judge pitch %v, got %v", judge.Pitch, u.Pitch)
	}
	if u.Rate != judge.Rate {
		t.Errorf("expected rate %v (base 1.0 x multiplier), got %v", judge.Rate, u.Rate)
	}
	if !coord.Speaking() {
		t.Error("expected speaking state after Speak")
	}
}

func TestSpeak_SecondCallCancelsFirst(t *testing.T) {
	coord, synth := newTestCoordinator([]Voice{{Name: "Asha", Language: "en-IN"}})

	if err := coord.Speak("first utterance", RoleJudge); err != nil {
		t.Fatalf("first Speak failed: %v", err)
	}
	if err := coord.Speak("second utterance", RoleClerk); err != nil {
		t.Fatalf("second Speak failed: %v", err)
	}

	if !synth.playbacks[0].wasCancelled() {
		t.Fatal("expected first utterance cancelled before second starts")
	}
	if synth.playbacks[1].wasCancelled() {
		t.Fatal("second utterance should be playing, not cancelled")
	}
	if got := synth.active(); got != 1 {
		t.Fatalf("expected exactly one active utterance, got %d", got)
	}
}

func TestSpeak_FinishedCallbackTerminal(t *testing.T) {
	var mu sync.Mutex
	var finished []Role
	synth := &fakeSynth{voices: []Voice{{Name: "Asha", Language: "en-IN"}}}
	coord := NewCoordinator(synth, "en-IN", 1.0, Callbacks{
		Finished: func(role Role, _ string, err error) {
			mu.Lock()
			finished = append(finished, role)
			mu.Unlock()
		},
	})

	if err := coord.Speak("ruling follows", RoleJudge); err != nil {
		t.Fatalf("Speak failed: %v", err)
	}
	synth.playbacks[0].finish()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(finished)
		mu.Unlock()
		if n == 1 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(finished) != 1 || finished[0] != RoleJudge {
		t.Fatalf("expected one finished callback for judge, got %v", finished)
	}
	if coord.Speaking() {
		t.Error("expected speaking state cleared after finish")
	}
}

func TestSelectVoice_PreferenceOrder(t *testing.T) {
	tests := []struct {
		name     string
		language string
		voices   []Voice
		want     string
	}{
		{
			name:     "exact tag match",
			language: "hi-IN",
			voices:   []Voice{{Name: "Kate", Language: "en-GB"}, {Name: "Priya", Language: "hi-IN"}},
			want:     "Priya",
		},
		{
			name:     "primary subtag match",
			language: "hi-IN",
			voices:   []Voice{{Name: "Kate", Language: "en-GB"}, {Name: "Dev", Language: "hi"}},
			want:     "Dev",
		},
		{
			name:     "first available fallback",
			language: "ta-IN",
			voices:   []Voice{{Name: "Kate", Language: "en-GB"}, {Name: "Priya", Language: "hi-IN"}},
			want:     "Kate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			coord, synth := newTestCoordinator(tt.voices)
			coord.SetLanguage(tt.language)

			if err := coord.Speak("test", RoleAI); err != nil {
				t.Fatalf("Speak failed: %v", err)
			}
			if got := synth.utterances[0].Voice.Name; got != tt.want {
				t.Fatalf("expected voice %q, got %q", tt.want, got)
			}
		})
	}
}

func TestEstimatedDuration(t *testing.T) {
	coord, _ := newTestCoordinator([]Voice{{Name: "Asha", Language: "en-IN"}})

	if d := coord.EstimatedDuration(""); d != 0 {
		t.Fatalf("expected zero duration for empty text, got %v", d)
	}

	// 5 words at 2.5 words/sec and base rate 1.0 is 2 seconds.
	got := coord.EstimatedDuration("I deny all the charges")
	if got != 2*time.Second {
		t.Fatalf("expected 2s, got %v", got)
	}
}
