package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nvsharma/courtlive/internal/judge"
)

func TestHubBroadcastEventShape(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.BroadcastLiveTranscript("hearing-1", "Arjun Mehta", "accused", "I deny all charges.", true)

	select {
	case msg := <-ch:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if payload["type"] != "live_transcript" {
			t.Fatalf("expected event type live_transcript, got %#v", payload["type"])
		}
		if payload["version"] == nil {
			t.Fatalf("expected version field in payload: %s", string(msg))
		}
		if payload["timestamp"] == nil {
			t.Fatalf("expected timestamp field in payload: %s", string(msg))
		}
		if payload["final"] != true {
			t.Fatalf("expected final=true, got %#v", payload["final"])
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for broadcast")
	}
}

func TestJudgeReplyEmitsDecisionReady(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	approved := true
	hub.BroadcastJudgeReply("hearing-1", judge.Result{
		Action: judge.ActionEvaluateDateExtension,
		Text:   "Extension granted.",
		Decision: &judge.Decision{
			Approved: &approved,
			NextDate: "2026-04-01",
		},
		Parsed: true,
	})

	var types []string
	for len(types) < 2 {
		select {
		case msg := <-ch:
			var payload map[string]any
			if err := json.Unmarshal(msg, &payload); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			types = append(types, payload["type"].(string))
			if payload["type"] == "decision_ready" {
				if payload["approved"] != true {
					t.Fatalf("expected approved=true, got %#v", payload["approved"])
				}
				if payload["next_date"] != "2026-04-01" {
					t.Fatalf("expected next_date, got %#v", payload["next_date"])
				}
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("timeout, got events %v", types)
		}
	}
	if types[0] != "judge_reply" || types[1] != "decision_ready" {
		t.Fatalf("unexpected event order %v", types)
	}
}

func TestJudgeReplyWithoutDecisionSingleEvent(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.BroadcastJudgeReply("hearing-1", judge.Result{
		Action: judge.ActionRespondToSpeech,
		Text:   "Noted.",
	})

	select {
	case msg := <-ch:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if payload["type"] != "judge_reply" {
			t.Fatalf("expected judge_reply, got %#v", payload["type"])
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for broadcast")
	}

	select {
	case msg := <-ch:
		t.Fatalf("unexpected second event: %s", string(msg))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlowSubscriberDoesNotBlockBroadcast(t *testing.T) {
	hub := NewHub()
	slow := hub.Subscribe()
	defer hub.Unsubscribe(slow)

	for i := 0; i < 200; i++ {
		hub.BroadcastPhaseChanged("hearing-1", "active")
	}
	// The slow client's buffer overflows; the loop above must still return.
	if len(slow) != cap(slow) {
		t.Fatalf("expected full buffer of %d, got %d", cap(slow), len(slow))
	}
}
