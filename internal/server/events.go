package server

import (
	"time"

	"github.com/nvsharma/courtlive/internal/audit"
)

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type LiveTranscriptEvent struct {
	Event
	HearingID string `json:"hearing_id"`
	Speaker   string `json:"speaker"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Final     bool   `json:"final"`
}

type JudgeReplyEvent struct {
	Event
	HearingID string `json:"hearing_id"`
	Action    string `json:"action"`
	Text      string `json:"text"`
}

type DecisionReadyEvent struct {
	Event
	HearingID string `json:"hearing_id"`
	Action    string `json:"action"`
	Text      string `json:"text"`
	Approved  *bool  `json:"approved,omitempty"`
	Allowed   *bool  `json:"allowed,omitempty"`
	Decision  string `json:"decision,omitempty"`
	NextDate  string `json:"next_date,omitempty"`
}

type HearingStartedEvent struct {
	Event
	HearingID string `json:"hearing_id"`
	CaseID    string `json:"case_id"`
}

type HearingEndedEvent struct {
	Event
	HearingID string  `json:"hearing_id"`
	Duration  float64 `json:"duration"`
}

type PhaseChangedEvent struct {
	Event
	HearingID string `json:"hearing_id"`
	Phase     string `json:"phase"`
}

// HearingSnapshotEvent is sent once per connection: the docket for the
// current day, so late joiners can render hearing state immediately.
type HearingSnapshotEvent struct {
	Event
	Date     string          `json:"date"`
	Hearings []audit.Hearing `json:"hearings"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
