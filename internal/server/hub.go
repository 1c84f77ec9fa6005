package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/nvsharma/courtlive/internal/judge"
)

// Hub fans event payloads out to subscribed websocket clients. Slow clients
// drop messages rather than block the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) BroadcastLiveTranscript(hearingID, speaker, role, text string, final bool) {
	h.broadcastEvent(LiveTranscriptEvent{
		Event:     newEvent("live_transcript", time.Now().UTC()),
		HearingID: hearingID,
		Speaker:   speaker,
		Role:      role,
		Text:      text,
		Final:     final,
	})
}

func (h *Hub) BroadcastJudgeReply(hearingID string, result judge.Result) {
	h.broadcastEvent(JudgeReplyEvent{
		Event:     newEvent("judge_reply", time.Now().UTC()),
		HearingID: hearingID,
		Action:    string(result.Action),
		Text:      result.Text,
	})
	if result.Decision != nil {
		h.broadcastEvent(DecisionReadyEvent{
			Event:     newEvent("decision_ready", time.Now().UTC()),
			HearingID: hearingID,
			Action:    string(result.Action),
			Text:      result.Text,
			Approved:  result.Decision.Approved,
			Allowed:   result.Decision.Allowed,
			Decision:  result.Decision.Decision,
			NextDate:  result.Decision.NextDate,
		})
	}
}

func (h *Hub) BroadcastHearingStarted(hearingID, caseID string) {
	h.broadcastEvent(HearingStartedEvent{
		Event:     newEvent("hearing_started", time.Now().UTC()),
		HearingID: hearingID,
		CaseID:    caseID,
	})
}

func (h *Hub) BroadcastHearingEnded(hearingID string, duration time.Duration) {
	h.broadcastEvent(HearingEndedEvent{
		Event:     newEvent("hearing_ended", time.Now().UTC()),
		HearingID: hearingID,
		Duration:  duration.Seconds(),
	})
}

func (h *Hub) BroadcastPhaseChanged(hearingID, phase string) {
	h.broadcastEvent(PhaseChangedEvent{
		Event:     newEvent("phase_changed", time.Now().UTC()),
		HearingID: hearingID,
		Phase:     phase,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	h.Broadcast(payload)
}
