package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/nvsharma/courtlive/internal/judge"
)

// Store is the persistence surface the logger needs. *SQLiteStore satisfies it.
type Store interface {
	AppendTurn(Turn) error
	AppendEvidence(Evidence) error
	AppendActivity(Activity) error
	AppendInteraction(Interaction) error
	AppendUsage(Usage) error
}

// Logger records courtroom events for one hearing. Transcript, evidence and
// interaction writes surface their errors to the caller; usage records are
// best effort and never fail a dispatch.
type Logger struct {
	store     Store
	hearingID string
}

func NewLogger(store Store, hearingID string) *Logger {
	return &Logger{store: store, hearingID: hearingID}
}

func (l *Logger) LogTurn(speaker, role, text string) (Turn, error) {
	turn := Turn{
		ID:        uuid.New().String(),
		HearingID: l.hearingID,
		Speaker:   speaker,
		Role:      role,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := l.store.AppendTurn(turn); err != nil {
		return Turn{}, fmt.Errorf("log turn: %w", err)
	}
	return turn, nil
}

func (l *Logger) LogEvidence(submittedBy, description, assessment string) (Evidence, error) {
	e := Evidence{
		ID:          uuid.New().String(),
		HearingID:   l.hearingID,
		SubmittedBy: submittedBy,
		Description: description,
		Assessment:  assessment,
		CreatedAt:   time.Now(),
	}
	if err := l.store.AppendEvidence(e); err != nil {
		return Evidence{}, fmt.Errorf("log evidence: %w", err)
	}
	return e, nil
}

func (l *Logger) LogActivity(participant, action string) error {
	err := l.store.AppendActivity(Activity{
		HearingID:   l.hearingID,
		Participant: participant,
		Action:      action,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

func (l *Logger) LogInteraction(fromRole, toRole, kind, detail string) error {
	err := l.store.AppendInteraction(Interaction{
		HearingID: l.hearingID,
		FromRole:  fromRole,
		ToRole:    toRole,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("log interaction: %w", err)
	}
	return nil
}

// RecordUsage implements judge.UsageSink. Failures are logged and swallowed
// so accounting problems never block a ruling.
func (l *Logger) RecordUsage(rec judge.UsageRecord) error {
	err := l.store.AppendUsage(Usage{
		Action:    string(rec.Action),
		Model:     rec.Model,
		TokensIn:  rec.TokensIn,
		TokensOut: rec.TokensOut,
		CreatedAt: rec.Timestamp,
	})
	if err != nil {
		log.Printf("audit: failed to record usage for %s: %v", rec.Action, err)
	}
	return nil
}
