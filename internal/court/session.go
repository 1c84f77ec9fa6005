package court

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/nvsharma/courtlive/internal/audit"
	"github.com/nvsharma/courtlive/internal/judge"
	"github.com/nvsharma/courtlive/internal/voice"
)

// Phase is the informational lifecycle of a hearing. It is driven by the
// caller and never gates a dispatch; the adjudicator stays stateless.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseOpening    Phase = "opening"
	PhaseActive     Phase = "active"
	PhaseDeciding   Phase = "deciding"
	PhaseAdjourned  Phase = "adjourned"
)

// Adjudicator resolves courtroom actions. *judge.Dispatcher satisfies it.
type Adjudicator interface {
	Dispatch(ctx context.Context, req judge.Request) (judge.Result, error)
}

// Speaker voices the judge's replies. *voice.Coordinator satisfies it.
type Speaker interface {
	Speak(text string, role voice.Role) error
	Cancel()
}

// Recorder persists the hearing record. *audit.Logger satisfies it.
type Recorder interface {
	LogTurn(speaker, role, text string) (audit.Turn, error)
	LogEvidence(submittedBy, description, assessment string) (audit.Evidence, error)
	LogActivity(participant, action string) error
	LogInteraction(fromRole, toRole, kind, detail string) error
}

// Callbacks fan session events out to observers (the live event hub).
// All fields are optional.
type Callbacks struct {
	OnTurn       func(audit.Turn)
	OnJudgeReply func(judge.Result)
	OnPhase      func(Phase)
}

// Session glues one hearing together: committed utterances go to the
// adjudicator, the reply is voiced and recorded, and both turns land in
// the transcript in order. Judge calls are serialized so a reply finishes
// before the next utterance is considered.
type Session struct {
	adjudicator Adjudicator
	speaker     Speaker
	recorder    Recorder
	callbacks   Callbacks

	callerID    string
	language    string
	caseSummary string
	judgeName   string

	mu    sync.Mutex
	phase Phase
}

type Config struct {
	CallerID    string
	Language    string
	CaseSummary string
	JudgeName   string
}

func NewSession(adjudicator Adjudicator, speaker Speaker, recorder Recorder, cfg Config, callbacks Callbacks) *Session {
	judgeName := cfg.JudgeName
	if judgeName == "" {
		judgeName = "AI Judge"
	}
	return &Session{
		adjudicator: adjudicator,
		speaker:     speaker,
		recorder:    recorder,
		callbacks:   callbacks,
		callerID:    cfg.CallerID,
		language:    cfg.Language,
		caseSummary: cfg.CaseSummary,
		judgeName:   judgeName,
		phase:       PhaseNotStarted,
	}
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) setPhase(phase Phase) {
	s.phase = phase
	if s.callbacks.OnPhase != nil {
		s.callbacks.OnPhase(phase)
	}
}

// Open starts the hearing: the judge delivers the opening statement and the
// session moves to the active phase.
func (s *Session) Open(ctx context.Context) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseNotStarted {
		return judge.Result{}, fmt.Errorf("hearing already opened (phase %s)", s.phase)
	}
	s.setPhase(PhaseOpening)

	result, err := s.adjudicate(ctx, judge.ActionStartSession, judge.Context{
		CaseSummary: s.caseSummary,
	})
	if err != nil {
		s.setPhase(PhaseNotStarted)
		return judge.Result{}, err
	}
	s.setPhase(PhaseActive)
	return result, nil
}

// HandleUtterance processes one committed participant utterance: record it,
// obtain the judge's spoken reply, voice it, and record the reply.
func (s *Session) HandleUtterance(ctx context.Context, speakerName, role, text string) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn, err := s.recorder.LogTurn(speakerName, role, text)
	if err != nil {
		return judge.Result{}, err
	}
	s.notifyTurn(turn)

	return s.adjudicate(ctx, judge.ActionRespondToSpeech, judge.Context{
		CaseSummary: s.caseSummary,
		Speaker:     speakerName,
		Role:        role,
		Message:     text,
	})
}

// EvaluateHandRaise asks the judge whether a participant may speak.
func (s *Session) EvaluateHandRaise(ctx context.Context, participant, role, reason string) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recorder.LogActivity(participant, "hand_raised"); err != nil {
		return judge.Result{}, err
	}

	return s.adjudicate(ctx, judge.ActionEvaluateHandRaise, judge.Context{
		CaseSummary: s.caseSummary,
		Speaker:     participant,
		Role:        role,
		Reason:      reason,
	})
}

// EvaluateDateExtension asks the judge to rule on an adjournment request.
func (s *Session) EvaluateDateExtension(ctx context.Context, participant, role, reason, requestedDate string) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recorder.LogInteraction(role, "judge", "date_extension", reason); err != nil {
		return judge.Result{}, err
	}

	return s.adjudicate(ctx, judge.ActionEvaluateDateExtension, judge.Context{
		CaseSummary:   s.caseSummary,
		Speaker:       participant,
		Role:          role,
		Reason:        reason,
		RequestedDate: requestedDate,
	})
}

// EvaluateWitness asks the judge to rule on calling a witness.
func (s *Session) EvaluateWitness(ctx context.Context, participant, role, witnessName, relevance string) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.recorder.LogInteraction(role, "judge", "witness_request", witnessName); err != nil {
		return judge.Result{}, err
	}

	return s.adjudicate(ctx, judge.ActionEvaluateWitness, judge.Context{
		CaseSummary:      s.caseSummary,
		Speaker:          participant,
		Role:             role,
		WitnessName:      witnessName,
		WitnessRelevance: relevance,
	})
}

// AnalyzeEvidence has the judge assess a submitted piece of evidence and
// records it with the assessment.
func (s *Session) AnalyzeEvidence(ctx context.Context, participant, role, description string) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.adjudicate(ctx, judge.ActionAnalyzeEvidence, judge.Context{
		CaseSummary:         s.caseSummary,
		Speaker:             participant,
		Role:                role,
		EvidenceDescription: description,
	})
	if err != nil {
		return judge.Result{}, err
	}

	if _, err := s.recorder.LogEvidence(participant, description, result.Text); err != nil {
		log.Printf("court: failed to record evidence from %s: %v", participant, err)
	}
	return result, nil
}

// Decide moves the hearing into the deciding phase and asks the judge for
// the final ruling.
func (s *Session) Decide(ctx context.Context) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setPhase(PhaseDeciding)
	return s.adjudicate(ctx, judge.ActionMakeDecision, judge.Context{
		CaseSummary: s.caseSummary,
	})
}

// Adjourn closes the hearing with the judge's closing statement. Any
// in-flight speech is cancelled before the closing line is voiced.
func (s *Session) Adjourn(ctx context.Context) (judge.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.speaker.Cancel()
	result, err := s.adjudicate(ctx, judge.ActionAdjournSession, judge.Context{
		CaseSummary: s.caseSummary,
	})
	if err != nil {
		return judge.Result{}, err
	}
	s.setPhase(PhaseAdjourned)
	return result, nil
}

// adjudicate runs one dispatch and handles the shared reply plumbing:
// voice the reply as the judge, record the judge's turn, notify observers.
// Callers hold s.mu.
func (s *Session) adjudicate(ctx context.Context, action judge.Action, jc judge.Context) (judge.Result, error) {
	result, err := s.adjudicator.Dispatch(ctx, judge.Request{
		Action:   action,
		CallerID: s.callerID,
		Language: s.language,
		Context:  jc,
	})
	if err != nil {
		return judge.Result{}, fmt.Errorf("adjudicate %s: %w", action, err)
	}

	if err := s.speaker.Speak(result.Text, voice.RoleJudge); err != nil {
		log.Printf("court: failed to voice judge reply: %v", err)
	}

	turn, err := s.recorder.LogTurn(s.judgeName, string(voice.RoleJudge), result.Text)
	if err != nil {
		return judge.Result{}, err
	}
	s.notifyTurn(turn)

	if s.callbacks.OnJudgeReply != nil {
		s.callbacks.OnJudgeReply(result)
	}
	return result, nil
}

func (s *Session) notifyTurn(turn audit.Turn) {
	if s.callbacks.OnTurn != nil {
		s.callbacks.OnTurn(turn)
	}
}
