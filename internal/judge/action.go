package judge

import "fmt"

// Action is one discrete decision point the AI judge can be asked to
// resolve.
type Action string

const (
	ActionStartSession          Action = "start_session"
	ActionRespondToSpeech       Action = "respond_to_speech"
	ActionEvaluateHandRaise     Action = "evaluate_hand_raise"
	ActionEvaluateDateExtension Action = "evaluate_date_extension"
	ActionAnalyzeEvidence       Action = "analyze_evidence"
	ActionMakeDecision          Action = "make_decision"
	ActionAdjournSession        Action = "adjourn_session"
	ActionEvaluateWitness       Action = "evaluate_witness_request"
)

var actions = map[Action]struct{}{
	ActionStartSession:          {},
	ActionRespondToSpeech:       {},
	ActionEvaluateHandRaise:     {},
	ActionEvaluateDateExtension: {},
	ActionAnalyzeEvidence:       {},
	ActionMakeDecision:          {},
	ActionAdjournSession:        {},
	ActionEvaluateWitness:       {},
}

// structured lists the actions whose reply carries an embedded decision
// object. Extraction is best-effort; everything else is plain text.
var structured = map[Action]struct{}{
	ActionEvaluateHandRaise:     {},
	ActionEvaluateDateExtension: {},
	ActionEvaluateWitness:       {},
}

// ParseAction validates an action string against the enumerated set.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	return a, nil
}

// IsStructured reports whether the action's reply should carry a decision
// object.
func (a Action) IsStructured() bool {
	_, ok := structured[a]
	return ok
}
