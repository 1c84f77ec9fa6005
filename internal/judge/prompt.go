package judge

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field caps from the dispatch contract. Oversized context sub-fields are
// truncated, never rejected, so the dispatcher stays available under
// adversarial input.
const (
	maxCaseContextLen = 5000
	maxUtteranceLen   = 2000
	maxShortFieldLen  = 500
	maxNameLen        = 100

	// maxMessageLen is the hard reject threshold for the top-level message
	// argument.
	maxMessageLen = 5000
)

// Context carries the action-specific payload. Only the fields relevant to
// the requested action are read.
type Context struct {
	CaseSummary         string
	Speaker             string
	Message             string
	Reason              string
	Role                string
	RequestedDate       string
	EvidenceDescription string
	WitnessName         string
	WitnessRelevance    string
}

// truncate caps s at n characters, not bytes, so multibyte scripts keep
// their full budget and the cut never lands mid-rune.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// systemPrompt is the judge persona, fixed per language.
func systemPrompt(language string) string {
	lang := language
	if lang == "" {
		lang = "English"
	}
	return fmt.Sprintf(`You are an experienced judge presiding over a virtual courtroom in India. You apply Indian law, address participants formally, and keep proceedings orderly. Be concise, impartial, and decisive. Respond in %s.`, lang)
}

// userPrompt assembles the user-turn prompt from capped context fields.
// The mapping from (action, context) to prompt is deterministic.
func userPrompt(action Action, c Context) string {
	caseSummary := truncate(c.CaseSummary, maxCaseContextLen)
	message := truncate(c.Message, maxUtteranceLen)
	speaker := truncate(c.Speaker, maxNameLen)
	reason := truncate(c.Reason, maxShortFieldLen)
	role := truncate(c.Role, maxNameLen)
	requestedDate := truncate(c.RequestedDate, maxNameLen)
	evidence := truncate(c.EvidenceDescription, maxCaseContextLen)
	witnessName := truncate(c.WitnessName, maxNameLen)
	witnessRelevance := truncate(c.WitnessRelevance, maxShortFieldLen)

	var b strings.Builder
	switch action {
	case ActionStartSession:
		b.WriteString("Open the court session for the following case. Summarize the matter before the court and call the proceedings to order.\n\nCase summary:\n")
		b.WriteString(caseSummary)
	case ActionRespondToSpeech:
		fmt.Fprintf(&b, "The %s has said the following in open court:\n%q\n\nRespond as the presiding judge.", speaker, message)
		if caseSummary != "" {
			b.WriteString("\n\nCase summary:\n")
			b.WriteString(caseSummary)
		}
	case ActionEvaluateHandRaise:
		fmt.Fprintf(&b, "The %s (%s) has raised their hand requesting permission to speak. Reason: %s.\n\nDecide whether to allow it. Reply with a JSON object {\"allowed\": true|false, \"response\": \"...\"} followed by nothing else.", speaker, role, reason)
	case ActionEvaluateDateExtension:
		fmt.Fprintf(&b, "The %s requests an extension of the hearing date. Reason: %s. Requested date: %s.\n\nDecide whether to grant it. Reply with a JSON object {\"approved\": true|false, \"decision\": \"...\", \"nextDate\": \"YYYY-MM-DD\"}.", role, reason, requestedDate)
	case ActionAnalyzeEvidence:
		fmt.Fprintf(&b, "New evidence has been submitted by the %s:\n%s\n\nAssess its admissibility and relevance under Indian law and state how the court will treat it.", role, evidence)
	case ActionMakeDecision:
		b.WriteString("All arguments have been heard. Deliver the court's judgment on the following case, with brief reasoning.\n\nCase summary:\n")
		b.WriteString(caseSummary)
	case ActionAdjournSession:
		b.WriteString("Adjourn the current session formally. Note any directions for the next hearing.")
		if caseSummary != "" {
			b.WriteString("\n\nCase summary:\n")
			b.WriteString(caseSummary)
		}
	case ActionEvaluateWitness:
		fmt.Fprintf(&b, "The %s requests to call a witness: %s. Stated relevance: %s.\n\nDecide whether to allow the witness. Reply with a JSON object {\"allowed\": true|false, \"response\": \"...\"}.", role, witnessName, witnessRelevance)
	}
	return b.String()
}
