package judge

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/nvsharma/courtlive/internal/llm"
)

type fakeBackend struct {
	calls    int
	messages []llm.Message
	reply    llm.Completion
	err      error
}

func (f *fakeBackend) Complete(_ context.Context, messages []llm.Message) (llm.Completion, error) {
	f.calls++
	f.messages = messages
	if f.err != nil {
		return llm.Completion{}, f.err
	}
	return f.reply, nil
}

type fakeUsageSink struct {
	records []UsageRecord
	err     error
}

func (f *fakeUsageSink) RecordUsage(rec UsageRecord) error {
	f.records = append(f.records, rec)
	return f.err
}

func newTestDispatcher(backend *fakeBackend, sink UsageSink) *Dispatcher {
	return NewDispatcher(backend, "openai/gpt-4o-mini", sink)
}

func request(action Action, c Context) Request {
	return Request{Action: action, CallerID: "user-1", Language: "English", Context: c}
}

func TestDispatch_InvalidActionNoBackendCall(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDispatcher(backend, nil)

	_, err := d.Dispatch(context.Background(), request(Action("bogus"), Context{}))
	if !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("expected zero backend calls, got %d", backend.calls)
	}
}

func TestDispatch_Unauthenticated(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDispatcher(backend, nil)

	_, err := d.Dispatch(context.Background(), Request{Action: ActionRespondToSpeech})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("expected zero backend calls, got %d", backend.calls)
	}
}

func TestDispatch_OversizedMessageHardReject(t *testing.T) {
	backend := &fakeBackend{}
	d := newTestDispatcher(backend, nil)

	req := request(ActionRespondToSpeech, Context{
		Speaker: "accused",
		Message: strings.Repeat("a", 6000),
	})
	_, err := d.Dispatch(context.Background(), req)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
	if backend.calls != 0 {
		t.Fatalf("expected zero backend calls, got %d", backend.calls)
	}
}

func TestDispatch_MessageCapCountsCharactersNotBytes(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{Content: "Noted."}}
	d := newTestDispatcher(backend, nil)

	// 3000 Devanagari characters, 9000 bytes. Well under the 5000-character
	// limit and must not be rejected.
	message := strings.Repeat("न", 3000)
	result, err := d.Dispatch(context.Background(), request(ActionRespondToSpeech, Context{
		Speaker: "accused",
		Message: message,
	}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if result.Text != "Noted." {
		t.Fatalf("unexpected result text %q", result.Text)
	}
	if backend.calls != 1 {
		t.Fatalf("expected one backend call, got %d", backend.calls)
	}
	// A 2000-character utterance is exactly at the cap and must survive
	// untouched, not be cut at a byte offset.
	if !strings.Contains(backend.messages[1].Content, message[:len("न")*2000]) {
		t.Fatal("expected full multibyte message in prompt")
	}

	if _, err := d.Dispatch(context.Background(), request(ActionRespondToSpeech, Context{
		Speaker: "accused",
		Message: strings.Repeat("न", 5001),
	})); !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge past 5000 characters, got %v", err)
	}
}

func TestDispatch_MultibyteTruncationOnRuneBoundary(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{Content: "The court is in session."}}
	d := newTestDispatcher(backend, nil)

	summary := strings.Repeat("न", 6000)
	_, err := d.Dispatch(context.Background(), request(ActionStartSession, Context{CaseSummary: summary}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	userTurn := backend.messages[1].Content
	if !utf8.ValidString(userTurn) {
		t.Fatal("prompt contains invalid UTF-8 after truncation")
	}
	want := strings.Repeat("न", 5000)
	if !strings.Contains(userTurn, want) {
		t.Fatal("expected the first 5000 characters of the case summary in the prompt")
	}
	if strings.Contains(userTurn, strings.Repeat("न", 5001)) {
		t.Fatal("expected case summary capped at 5000 characters")
	}
}

func TestDispatch_OversizedCaseSummaryTruncatedNotRejected(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{Content: "The court is in session."}}
	d := newTestDispatcher(backend, nil)

	summary := strings.Repeat("b", 6000)
	result, err := d.Dispatch(context.Background(), request(ActionStartSession, Context{CaseSummary: summary}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if result.Text != "The court is in session." {
		t.Fatalf("unexpected result text %q", result.Text)
	}
	if backend.calls != 1 {
		t.Fatalf("expected one backend call, got %d", backend.calls)
	}

	userTurn := backend.messages[1].Content
	if strings.Contains(userTurn, summary) {
		t.Fatal("expected case summary truncated in prompt")
	}
	if !strings.Contains(userTurn, strings.Repeat("b", 5000)) {
		t.Fatal("expected prompt to carry the first 5000 characters")
	}
	if strings.Contains(userTurn, strings.Repeat("b", 5001)) {
		t.Fatal("expected no more than 5000 characters of summary")
	}
}

func TestDispatch_DateExtensionDecisionRoundTrip(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{
		Content: `After considering the request, the court rules as follows: {"approved": true, "decision": "Extension granted owing to counsel's unavailability.", "nextDate": "2025-03-01"}`,
	}}
	d := newTestDispatcher(backend, nil)

	result, err := d.Dispatch(context.Background(), request(ActionEvaluateDateExtension, Context{
		Reason: "lawyer unavailable",
		Role:   "defence_lawyer",
	}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if !result.Parsed || result.Decision == nil {
		t.Fatalf("expected parsed decision, got %+v", result)
	}
	if result.Decision.Approved == nil || !*result.Decision.Approved {
		t.Fatalf("expected approved == true, got %+v", result.Decision.Approved)
	}
	if result.Decision.NextDate != "2025-03-01" {
		t.Fatalf("expected nextDate 2025-03-01, got %q", result.Decision.NextDate)
	}
	if result.Decision.Decision == "" {
		t.Fatal("expected decision text")
	}
}

func TestDispatch_MalformedReplyDegradesToRawText(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{
		Content: "The court permits the prosecutor to speak briefly.",
	}}
	d := newTestDispatcher(backend, nil)

	result, err := d.Dispatch(context.Background(), request(ActionEvaluateHandRaise, Context{
		Speaker: "prosecutor",
		Role:    "prosecutor",
		Reason:  "objection",
	}))
	if err != nil {
		t.Fatalf("expected degraded result, got error %v", err)
	}
	if result.Parsed || result.Decision != nil {
		t.Fatalf("expected unparsed raw-text result, got %+v", result)
	}
	if result.Text != "The court permits the prosecutor to speak briefly." {
		t.Fatalf("unexpected raw text %q", result.Text)
	}
}

func TestDispatch_RateLimitedDistinct(t *testing.T) {
	backend := &fakeBackend{err: llm.ErrRateLimited}
	d := newTestDispatcher(backend, nil)

	_, err := d.Dispatch(context.Background(), request(ActionRespondToSpeech, Context{Message: "proceed"}))
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if errors.Is(err, ErrBackendUnavailable) {
		t.Fatal("rate limit must not map to generic unavailability")
	}
}

func TestDispatch_BackendFailureMapsToUnavailable(t *testing.T) {
	backend := &fakeBackend{err: errors.New("connection refused")}
	d := newTestDispatcher(backend, nil)

	_, err := d.Dispatch(context.Background(), request(ActionRespondToSpeech, Context{Message: "proceed"}))
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}

func TestDispatch_EmitsUsageRecord(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{Content: "Noted.", PromptTokens: 120, CompletionTokens: 9}}
	sink := &fakeUsageSink{}
	d := newTestDispatcher(backend, sink)

	_, err := d.Dispatch(context.Background(), request(ActionRespondToSpeech, Context{Message: "I object"}))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected one usage record, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Action != ActionRespondToSpeech || rec.TokensIn != 120 || rec.TokensOut != 9 {
		t.Fatalf("unexpected usage record %+v", rec)
	}
	if rec.Model != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected model %q", rec.Model)
	}
}

func TestDispatch_UsageSinkFailureSwallowed(t *testing.T) {
	backend := &fakeBackend{reply: llm.Completion{Content: "Noted."}}
	sink := &fakeUsageSink{err: errors.New("audit store down")}
	d := newTestDispatcher(backend, sink)

	result, err := d.Dispatch(context.Background(), request(ActionRespondToSpeech, Context{Message: "I object"}))
	if err != nil {
		t.Fatalf("expected usage failure to be swallowed, got %v", err)
	}
	if result.Text != "Noted." {
		t.Fatalf("unexpected result %q", result.Text)
	}
}
