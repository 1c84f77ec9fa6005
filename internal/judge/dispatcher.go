package judge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/nvsharma/courtlive/internal/llm"
)

// defaultTimeout bounds each reasoning-backend call so a stalled upstream
// cannot hang the speaking/listening loop.
const defaultTimeout = 30 * time.Second

// UsageRecord is the append-only audit trail entry for one backend call.
type UsageRecord struct {
	Action    Action
	Model     string
	TokensIn  int
	TokensOut int
	Timestamp time.Time
}

// UsageSink receives usage records. Failures are swallowed; the audit
// trail never blocks the primary response.
type UsageSink interface {
	RecordUsage(rec UsageRecord) error
}

// Request is one dispatch call. CallerID identifies the authenticated
// caller; Language is the reply language preference.
type Request struct {
	Action   Action
	CallerID string
	Language string
	Context  Context
}

// Result is a tagged variant: Text always carries the reply; Decision is
// set only when the action is structured and extraction succeeded.
type Result struct {
	Action   Action
	Text     string
	Decision *Decision
	Parsed   bool
}

// Dispatcher maps courtroom actions onto reasoning-backend calls. It holds
// no per-call state; each Dispatch is independent and atomic, so it is
// safe to invoke concurrently from independent sessions.
type Dispatcher struct {
	client  llm.Client
	model   string
	usage   UsageSink
	timeout time.Duration
}

func NewDispatcher(client llm.Client, model string, usage UsageSink) *Dispatcher {
	return &Dispatcher{
		client:  client,
		model:   model,
		usage:   usage,
		timeout: defaultTimeout,
	}
}

// Dispatch validates the request, builds the deterministic prompt, issues
// exactly one backend call, and parses the reply into the shape the action
// requires. Validation failures happen before any network call.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Result, error) {
	if req.CallerID == "" {
		return Result{}, ErrUnauthenticated
	}
	if _, err := ParseAction(string(req.Action)); err != nil {
		return Result{}, err
	}
	if n := utf8.RuneCountInString(req.Context.Message); n > maxMessageLen {
		return Result{}, fmt.Errorf("%w: message is %d characters, limit %d",
			ErrPayloadTooLarge, n, maxMessageLen)
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt(req.Language)},
		{Role: "user", Content: userPrompt(req.Action, req.Context)},
	}

	callCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	completion, err := d.client.Complete(callCtx, messages)
	if err != nil {
		if errors.Is(err, llm.ErrRateLimited) {
			return Result{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return Result{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	d.recordUsage(req.Action, completion)

	result := Result{Action: req.Action, Text: completion.Content}
	if req.Action.IsStructured() {
		if decision, ok := ExtractDecision(completion.Content); ok {
			result.Decision = &decision
			result.Parsed = true
		}
		// Parse failure is degraded, not fatal: the raw text stands.
	}
	return result, nil
}

func (d *Dispatcher) recordUsage(action Action, completion llm.Completion) {
	if d.usage == nil {
		return
	}
	rec := UsageRecord{
		Action:    action,
		Model:     d.model,
		TokensIn:  completion.PromptTokens,
		TokensOut: completion.CompletionTokens,
		Timestamp: time.Now().UTC(),
	}
	if err := d.usage.RecordUsage(rec); err != nil {
		log.Printf("warning: usage record for %s dropped: %v", action, err)
	}
}
