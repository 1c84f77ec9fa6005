package archive

import (
	"strings"
	"testing"
	"time"

	"github.com/nvsharma/courtlive/internal/audit"
)

type recordStoreStub struct {
	hearings map[string][]audit.Hearing
	cases    map[string]audit.Case
	turns    map[string][]audit.Turn
}

func (s recordStoreStub) GetHearingsByDate(date string) ([]audit.Hearing, error) {
	return s.hearings[date], nil
}

func (s recordStoreStub) GetCase(id string) (audit.Case, error) {
	return s.cases[id], nil
}

func (s recordStoreStub) GetTurns(hearingID string) ([]audit.Turn, error) {
	return s.turns[hearingID], nil
}

func TestRenderRecord(t *testing.T) {
	started := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	store := recordStoreStub{
		hearings: map[string][]audit.Hearing{
			"2026-03-10": {{ID: "h1", CaseID: "case-1", StartedAt: started, Status: audit.HearingAdjourned}},
		},
		cases: map[string]audit.Case{
			"case-1": {ID: "case-1", Title: "State v. Mehta"},
		},
		turns: map[string][]audit.Turn{
			"h1": {
				{Speaker: "Arjun Mehta", Role: "accused", Text: "I deny all charges.", CreatedAt: started.Add(time.Minute)},
				{Speaker: "AI Judge", Role: "judge", Text: "Noted.", CreatedAt: started.Add(2 * time.Minute)},
			},
		},
	}

	record, err := RenderRecord(store, "2026-03-10")
	if err != nil {
		t.Fatalf("RenderRecord failed: %v", err)
	}

	for _, want := range []string{
		"COURT RECORD 2026-03-10",
		"State v. Mehta",
		"Arjun Mehta (accused): I deny all charges.",
		"AI Judge (judge): Noted.",
	} {
		if !strings.Contains(record, want) {
			t.Fatalf("record missing %q:\n%s", want, record)
		}
	}

	denyIdx := strings.Index(record, "I deny all charges.")
	notedIdx := strings.Index(record, "Noted.")
	if denyIdx > notedIdx {
		t.Fatal("turns rendered out of order")
	}
}

func TestRenderRecordEmptyDate(t *testing.T) {
	record, err := RenderRecord(recordStoreStub{}, "2026-01-01")
	if err != nil {
		t.Fatalf("RenderRecord failed: %v", err)
	}
	if !strings.HasPrefix(record, "COURT RECORD 2026-01-01") {
		t.Fatalf("unexpected record %q", record)
	}
}
