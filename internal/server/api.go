package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/nvsharma/courtlive/internal/audit"
)

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// HearingStore is the read-only surface the API needs. *audit.SQLiteStore
// satisfies it.
type HearingStore interface {
	GetHearingsByDate(date string) ([]audit.Hearing, error)
	GetHearing(id string) (audit.Hearing, error)
	GetTurns(hearingID string) ([]audit.Turn, error)
	GetCase(id string) (audit.Case, error)
}

func registerAPIRoutes(mux *http.ServeMux, store HearingStore) {
	mux.HandleFunc("GET /api/hearings", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		if date == "" {
			date = time.Now().UTC().Format("2006-01-02")
		}

		hearings, err := store.GetHearingsByDate(date)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list hearings: %v", err))
			return
		}
		if hearings == nil {
			hearings = []audit.Hearing{}
		}
		writeJSON(w, http.StatusOK, hearings)
	})

	mux.HandleFunc("GET /api/hearings/{id}", func(w http.ResponseWriter, r *http.Request) {
		hearingID := r.PathValue("id")
		if !validID(hearingID) {
			writeJSONError(w, http.StatusForbidden, "invalid hearing id")
			return
		}

		hearing, err := store.GetHearing(hearingID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, sql.ErrNoRows) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get hearing: %v", err))
			return
		}

		turns, err := store.GetTurns(hearingID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("get hearing transcript: %v", err))
			return
		}
		if turns == nil {
			turns = []audit.Turn{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"hearing":    hearing,
			"transcript": turns,
		})
	})

	mux.HandleFunc("GET /api/cases/{id}", func(w http.ResponseWriter, r *http.Request) {
		caseID := r.PathValue("id")
		if !validID(caseID) {
			writeJSONError(w, http.StatusForbidden, "invalid case id")
			return
		}

		courtCase, err := store.GetCase(caseID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, sql.ErrNoRows) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get case: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, courtCase)
	})
}

func validID(id string) bool {
	return idPattern.MatchString(id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
