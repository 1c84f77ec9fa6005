package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	HearingActive    = "active"
	HearingAdjourned = "adjourned"
)

// Case is the read-path hydration record for a court case. The core never
// mutates cases; they are owned by the surrounding application.
type Case struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Status  string `json:"status"`
}

// Hearing is one live courtroom session for a case.
type Hearing struct {
	ID        string     `json:"id"`
	CaseID    string     `json:"case_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	Status    string     `json:"status"`
}

// Turn is one utterance in the ordered transcript of a hearing.
type Turn struct {
	ID        string    `json:"id"`
	HearingID string    `json:"hearing_id"`
	Speaker   string    `json:"speaker"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Evidence is one submitted evidence record with the judge's assessment.
type Evidence struct {
	ID          string    `json:"id"`
	HearingID   string    `json:"hearing_id"`
	SubmittedBy string    `json:"submitted_by"`
	Description string    `json:"description"`
	Assessment  string    `json:"assessment"`
	CreatedAt   time.Time `json:"created_at"`
}

// Activity is one participant lifecycle event (joined, left, hand raised).
type Activity struct {
	HearingID   string    `json:"hearing_id"`
	Participant string    `json:"participant"`
	Action      string    `json:"action"`
	CreatedAt   time.Time `json:"created_at"`
}

// Interaction is one inter-party event (objection, question, ruling).
type Interaction struct {
	HearingID string    `json:"hearing_id"`
	FromRole  string    `json:"from_role"`
	ToRole    string    `json:"to_role"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage is one reasoning-backend call, append-only.
type Usage struct {
	Action    string    `json:"action"`
	Model     string    `json:"model"`
	TokensIn  int       `json:"tokens_in"`
	TokensOut int       `json:"tokens_out"`
	CreatedAt time.Time `json:"created_at"`
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if strings.TrimSpace(dbPath) == "" {
		dbPath = filepath.Join("data", "courtlive.db")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply pragma %q: %w", p, err)
		}
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS cases (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open'
		);`,
		`CREATE TABLE IF NOT EXISTS hearings (
			id TEXT PRIMARY KEY,
			case_id TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			status TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS transcript_turns (
			id TEXT PRIMARY KEY,
			hearing_id TEXT NOT NULL,
			speaker TEXT NOT NULL,
			role TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL,
			seq INTEGER NOT NULL,
			FOREIGN KEY(hearing_id) REFERENCES hearings(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS evidence_logs (
			id TEXT PRIMARY KEY,
			hearing_id TEXT NOT NULL,
			submitted_by TEXT NOT NULL,
			description TEXT NOT NULL,
			assessment TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			FOREIGN KEY(hearing_id) REFERENCES hearings(id) ON DELETE CASCADE
		);`,
		`CREATE TABLE IF NOT EXISTS participant_activity (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hearing_id TEXT NOT NULL,
			participant TEXT NOT NULL,
			action TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS interaction_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			hearing_id TEXT NOT NULL,
			from_role TEXT NOT NULL,
			to_role TEXT NOT NULL,
			kind TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS usage_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			action TEXT NOT NULL,
			model TEXT NOT NULL,
			tokens_in INTEGER NOT NULL,
			tokens_out INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_turns_hearing ON transcript_turns(hearing_id, seq);`,
		`CREATE INDEX IF NOT EXISTS idx_hearings_case ON hearings(case_id, started_at);`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for read-only queries.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// GetCase hydrates initial case context. Read path only.
func (s *SQLiteStore) GetCase(id string) (Case, error) {
	var c Case
	err := s.db.QueryRow("SELECT id, title, summary, status FROM cases WHERE id = ?", id).
		Scan(&c.ID, &c.Title, &c.Summary, &c.Status)
	if err != nil {
		return Case{}, fmt.Errorf("get case %s: %w", id, err)
	}
	return c, nil
}

// UpsertCase exists for the surrounding application and tests; the core
// pipeline never calls it.
func (s *SQLiteStore) UpsertCase(c Case) error {
	_, err := s.db.Exec(`
		INSERT INTO cases (id, title, summary, status) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, summary = excluded.summary, status = excluded.status`,
		c.ID, c.Title, c.Summary, c.Status)
	if err != nil {
		return fmt.Errorf("upsert case %s: %w", c.ID, err)
	}
	return nil
}

func (s *SQLiteStore) CreateHearing(id, caseID string, startedAt time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO hearings (id, case_id, started_at, status) VALUES (?, ?, ?, ?)",
		id, caseID, startedAt.UTC().Format(time.RFC3339Nano), HearingActive)
	if err != nil {
		return fmt.Errorf("create hearing %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) EndHearing(id string, endedAt time.Time) error {
	_, err := s.db.Exec(
		"UPDATE hearings SET ended_at = ?, status = ? WHERE id = ?",
		endedAt.UTC().Format(time.RFC3339Nano), HearingAdjourned, id)
	if err != nil {
		return fmt.Errorf("end hearing %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) GetHearing(id string) (Hearing, error) {
	var h Hearing
	var startedAt string
	var endedAt sql.NullString
	err := s.db.QueryRow(
		"SELECT id, case_id, started_at, ended_at, status FROM hearings WHERE id = ?", id).
		Scan(&h.ID, &h.CaseID, &startedAt, &endedAt, &h.Status)
	if err != nil {
		return Hearing{}, fmt.Errorf("get hearing %s: %w", id, err)
	}

	h.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Hearing{}, fmt.Errorf("parse hearing started_at: %w", err)
	}
	if endedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, endedAt.String)
		if err != nil {
			return Hearing{}, fmt.Errorf("parse hearing ended_at: %w", err)
		}
		h.EndedAt = &t
	}
	return h, nil
}

// AppendTurn appends one utterance to the hearing's ordered transcript.
func (s *SQLiteStore) AppendTurn(turn Turn) error {
	_, err := s.db.Exec(`
		INSERT INTO transcript_turns (id, hearing_id, speaker, role, text, created_at, seq)
		VALUES (?, ?, ?, ?, ?, ?, (
			SELECT COALESCE(MAX(seq), 0) + 1 FROM transcript_turns WHERE hearing_id = ?
		))`,
		turn.ID, turn.HearingID, turn.Speaker, turn.Role, turn.Text,
		turn.CreatedAt.UTC().Format(time.RFC3339Nano), turn.HearingID)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetTurns(hearingID string) ([]Turn, error) {
	rows, err := s.db.Query(`
		SELECT id, hearing_id, speaker, role, text, created_at
		FROM transcript_turns WHERE hearing_id = ? ORDER BY seq`, hearingID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var createdAt string
		if err := rows.Scan(&t.ID, &t.HearingID, &t.Speaker, &t.Role, &t.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse turn created_at: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteStore) AppendEvidence(e Evidence) error {
	_, err := s.db.Exec(`
		INSERT INTO evidence_logs (id, hearing_id, submitted_by, description, assessment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.HearingID, e.SubmittedBy, e.Description, e.Assessment,
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append evidence: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendActivity(a Activity) error {
	_, err := s.db.Exec(`
		INSERT INTO participant_activity (hearing_id, participant, action, created_at)
		VALUES (?, ?, ?, ?)`,
		a.HearingID, a.Participant, a.Action, a.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendInteraction(i Interaction) error {
	_, err := s.db.Exec(`
		INSERT INTO interaction_logs (hearing_id, from_role, to_role, kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		i.HearingID, i.FromRole, i.ToRole, i.Kind, i.Detail,
		i.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append interaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendUsage(u Usage) error {
	_, err := s.db.Exec(`
		INSERT INTO usage_records (action, model, tokens_in, tokens_out, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		u.Action, u.Model, u.TokensIn, u.TokensOut,
		u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("append usage: %w", err)
	}
	return nil
}

// GetHearingsByDate lists hearings started on a YYYY-MM-DD date (UTC).
func (s *SQLiteStore) GetHearingsByDate(date string) ([]Hearing, error) {
	rows, err := s.db.Query(`
		SELECT id, case_id, started_at, ended_at, status
		FROM hearings WHERE started_at LIKE ? || '%' ORDER BY started_at`, date)
	if err != nil {
		return nil, fmt.Errorf("query hearings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var hearings []Hearing
	for rows.Next() {
		var h Hearing
		var startedAt string
		var endedAt sql.NullString
		if err := rows.Scan(&h.ID, &h.CaseID, &startedAt, &endedAt, &h.Status); err != nil {
			return nil, fmt.Errorf("scan hearing: %w", err)
		}
		h.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, fmt.Errorf("parse hearing started_at: %w", err)
		}
		if endedAt.Valid {
			t, perr := time.Parse(time.RFC3339Nano, endedAt.String)
			if perr != nil {
				return nil, fmt.Errorf("parse hearing ended_at: %w", perr)
			}
			h.EndedAt = &t
		}
		hearings = append(hearings, h)
	}
	return hearings, rows.Err()
}
