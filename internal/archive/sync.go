package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/nvsharma/courtlive/internal/audit"
)

// Syncer mirrors hearing records into a Drive folder, one document per
// hearing date. The first sync of a date creates the document; later syncs
// for the same date update it in place.
type Syncer struct {
	service  *drive.Service
	folderID string
	fileIDs  map[string]string
	mu       sync.Mutex
}

func NewSyncer(ctx context.Context, credPath, folderID string) (*Syncer, error) {
	creds, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	config, err := google.CredentialsFromJSONWithTypeAndParams(ctx, creds, google.ServiceAccount, google.CredentialsParams{Scopes: []string{drive.DriveFileScope}})
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	svc, err := drive.NewService(ctx, option.WithCredentials(config))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	return &Syncer{
		service:  svc,
		folderID: folderID,
		fileIDs:  make(map[string]string),
	}, nil
}

func (s *Syncer) Sync(localPath, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer func() { _ = f.Close() }()

	name := fmt.Sprintf("court-record-%s", date)

	if fileID, ok := s.fileIDs[date]; ok {
		_, err = s.service.Files.Update(fileID, &drive.File{}).Media(f).Do()
		if err != nil {
			return fmt.Errorf("drive update: %w", err)
		}
		return nil
	}

	doc, err := s.service.Files.Create(&drive.File{
		Name:     name,
		MimeType: "application/vnd.google-apps.document",
		Parents:  []string{s.folderID},
	}).Media(f).Do()
	if err != nil {
		return fmt.Errorf("drive create: %w", err)
	}

	s.fileIDs[date] = doc.Id
	return nil
}

// RecordStore is the read surface needed to render a day's court record.
// *audit.SQLiteStore satisfies it.
type RecordStore interface {
	GetHearingsByDate(date string) ([]audit.Hearing, error)
	GetCase(id string) (audit.Case, error)
	GetTurns(hearingID string) ([]audit.Turn, error)
}

// RenderRecord formats every hearing that started on the given date
// (YYYY-MM-DD, UTC) as a plain-text court record.
func RenderRecord(store RecordStore, date string) (string, error) {
	hearings, err := store.GetHearingsByDate(date)
	if err != nil {
		return "", fmt.Errorf("list hearings for %s: %w", date, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "COURT RECORD %s\n", date)

	for _, hearing := range hearings {
		title := hearing.CaseID
		if c, err := store.GetCase(hearing.CaseID); err == nil && c.Title != "" {
			title = c.Title
		}

		fmt.Fprintf(&b, "\n=== %s (hearing %s, %s) ===\n", title, hearing.ID, hearing.Status)

		turns, err := store.GetTurns(hearing.ID)
		if err != nil {
			return "", fmt.Errorf("load transcript for %s: %w", hearing.ID, err)
		}
		for _, turn := range turns {
			fmt.Fprintf(&b, "[%s] %s (%s): %s\n",
				turn.CreatedAt.UTC().Format("15:04:05"), turn.Speaker, turn.Role, turn.Text)
		}
	}

	return b.String(), nil
}

// SyncDate renders the date's record to a temp file and pushes it to Drive.
func (s *Syncer) SyncDate(store RecordStore, date string) error {
	record, err := RenderRecord(store, date)
	if err != nil {
		return err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("court-record-%s.txt", date))
	if err := os.WriteFile(path, []byte(record), 0o600); err != nil {
		return fmt.Errorf("write record file: %w", err)
	}
	defer func() { _ = os.Remove(path) }()

	return s.Sync(path, date)
}
