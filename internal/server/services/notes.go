package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/notecontent"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
)

// DefaultNoteTitle is used when a note is saved without a title.
const DefaultNoteTitle = untitled

const untitled = "Sem título"

// NoteInput creates a note when ID is empty and updates it otherwise.
// Content may be a JSON string holding the body or the body itself.
type NoteInput struct {
	ID      string
	Title   string
	Kind    string
	Content json.RawMessage
}

// NoteView is a note with its body interpreted for its kind.
type NoteView struct {
	models.Note
	Content notecontent.Content `json:"content"`
}

func newNoteView(n models.Note) NoteView {
	return NoteView{Note: n, Content: notecontent.View(n.Kind, n.Content)}
}

type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewNoteService(db *sql.DB, m repomanager.RepositoryManager) *NoteService {
	return &NoteService{db: db, repomanager: m}
}

func (s *NoteService) List(ctx context.Context, userID string) ([]NoteView, error) {
	notes, err := s.repomanager.Notes(s.db).List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]NoteView, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteView(n))
	}
	return out, nil
}

// Save validates the body against the kind before anything is written.
func (s *NoteService) Save(ctx context.Context, userID string, in NoteInput) (*NoteView, error) {
	if in.ID != "" && !ValidID(in.ID) {
		return nil, common.ErrorNotFound
	}

	kind := models.NoteKind(strings.TrimSpace(in.Kind))
	if kind == "" {
		kind = models.NoteDocument
	}

	raw, err := rawBody(in.Content)
	if err != nil {
		return nil, err
	}
	content, err := notecontent.Parse(kind, raw)
	if err != nil {
		return nil, err
	}
	body, err := notecontent.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("encode note body: %w", err)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultNoteTitle
	}

	n := &models.Note{ID: in.ID, UserID: userID, Title: title, Content: body, Kind: kind}
	repo := s.repomanager.Notes(s.db)
	if in.ID == "" {
		n, err = repo.Create(ctx, n)
	} else {
		n, err = repo.Update(ctx, n)
	}
	if err != nil {
		return nil, err
	}

	return &NoteView{Note: *n, Content: content}, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Notes(s.db).Delete(ctx, userID, id)
}

// TogglePin returns the pinned flag after the flip.
func (s *NoteService) TogglePin(ctx context.Context, userID, id string) (bool, error) {
	return s.repomanager.Notes(s.db).TogglePin(ctx, userID, id)
}

func rawBody(content json.RawMessage) (string, error) {
	trimmed := strings.TrimSpace(string(content))
	switch {
	case trimmed == "" || trimmed == "null":
		return "", nil
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return "", fmt.Errorf("decode note body: %w", err)
		}
		return s, nil
	default:
		return trimmed, nil
	}
}
