package models

import "time"

type NoteKind string

const (
	NoteDocument NoteKind = "document"
	NoteBoard    NoteKind = "board"
)

func (k NoteKind) Valid() bool {
	return k == NoteDocument || k == NoteBoard
}

// Note keeps its body opaque; notecontent interprets it according to Kind.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"-"`
	Kind      NoteKind  `json:"type"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
