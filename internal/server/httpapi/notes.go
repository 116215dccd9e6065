package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/services"
)

type noteRequest struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Kind    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

func (a *API) listNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := a.Notes.List(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, notes)
}

// saveNote creates when the body has no id and updates otherwise.
func (a *API) saveNote(w http.ResponseWriter, r *http.Request) {
	var in noteRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	n, err := a.Notes.Save(r.Context(), UserID(r.Context()), services.NoteInput(in))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, n)
}

func (a *API) deleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Notes.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (a *API) togglePin(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}

	pinned, err := a.Notes.TogglePin(r.Context(), UserID(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]bool{"is_pinned": pinned})
}
