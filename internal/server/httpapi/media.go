package httpapi

import (
	"net/http"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/services"
)

type mediaRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"cover_url"`
	ExternalURL string `json:"external_url"`
	Platform    string `json:"platform"`
	PlaylistID  string `json:"playlist_id"`
}

type playlistRequest struct {
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// moveRequest takes the item out of any playlist when playlist_id is null.
type moveRequest struct {
	PlaylistID *string `json:"playlist_id"`
}

func (a *API) listMedia(w http.ResponseWriter, r *http.Request) {
	items, err := a.Media.ListMedia(r.Context(), UserID(r.Context()), r.URL.Query().Get("playlist"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, items)
}

func (a *API) saveMedia(w http.ResponseWriter, r *http.Request) {
	var in mediaRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	m, err := a.Media.SaveMedia(r.Context(), UserID(r.Context()), services.NewMedia(in))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, m)
}

func (a *API) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Media.DeleteMedia(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (a *API) moveMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}
	var in moveRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.PlaylistID != nil && *in.PlaylistID == "" {
		in.PlaylistID = nil
	}

	if err := a.Media.MoveMedia(r.Context(), UserID(r.Context()), id, in.PlaylistID); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (a *API) listPlaylists(w http.ResponseWriter, r *http.Request) {
	lists, err := a.Media.ListPlaylists(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, lists)
}

func (a *API) createPlaylist(w http.ResponseWriter, r *http.Request) {
	var in playlistRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	p, err := a.Media.CreatePlaylist(r.Context(), UserID(r.Context()), services.NewPlaylist(in))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, p)
}

func (a *API) deletePlaylist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Media.DeletePlaylist(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}
