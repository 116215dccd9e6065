package httpapi

import (
	"net/http"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/services"
)

type gameRequest struct {
	Title    string `json:"title"`
	Platform string `json:"platform"`
	Status   string `json:"status"`
	CoverURL string `json:"cover_url"`
}

type gameStatusRequest struct {
	Status string `json:"status"`
}

type gameStatsRequest struct {
	PlaytimeHours  *float64 `json:"playtime_hours"`
	PersonalRating *string  `json:"personal_rating"`
}

func (a *API) listGames(w http.ResponseWriter, r *http.Request) {
	games, err := a.Games.List(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, games)
}

func (a *API) addGame(w http.ResponseWriter, r *http.Request) {
	var in gameRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	g, err := a.Games.Add(r.Context(), UserID(r.Context()), services.NewGame(in))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, g)
}

func (a *API) gameDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}

	d, err := a.Games.Details(r.Context(), UserID(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

func (a *API) updateGameStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}
	var in gameStatusRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.Games.UpdateStatus(r.Context(), UserID(r.Context()), id, in.Status); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (a *API) updateGameStats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}
	var in gameStatsRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	if err := a.Games.UpdateStats(r.Context(), UserID(r.Context()), id, in.PlaytimeHours, in.PersonalRating); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}

func (a *API) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Games.Delete(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}
