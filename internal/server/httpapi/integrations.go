package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/integrations/spotify"
)

func (a *API) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := a.Dashboard.Get(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, d)
}

// spotifySearch is the one route that passes an upstream status through.
// The upstream body is never forwarded.
func (a *API) spotifySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	data, err := a.Music.Search(r.Context(), spotify.SearchParams{
		Query: q.Get("q"),
		Type:  q.Get("type"),
		Limit: limit,
	})
	if err != nil {
		var up *common.UpstreamError
		if errors.As(err, &up) && up.StatusCode >= 400 {
			a.log.Warn(r.Context(), "music search upstream error", "status", up.StatusCode)
			writeError(w, up.StatusCode, "music search failed")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, data)
}
