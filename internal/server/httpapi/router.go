package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Router wires every route. Public routes are auth, /healthz and /metrics;
// everything under /api else runs behind RequireSession.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.observe)

	r.HandleFunc("/healthz", a.healthz).Methods(http.MethodGet)
	if a.Metrics != nil {
		r.Handle("/metrics", a.Metrics.Handler()).Methods(http.MethodGet)
	}

	pub := r.PathPrefix("/api/auth").Subrouter()
	pub.HandleFunc("/register", a.register).Methods(http.MethodPost)
	pub.HandleFunc("/login", a.login).Methods(http.MethodPost)
	pub.HandleFunc("/refresh", a.refresh).Methods(http.MethodPost)
	pub.HandleFunc("/logout", a.logout).Methods(http.MethodPost)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(a.RequireSession)

	api.HandleFunc("/dashboard", a.dashboard).Methods(http.MethodGet)

	api.HandleFunc("/finances", a.listTransactions).Methods(http.MethodGet)
	api.HandleFunc("/finances", a.addTransaction).Methods(http.MethodPost)
	api.HandleFunc("/finances/summary", a.financeReport).Methods(http.MethodGet)
	api.HandleFunc("/finances/{id}", a.deleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/games", a.listGames).Methods(http.MethodGet)
	api.HandleFunc("/games", a.addGame).Methods(http.MethodPost)
	api.HandleFunc("/games/{id}", a.deleteGame).Methods(http.MethodDelete)
	api.HandleFunc("/games/{id}/details", a.gameDetails).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}/status", a.updateGameStatus).Methods(http.MethodPatch)
	api.HandleFunc("/games/{id}/stats", a.updateGameStats).Methods(http.MethodPatch)

	api.HandleFunc("/notes", a.listNotes).Methods(http.MethodGet)
	api.HandleFunc("/notes", a.saveNote).Methods(http.MethodPost)
	api.HandleFunc("/notes/{id}", a.deleteNote).Methods(http.MethodDelete)
	api.HandleFunc("/notes/{id}/pin", a.togglePin).Methods(http.MethodPost)

	api.HandleFunc("/media", a.listMedia).Methods(http.MethodGet)
	api.HandleFunc("/media", a.saveMedia).Methods(http.MethodPost)
	api.HandleFunc("/media/{id}", a.deleteMedia).Methods(http.MethodDelete)
	api.HandleFunc("/media/{id}/playlist", a.moveMedia).Methods(http.MethodPatch)
	api.HandleFunc("/playlists", a.listPlaylists).Methods(http.MethodGet)
	api.HandleFunc("/playlists", a.createPlaylist).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", a.deletePlaylist).Methods(http.MethodDelete)

	api.HandleFunc("/ebooks", a.listEbooks).Methods(http.MethodGet)
	api.HandleFunc("/ebooks/upload", a.uploadEbook).Methods(http.MethodPost)
	api.HandleFunc("/ebooks/sync", a.syncEbooks).Methods(http.MethodPost)
	api.HandleFunc("/ebooks/{id}", a.deleteEbook).Methods(http.MethodDelete)
	api.HandleFunc("/ebooks/{id}/stream", a.streamEbook).Methods(http.MethodGet)
	api.HandleFunc("/ebooks/{id}/progress", a.updateProgress).Methods(http.MethodPatch)

	api.Handle("/ai/chat", a.rateLimited(http.HandlerFunc(a.chat))).Methods(http.MethodPost)
	api.HandleFunc("/ai/conversations", a.listConversations).Methods(http.MethodGet)
	api.HandleFunc("/ai/conversations/{id}", a.getConversation).Methods(http.MethodGet)
	api.HandleFunc("/ai/conversations/{id}", a.deleteConversation).Methods(http.MethodDelete)

	api.Handle("/integrations/spotify/search", a.rateLimited(http.HandlerFunc(a.spotifySearch))).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, msgNotFound)
	})
	return r
}

func (a *API) healthz(w http.ResponseWriter, r *http.Request) {
	if a.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.DB.PingContext(ctx); err != nil {
			a.log.Warn(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}
