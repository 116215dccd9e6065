package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/services"
)

type chatRequest struct {
	Messages       []models.ChatMessage `json:"messages"`
	ConversationID string               `json:"conversationId"`
}

// chat relays the model's answer as chunked text/plain. Until the first
// chunk goes out a failure is a normal JSON error; afterwards the only way
// to signal it is to abort the response.
func (a *API) chat(w http.ResponseWriter, r *http.Request) {
	var in chatRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	ctx := r.Context()
	x, err := a.Chat.Start(ctx, UserID(ctx), services.ChatRequest{
		Messages:       in.Messages,
		ConversationID: in.ConversationID,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	defer x.Close()

	rc := http.NewResponseController(w)
	started := false
	begin := func() {
		h := w.Header()
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	for {
		chunk, err := x.Next(ctx)
		if errors.Is(err, io.EOF) {
			if !started {
				begin()
			}
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !started {
				a.fail(w, r, err)
				return
			}
			a.log.Warn(ctx, "chat stream broke", "error", err)
			panic(http.ErrAbortHandler)
		}
		if chunk == "" {
			continue
		}

		if !started {
			begin()
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			return
		}
		_ = rc.Flush()
	}
}

func (a *API) listConversations(w http.ResponseWriter, r *http.Request) {
	list, err := a.Chat.ListConversations(r.Context(), UserID(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

func (a *API) getConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		a.fail(w, r, common.ErrorNotFound)
		return
	}

	c, err := a.Chat.GetConversation(r.Context(), UserID(r.Context()), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, c)
}

func (a *API) deleteConversation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeOK(w)
		return
	}
	if err := a.Chat.DeleteConversation(r.Context(), UserID(r.Context()), id); err != nil {
		a.fail(w, r, err)
		return
	}
	writeOK(w)
}
