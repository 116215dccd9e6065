package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.Client(), &config.Config{LLMAPIKey: "k", LLMBaseURL: srv.URL, LLMModel: "sonar"})
}

func chunk(text string) string {
	return fmt.Sprintf("data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", text)
}

func collect(t *testing.T, s *Stream) (string, error) {
	t.Helper()
	var out string
	for {
		text, err := s.Next()
		if err != nil {
			return out, err
		}
		out += text
	}
}

func TestStream_RelaysUntilDone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var in completionRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "sonar", in.Model)
		assert.True(t, in.Stream)
		assert.Equal(t, []wireMessage{{Role: "user", Content: "Oi"}}, in.Messages)

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, ": keep-alive\n\n")
		_, _ = io.WriteString(w, chunk("Olá"))
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		_, _ = io.WriteString(w, chunk(", tudo bem?"))
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
		_, _ = io.WriteString(w, chunk("ignored"))
	})

	s, err := c.Stream(context.Background(), []models.ChatMessage{{Role: models.RoleUser, Content: "Oi"}})
	require.NoError(t, err)
	defer s.Close()

	out, err := collect(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "Olá, tudo bem?", out)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_FinishReasonWithoutDone(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chunk("a"))
		_, _ = io.WriteString(w, "data: {\"choices\":[{\"delta\":{},\"finish_reason\":\"stop\"}]}\n\n")
	})

	s, err := c.Stream(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()

	out, err := collect(t, s)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "a", out)
}

func TestStream_TruncatedIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, chunk("half"))
	})

	s, err := c.Stream(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()

	out, err := collect(t, s)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "half", out)
}

func TestStream_ErrorChunk(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
	})

	s, err := c.Stream(context.Background(), nil)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Next()
	assert.ErrorIs(t, err, common.ErrorUpstream)
}

func TestStream_StatusBeforeFirstByte(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Stream(context.Background(), nil)

	var ue *common.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
}

func TestStream_CancelStopsUpstream(t *testing.T) {
	upstreamDone := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		defer close(upstreamDone)
		_, _ = io.WriteString(w, chunk("first"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	s, err := c.Stream(ctx, nil)
	require.NoError(t, err)
	defer s.Close()

	text, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "first", text)

	cancel()
	_, err = s.Next()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)

	select {
	case <-upstreamDone:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream handler still running after cancel")
	}
}

func TestStream_NotConfigured(t *testing.T) {
	c := NewClient(http.DefaultClient, &config.Config{LLMModel: "sonar"})

	_, err := c.Stream(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrorNotConfigured)
	assert.Equal(t, "sonar", c.Model())
}
