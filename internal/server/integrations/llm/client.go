// Package llm talks to an OpenAI-compatible chat completion endpoint and
// exposes its streamed answer chunk by chunk.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/config"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/tidwall/gjson"
)

const maxLineBytes = 1 << 20

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewClient(httpClient *http.Client, cfg *config.Config) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(cfg.LLMBaseURL, "/"),
		apiKey:     cfg.LLMAPIKey,
		model:      cfg.LLMModel,
	}
}

// Model is the identifier sent upstream and stored with conversations.
func (c *Client) Model() string {
	return c.model
}

type wireMessage struct {
	Role    models.ChatRole `json:"role"`
	Content string          `json:"content"`
}

type completionRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// Stream starts a streamed completion. Any error returned here happened
// before the first byte of the answer. Cancelling ctx aborts the upstream
// request.
func (c *Client) Stream(ctx context.Context, messages []models.ChatMessage) (*Stream, error) {
	if c.apiKey == "" {
		return nil, common.ErrorNotConfigured
	}

	in := completionRequest{Model: c.model, Stream: true, Messages: make([]wireMessage, 0, len(messages))}
	for _, m := range messages {
		in.Messages = append(in.Messages, wireMessage{Role: m.Role, Content: m.Content})
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		return nil, &common.UpstreamError{Service: "llm", StatusCode: resp.StatusCode}
	}

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	return &Stream{body: resp.Body, scanner: sc}, nil
}

// Stream yields the text deltas of one completion.
type Stream struct {
	body     io.ReadCloser
	scanner  *bufio.Scanner
	finished bool
	done     bool
}

// Next returns the next non-empty text delta. It returns io.EOF once the
// upstream sent [DONE], and any other error when the stream broke.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}

	for s.scanner.Scan() {
		line := s.scanner.Text()
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// blank separators, comments and other SSE fields
			continue
		}
		data = strings.TrimSpace(data)

		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}
		if !gjson.Valid(data) {
			return "", fmt.Errorf("malformed stream chunk: %w", common.ErrorUpstream)
		}

		chunk := gjson.Parse(data)
		if msg := chunk.Get("error.message"); msg.Exists() {
			return "", fmt.Errorf("llm stream error %q: %w", msg.String(), common.ErrorUpstream)
		}
		if chunk.Get("choices.0.finish_reason").String() != "" {
			s.finished = true
		}
		if text := chunk.Get("choices.0.delta.content").String(); text != "" {
			return text, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("read stream: %w", err)
	}
	if s.finished {
		s.done = true
		return "", io.EOF
	}
	return "", io.ErrUnexpectedEOF
}

// Close releases the upstream connection.
func (s *Stream) Close() error {
	return s.body.Close()
}
