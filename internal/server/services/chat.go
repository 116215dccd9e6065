package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/integrations/llm"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
)

const conversationTitleRunes = 100

// ChatStream yields reply chunks until io.EOF.
type ChatStream interface {
	Next() (string, error)
	Close() error
}

// ChatModel opens streamed completions.
type ChatModel interface {
	Stream(ctx context.Context, messages []models.ChatMessage) (ChatStream, error)
	Model() string
}

type llmModel struct{ c *llm.Client }

// NewLLMModel adapts an llm.Client to ChatModel.
func NewLLMModel(c *llm.Client) ChatModel {
	return llmModel{c: c}
}

func (m llmModel) Stream(ctx context.Context, messages []models.ChatMessage) (ChatStream, error) {
	st, err := m.c.Stream(ctx, messages)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (m llmModel) Model() string { return m.c.Model() }

type ChatRequest struct {
	Messages       []models.ChatMessage
	ConversationID string
}

type ChatService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	model       ChatModel
	tasks       TaskRunner
	logger      logging.Logger
	now         func() time.Time
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, model ChatModel, tasks TaskRunner, l logging.Logger) *ChatService {
	return &ChatService{
		db:          db,
		repomanager: m,
		model:       model,
		tasks:       tasks,
		logger:      l.With("module", "chat"),
		now:         time.Now,
	}
}

// Start validates the request and opens the upstream stream. An error here
// means nothing has been sent to the caller yet.
func (s *ChatService) Start(ctx context.Context, userID string, req ChatRequest) (*ChatExchange, error) {
	if len(req.Messages) == 0 {
		return nil, common.NewValidationError("messages are required")
	}
	if req.ConversationID != "" && !ValidID(req.ConversationID) {
		return nil, common.ErrorNotFound
	}

	now := s.now().UTC()
	msgs := make([]models.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == "" {
			m.Role = models.RoleUser
		}
		if !m.Role.Valid() {
			return nil, common.NewValidationError("invalid message role")
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		msgs = append(msgs, m)
	}

	stream, err := s.model.Stream(ctx, msgs)
	if err != nil {
		return nil, err
	}

	return &ChatExchange{
		svc:            s,
		userID:         userID,
		conversationID: req.ConversationID,
		messages:       msgs,
		stream:         stream,
	}, nil
}

// ChatState is where an exchange stands.
type ChatState int

const (
	ChatReceiving ChatState = iota
	ChatCompleted
	ChatUpstreamError
)

// ChatExchange relays one streamed answer. When the upstream finishes
// cleanly the transcript is saved in the background; a broken stream saves
// nothing.
type ChatExchange struct {
	svc            *ChatService
	userID         string
	conversationID string
	messages       []models.ChatMessage
	stream         ChatStream

	reply strings.Builder
	state ChatState
}

func (x *ChatExchange) State() ChatState { return x.state }

// Next returns the next chunk, io.EOF after completion, or the upstream
// error. ctx is handed to the save task for its values only.
func (x *ChatExchange) Next(ctx context.Context) (string, error) {
	if x.state != ChatReceiving {
		if x.state == ChatCompleted {
			return "", io.EOF
		}
		return "", common.ErrorUpstream
	}

	text, err := x.stream.Next()
	switch {
	case err == nil:
		x.reply.WriteString(text)
		return text, nil
	case errors.Is(err, io.EOF):
		x.state = ChatCompleted
		x.svc.persist(ctx, x.userID, x.conversationID, x.messages, x.reply.String())
		return "", io.EOF
	default:
		x.state = ChatUpstreamError
		return "", err
	}
}

func (x *ChatExchange) Close() error {
	return x.stream.Close()
}

func (s *ChatService) persist(ctx context.Context, userID, conversationID string, input []models.ChatMessage, reply string) {
	all := make([]models.ChatMessage, 0, len(input)+1)
	all = append(all, input...)
	all = append(all, models.ChatMessage{Role: models.RoleAssistant, Content: reply, Timestamp: s.now().UTC()})

	tokens := 0
	for _, m := range all {
		tokens += utf8.RuneCountInString(m.Content)
	}

	s.tasks.Go(ctx, "chat.persist", func(ctx context.Context) error {
		repo := s.repomanager.Conversations(s.db)
		if conversationID != "" {
			if err := repo.ReplaceMessages(ctx, userID, conversationID, all, tokens); err != nil {
				return fmt.Errorf("update conversation %s: %w", conversationID, err)
			}
			return nil
		}

		c := &models.Conversation{
			UserID:     userID,
			Title:      common.TruncateRunes(input[0].Content, conversationTitleRunes),
			Model:      s.model.Model(),
			Messages:   all,
			TokenCount: tokens,
		}
		if _, err := repo.Create(ctx, c); err != nil {
			return fmt.Errorf("create conversation: %w", err)
		}
		return nil
	})
}

func (s *ChatService) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	return s.repomanager.Conversations(s.db).List(ctx, userID)
}

func (s *ChatService) GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error) {
	if !ValidID(id) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Conversations(s.db).Get(ctx, userID, id)
}

func (s *ChatService) DeleteConversation(ctx context.Context, userID, id string) error {
	if !ValidID(id) {
		return nil
	}
	return s.repomanager.Conversations(s.db).Delete(ctx, userID, id)
}
