// Package httpapi is the JSON/HTTP surface of the hub. Handlers decode the
// request, call one service and map the result onto a small set of
// user-visible responses.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/finance"
	"github.com/hubpessoal/hub/internal/server/integrations/spotify"
	"github.com/hubpessoal/hub/internal/server/metrics"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/services"
)

// The interfaces below are the slices of the services each handler group
// needs; *services.XService values satisfy them.

type Accounts interface {
	Authenticate(token string) (string, error)
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type Ledger interface {
	AddTransaction(ctx context.Context, userID string, in services.NewTransaction) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id string) error
	GetMonthlySummary(ctx context.Context, userID string, year, month int) (*finance.Summary, error)
	GetMonthReport(ctx context.Context, userID string, year, month int) (*services.MonthReport, error)
}

type GameLibrary interface {
	List(ctx context.Context, userID string) ([]models.Game, error)
	Add(ctx context.Context, userID string, in services.NewGame) (*models.Game, error)
	UpdateStatus(ctx context.Context, userID, id, status string) error
	UpdateStats(ctx context.Context, userID, id string, playtime *float64, rating *string) error
	Delete(ctx context.Context, userID, id string) error
	Details(ctx context.Context, userID, id string) (*services.GameDetails, error)
}

type Notebook interface {
	List(ctx context.Context, userID string) ([]services.NoteView, error)
	Save(ctx context.Context, userID string, in services.NoteInput) (*services.NoteView, error)
	Delete(ctx context.Context, userID, id string) error
	TogglePin(ctx context.Context, userID, id string) (bool, error)
}

type MediaLibrary interface {
	ListMedia(ctx context.Context, userID, playlist string) ([]models.MediaItem, error)
	SaveMedia(ctx context.Context, userID string, in services.NewMedia) (*models.MediaItem, error)
	DeleteMedia(ctx context.Context, userID, id string) error
	MoveMedia(ctx context.Context, userID, id string, playlistID *string) error
	ListPlaylists(ctx context.Context, userID string) ([]models.Playlist, error)
	CreatePlaylist(ctx context.Context, userID string, in services.NewPlaylist) (*models.Playlist, error)
	DeletePlaylist(ctx context.Context, userID, id string) error
}

type Library interface {
	List(ctx context.Context, userID string) ([]models.Ebook, error)
	Upload(ctx context.Context, userID string, in services.EbookUpload) (*models.Ebook, error)
	Open(ctx context.Context, userID, id string) (*models.Ebook, io.ReadCloser, error)
	Sync(ctx context.Context, userID string) (*services.SyncResult, error)
	UpdateProgress(ctx context.Context, userID, id string, in services.ProgressInput) (*models.Ebook, error)
	Delete(ctx context.Context, userID, id string) error
}

type Assistant interface {
	Start(ctx context.Context, userID string, req services.ChatRequest) (*services.ChatExchange, error)
	ListConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversation(ctx context.Context, userID, id string) (*models.Conversation, error)
	DeleteConversation(ctx context.Context, userID, id string) error
}

type Overview interface {
	Get(ctx context.Context, userID string) (*services.Dashboard, error)
}

type MusicSearch interface {
	Search(ctx context.Context, p spotify.SearchParams) (json.RawMessage, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps is everything the router needs. Metrics and Limiter may be nil.
type Deps struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
	Limiter *RateLimiter
	DB      Pinger

	Accounts  Accounts
	Ledger    Ledger
	Games     GameLibrary
	Notes     Notebook
	Media     MediaLibrary
	Ebooks    Library
	Chat      Assistant
	Dashboard Overview
	Music     MusicSearch

	SessionCookieName   string
	SessionCookieSecure bool
	SessionMaxAge       time.Duration
	MaxUploadBytes      int64
}

type API struct {
	Deps
	log logging.Logger
	now func() time.Time
}

func New(d Deps) *API {
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return &API{Deps: d, log: d.Logger.With("module", "httpapi"), now: time.Now}
}
