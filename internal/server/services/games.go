package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/background"
	"github.com/hubpessoal/hub/internal/server/integrations/rawg"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
)

// Catalog is the game metadata source used for enrichment.
type Catalog interface {
	Enabled() bool
	Match(ctx context.Context, title string) (models.GameEnrichment, bool, error)
	Details(ctx context.Context, id int64) (*rawg.Details, error)
}

// TaskRunner starts best-effort work that outlives the request.
type TaskRunner interface {
	Go(ctx context.Context, name string, task background.Task)
}

type NewGame struct {
	Title    string
	Platform string
	Status   string
	CoverURL string
}

// GameDetails is a library entry plus its catalog record, when available.
type GameDetails struct {
	Game    *models.Game  `json:"game"`
	Catalog *rawg.Details `json:"catalog,omitempty"`
}

type GameService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	catalog     Catalog
	tasks       TaskRunner
	logger      logging.Logger
}

func NewGameService(db *sql.DB, m repomanager.RepositoryManager, catalog Catalog, tasks TaskRunner, l logging.Logger) *GameService {
	return &GameService{db: db, repomanager: m, catalog: catalog, tasks: tasks, logger: l.With("module", "games")}
}

func (s *GameService) List(ctx context.Context, userID string) ([]models.Game, error) {
	return s.repomanager.Games(s.db).List(ctx, userID)
}

// Add stores the game and, when the catalog is enabled, schedules its
// enrichment. Enrichment failures are logged and never returned.
func (s *GameService) Add(ctx context.Context, userID string, in NewGame) (*models.Game, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("title is required")
	}

	status := models.GameStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = models.GameBacklog
	}
	if !status.Valid() {
		return nil, common.NewValidationError("invalid status")
	}

	g := &models.Game{UserID: userID, Title: title, Status: status}
	if p := strings.TrimSpace(in.Platform); p != "" {
		g.Platform = &p
	}
	if c := strings.TrimSpace(in.CoverURL); c != "" {
		g.CoverURL = &c
	}

	created, err := s.repomanager.Games(s.db).Create(ctx, g)
	if err != nil {
		return nil, fmt.Errorf("error creating game: %w", err)
	}

	if s.catalog != nil && s.catalog.Enabled() {
		id, title := created.ID, created.Title
		s.tasks.Go(ctx, "games.enrich", func(ctx context.Context) error {
			return s.enrich(ctx, userID, id, title)
		})
	}
	return created, nil
}

func (s *GameService) enrich(ctx context.Context, userID, id, title string) error {
	e, ok, err := s.catalog.Match(ctx, title)
	if err != nil {
		return fmt.Errorf("catalog search for %q: %w", title, err)
	}
	if !ok {
		s.logger.Debug(ctx, "no catalog match", "game_id", id)
		return nil
	}
	if err := s.repomanager.Games(s.db).ApplyEnrichment(ctx, userID, id, e); err != nil {
		return fmt.Errorf("apply enrichment: %w", err)
	}
	return nil
}

func (s *GameService) UpdateStatus(ctx context.Context, userID, id, status string) error {
	st := models.GameStatus(status)
	if !st.Valid() {
		return common.NewValidationError("invalid status")
	}
	return s.repomanager.Games(s.db).UpdateStatus(ctx, userID, id, st)
}

// UpdateStats changes playtime and/or rating; nil leaves a field alone.
func (s *GameService) UpdateStats(ctx context.Context, userID, id string, playtime *float64, rating *string) error {
	var stats models.GameStats
	if playtime != nil {
		if *playtime < 0 || math.IsNaN(*playtime) || math.IsInf(*playtime, 0) {
			return common.NewValidationError("playtime must be zero or more hours")
		}
		stats.PlaytimeHours = playtime
	}
	if rating != nil {
		r := models.GameRating(*rating)
		if !r.Valid() {
			return common.NewValidationError("rating must be like, neutral or dislike")
		}
		stats.PersonalRating = &r
	}
	if stats.PlaytimeHours == nil && stats.PersonalRating == nil {
		return common.NewValidationError("nothing to update")
	}
	return s.repomanager.Games(s.db).UpdateStats(ctx, userID, id, stats)
}

func (s *GameService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Games(s.db).Delete(ctx, userID, id)
}

// Details returns the caller's game and, when possible, its catalog record.
// Catalog problems degrade to the game alone.
func (s *GameService) Details(ctx context.Context, userID, id string) (*GameDetails, error) {
	g, err := s.repomanager.Games(s.db).Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	out := &GameDetails{Game: g}
	if g.RAWGID == nil || s.catalog == nil || !s.catalog.Enabled() {
		return out, nil
	}

	d, err := s.catalog.Details(ctx, *g.RAWGID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Warn(ctx, "catalog details unavailable", "game_id", id, "error", err)
		}
		return out, nil
	}
	out.Catalog = d
	return out, nil
}
