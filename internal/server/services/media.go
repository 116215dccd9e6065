package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
)

type NewMedia struct {
	Title       string
	Description string
	CoverURL    string
	ExternalURL string
	Platform    string
	PlaylistID  string
}

type NewPlaylist struct {
	Title string
	Icon  string
	Color string
}

type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMediaService(db *sql.DB, m repomanager.RepositoryManager) *MediaService {
	return &MediaService{db: db, repomanager: m}
}

// ListMedia lists the caller's items; a playlist of "" or "all" means no filter.
func (s *MediaService) ListMedia(ctx context.Context, userID, playlist string) ([]models.MediaItem, error) {
	var filter *string
	if p := strings.TrimSpace(playlist); p != "" && p != "all" {
		if !ValidID(p) {
			return nil, common.NewValidationError("playlist not found")
		}
		filter = &p
	}
	return s.repomanager.Media(s.db).List(ctx, userID, filter)
}

func (s *MediaService) SaveMedia(ctx context.Context, userID string, in NewMedia) (*models.MediaItem, error) {
	m := &models.MediaItem{
		UserID:      userID,
		Title:       strings.TrimSpace(in.Title),
		ExternalURL: strings.TrimSpace(in.ExternalURL),
		Platform:    models.MediaPlatform(strings.TrimSpace(in.Platform)),
		Description: optional(in.Description),
		CoverURL:    optional(in.CoverURL),
	}
	if m.Title == "" || m.ExternalURL == "" {
		return nil, common.NewValidationError("title and external url are required")
	}
	if !m.Platform.Valid() {
		return nil, common.NewValidationError("platform must be youtube or spotify")
	}

	if p := optional(in.PlaylistID); p != nil {
		if err := s.requirePlaylist(ctx, userID, *p); err != nil {
			return nil, err
		}
		m.PlaylistID = p
	}

	created, err := s.repomanager.Media(s.db).Create(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("error creating media item: %w", err)
	}
	return created, nil
}

func (s *MediaService) DeleteMedia(ctx context.Context, userID, id string) error {
	return s.repomanager.Media(s.db).Delete(ctx, userID, id)
}

// MoveMedia puts the item into playlistID, or takes it out of any playlist
// when playlistID is nil.
func (s *MediaService) MoveMedia(ctx context.Context, userID, id string, playlistID *string) error {
	if playlistID != nil {
		if err := s.requirePlaylist(ctx, userID, *playlistID); err != nil {
			return err
		}
	}
	return s.repomanager.Media(s.db).SetPlaylist(ctx, userID, id, playlistID)
}

func (s *MediaService) ListPlaylists(ctx context.Context, userID string) ([]models.Playlist, error) {
	return s.repomanager.Playlists(s.db).List(ctx, userID)
}

func (s *MediaService) CreatePlaylist(ctx context.Context, userID string, in NewPlaylist) (*models.Playlist, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("title is required")
	}

	p := &models.Playlist{UserID: userID, Title: title, Icon: optional(in.Icon), Color: optional(in.Color)}
	created, err := s.repomanager.Playlists(s.db).Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("error creating playlist: %w", err)
	}
	return created, nil
}

func (s *MediaService) DeletePlaylist(ctx context.Context, userID, id string) error {
	return s.repomanager.Playlists(s.db).Delete(ctx, userID, id)
}

func (s *MediaService) requirePlaylist(ctx context.Context, userID, playlistID string) error {
	if !ValidID(playlistID) {
		return common.NewValidationError("playlist not found")
	}
	ok, err := s.repomanager.Playlists(s.db).Exists(ctx, userID, playlistID)
	if err != nil {
		return err
	}
	if !ok {
		return common.NewValidationError("playlist not found")
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
