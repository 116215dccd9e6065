package models

import "time"

type MediaPlatform string

const (
	PlatformYouTube MediaPlatform = "youtube"
	PlatformSpotify MediaPlatform = "spotify"
)

func (p MediaPlatform) Valid() bool {
	return p == PlatformYouTube || p == PlatformSpotify
}

type MediaItem struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	CoverURL    *string       `json:"cover_url"`
	ExternalURL string        `json:"external_url"`
	Platform    MediaPlatform `json:"platform"`
	PlaylistID  *string       `json:"playlist_id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// Playlist groups media items. Deleting it leaves the items in place.
type Playlist struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Icon      *string   `json:"icon"`
	Color     *string   `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}
