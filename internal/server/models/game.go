package models

import (
	"encoding/json"
	"time"
)

type GameStatus string

const (
	GamePlaying   GameStatus = "playing"
	GameBacklog   GameStatus = "backlog"
	GameCompleted GameStatus = "completed"
	GameDropped   GameStatus = "dropped"
)

func (s GameStatus) Valid() bool {
	switch s {
	case GamePlaying, GameBacklog, GameCompleted, GameDropped:
		return true
	}
	return false
}

type GameRating string

const (
	RatingLike    GameRating = "like"
	RatingNeutral GameRating = "neutral"
	RatingDislike GameRating = "dislike"
)

func (r GameRating) Valid() bool {
	return r == RatingLike || r == RatingNeutral || r == RatingDislike
}

type Game struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Title          string          `json:"title"`
	Slug           *string         `json:"slug"`
	RAWGID         *int64          `json:"rawg_id"`
	Platform       *string         `json:"platform"`
	Genre          *string         `json:"genre"`
	CoverURL       *string         `json:"cover_url"`
	Status         GameStatus      `json:"status"`
	PlaytimeHours  float64         `json:"playtime_hours"`
	PersonalRating *GameRating     `json:"personal_rating"`
	Notes          *string         `json:"notes"`
	Favorite       bool            `json:"favorite"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// GameEnrichment is what a catalog lookup contributes to a game row.
// CoverURL is only applied when the row has none.
type GameEnrichment struct {
	RAWGID   int64
	Slug     string
	Genre    string
	CoverURL string
}

// GameStats is a partial update; nil fields are left unchanged.
type GameStats struct {
	PlaytimeHours  *float64
	PersonalRating *GameRating
}
