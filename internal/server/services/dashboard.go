package services

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/hubpessoal/hub/internal/server/finance"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/repomanager"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardRecentNotes        = 3
	dashboardRecentTransactions = 2
	dashboardActivityLimit      = 5
	dashboardRecentGames        = 3
)

// Activity is one entry of the merged recent-activity feed.
type Activity struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Dashboard struct {
	Month          finance.Summary `json:"month"`
	PlaylistCount  int             `json:"playlist_count"`
	GameCount      int             `json:"game_count"`
	EbookCount     int             `json:"ebook_count"`
	RecentActivity []Activity      `json:"recent_activity"`
	RecentGames    []models.Game   `json:"recent_games"`
}

type DashboardService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	finance     *FinanceService
	now         func() time.Time
}

func NewDashboardService(db *sql.DB, m repomanager.RepositoryManager, fin *FinanceService) *DashboardService {
	return &DashboardService{db: db, repomanager: m, finance: fin, now: time.Now}
}

// Get runs every read concurrently; the first failure fails the whole view.
func (s *DashboardService) Get(ctx context.Context, userID string) (*Dashboard, error) {
	var (
		d     Dashboard
		notes []models.Note
		txs   []models.Transaction
	)
	now := s.now()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.finance.GetMonthlySummary(ctx, userID, now.Year(), int(now.Month()))
		if err != nil {
			return err
		}
		d.Month = *sum
		return nil
	})
	g.Go(func() (err error) {
		d.PlaylistCount, err = s.repomanager.Playlists(s.db).Count(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.GameCount, err = s.repomanager.Games(s.db).CountActive(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		d.EbookCount, err = s.repomanager.Ebooks(s.db).Count(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		notes, err = s.repomanager.Notes(s.db).ListRecent(ctx, userID, dashboardRecentNotes)
		return err
	})
	g.Go(func() (err error) {
		txs, err = s.repomanager.Transactions(s.db).ListRecent(ctx, userID, dashboardRecentTransactions)
		return err
	})
	g.Go(func() (err error) {
		d.RecentGames, err = s.repomanager.Games(s.db).ListRecentlyUpdated(ctx, userID, dashboardRecentGames)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.RecentActivity = MergeActivity(notes, txs, dashboardActivityLimit)
	if d.RecentGames == nil {
		d.RecentGames = []models.Game{}
	}
	return &d, nil
}

// MergeActivity interleaves notes and transactions newest first and keeps
// at most limit entries.
func MergeActivity(notes []models.Note, txs []models.Transaction, limit int) []Activity {
	out := make([]Activity, 0, len(notes)+len(txs))
	for _, n := range notes {
		out = append(out, Activity{Kind: "note", ID: n.ID, Title: n.Title, CreatedAt: n.CreatedAt})
	}
	for _, t := range txs {
		out = append(out, Activity{
			Kind:      "transaction",
			ID:        t.ID,
			Title:     t.Title,
			Detail:    string(t.Kind) + " " + t.Amount.StringFixed(2),
			CreatedAt: t.CreatedAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
