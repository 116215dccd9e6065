package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/dbx"
	"github.com/hubpessoal/hub/internal/server/background"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/repositories/conversations"
	"github.com/hubpessoal/hub/internal/server/repositories/ebooks"
	"github.com/hubpessoal/hub/internal/server/repositories/games"
	"github.com/hubpessoal/hub/internal/server/repositories/media"
	"github.com/hubpessoal/hub/internal/server/repositories/notes"
	"github.com/hubpessoal/hub/internal/server/repositories/playlists"
	refreshtokensrepo "github.com/hubpessoal/hub/internal/server/repositories/refreshtokens"
	"github.com/hubpessoal/hub/internal/server/repositories/transactions"
	usersrepo "github.com/hubpessoal/hub/internal/server/repositories/users"
)

var errNotFound = common.ErrorNotFound

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

// fakeRepoManager hands out whichever fakes a test sets; the rest stay nil.
type fakeRepoManager struct {
	u  *fakeUsersRepo
	r  *fakeRefreshRepo
	tx *fakeTransactionsRepo
	g  *fakeGamesRepo
	n  *fakeNotesRepo
	m  *fakeMediaRepo
	p  *fakePlaylistsRepo
	e  *fakeEbooksRepo
	c  *fakeConversationsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error             { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository                      { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository      { return m.r }
func (m *fakeRepoManager) Transactions(dbx.DBTX) transactions.Repository            { return m.tx }
func (m *fakeRepoManager) Games(dbx.DBTX) games.Repository                          { return m.g }
func (m *fakeRepoManager) Notes(dbx.DBTX) notes.Repository                          { return m.n }
func (m *fakeRepoManager) Media(dbx.DBTX) media.Repository                          { return m.m }
func (m *fakeRepoManager) Playlists(dbx.DBTX) playlists.Repository                  { return m.p }
func (m *fakeRepoManager) Ebooks(dbx.DBTX) ebooks.Repository                        { return m.e }
func (m *fakeRepoManager) Conversations(dbx.DBTX) conversations.Repository          { return m.c }

// --- users / refresh tokens ---

type fakeUsersRepo struct {
	createIn  *models.User
	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.createIn = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.createOut, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr  error
	deleted []string

	createErr error
	created   []string

	purged    time.Time
	purgedOut int64
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	f.created = append(f.created, token)
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return f.delErr
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.purged = now
	return f.purgedOut, nil
}

// --- transactions ---

type fakeTransactionsRepo struct {
	created   *models.Transaction
	createErr error

	rangeFrom, rangeTo string
	rangeOut           []models.Transaction
	rangeErr           error

	recentOut []models.Transaction
	recentErr error
}

func (f *fakeTransactionsRepo) Create(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	f.created = t
	if f.createErr != nil {
		return nil, f.createErr
	}
	out := *t
	out.ID = "tx-1"
	return &out, nil
}

func (f *fakeTransactionsRepo) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeTransactionsRepo) ListByDateRange(ctx context.Context, userID, from, to string) ([]models.Transaction, error) {
	f.rangeFrom, f.rangeTo = from, to
	return f.rangeOut, f.rangeErr
}

func (f *fakeTransactionsRepo) ListRecent(ctx context.Context, userID string, limit int) ([]models.Transaction, error) {
	return f.recentOut, f.recentErr
}

// --- games ---

type fakeGamesRepo struct {
	mu sync.Mutex

	created *models.Game

	getOut *models.Game
	getErr error

	status models.GameStatus
	stats  models.GameStats

	enriched    *models.GameEnrichment
	enrichedErr error

	countOut  int
	recentOut []models.Game
}

func (f *fakeGamesRepo) List(ctx context.Context, userID string) ([]models.Game, error) {
	return nil, nil
}

func (f *fakeGamesRepo) ListRecentlyUpdated(ctx context.Context, userID string, limit int) ([]models.Game, error) {
	return f.recentOut, nil
}

func (f *fakeGamesRepo) CountActive(ctx context.Context, userID string) (int, error) {
	return f.countOut, nil
}

func (f *fakeGamesRepo) Get(ctx context.Context, userID, id string) (*models.Game, error) {
	return f.getOut, f.getErr
}

func (f *fakeGamesRepo) Create(ctx context.Context, g *models.Game) (*models.Game, error) {
	f.created = g
	out := *g
	out.ID = "g-1"
	return &out, nil
}

func (f *fakeGamesRepo) UpdateStatus(ctx context.Context, userID, id string, status models.GameStatus) error {
	f.status = status
	return nil
}

func (f *fakeGamesRepo) UpdateStats(ctx context.Context, userID, id string, stats models.GameStats) error {
	f.stats = stats
	return nil
}

func (f *fakeGamesRepo) ApplyEnrichment(ctx context.Context, userID, id string, e models.GameEnrichment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enriched = &e
	return f.enrichedErr
}

func (f *fakeGamesRepo) Delete(ctx context.Context, userID, id string) error { return nil }

// --- notes ---

type fakeNotesRepo struct {
	listOut   []models.Note
	recentOut []models.Note

	created *models.Note
	updated *models.Note
	saveErr error

	pinned bool
}

func (f *fakeNotesRepo) List(ctx context.Context, userID string) ([]models.Note, error) {
	return f.listOut, nil
}

func (f *fakeNotesRepo) ListRecent(ctx context.Context, userID string, limit int) ([]models.Note, error) {
	return f.recentOut, nil
}

func (f *fakeNotesRepo) Create(ctx context.Context, n *models.Note) (*models.Note, error) {
	f.created = n
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	out := *n
	out.ID = "n-1"
	return &out, nil
}

func (f *fakeNotesRepo) Update(ctx context.Context, n *models.Note) (*models.Note, error) {
	f.updated = n
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	out := *n
	return &out, nil
}

func (f *fakeNotesRepo) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeNotesRepo) TogglePin(ctx context.Context, userID, id string) (bool, error) {
	f.pinned = !f.pinned
	return f.pinned, nil
}

// --- media / playlists ---

type fakeMediaRepo struct {
	listFilter *string
	listCalls  int
	created    *models.MediaItem

	movedTo  *string
	moveErr  error
	moveCall int
}

func (f *fakeMediaRepo) List(ctx context.Context, userID string, playlistID *string) ([]models.MediaItem, error) {
	f.listFilter = playlistID
	f.listCalls++
	return []models.MediaItem{}, nil
}

func (f *fakeMediaRepo) Create(ctx context.Context, m *models.MediaItem) (*models.MediaItem, error) {
	f.created = m
	out := *m
	out.ID = "m-1"
	return &out, nil
}

func (f *fakeMediaRepo) Delete(ctx context.Context, userID, id string) error { return nil }

func (f *fakeMediaRepo) SetPlaylist(ctx context.Context, userID, id string, playlistID *string) error {
	f.moveCall++
	f.movedTo = playlistID
	return f.moveErr
}

type fakePlaylistsRepo struct {
	owned    map[string]bool
	created  *models.Playlist
	countOut int
}

func (f *fakePlaylistsRepo) List(ctx context.Context, userID string) ([]models.Playlist, error) {
	return []models.Playlist{}, nil
}

func (f *fakePlaylistsRepo) Count(ctx context.Context, userID string) (int, error) {
	return f.countOut, nil
}

func (f *fakePlaylistsRepo) Exists(ctx context.Context, userID, id string) (bool, error) {
	return f.owned[id], nil
}

func (f *fakePlaylistsRepo) Create(ctx context.Context, p *models.Playlist) (*models.Playlist, error) {
	f.created = p
	out := *p
	out.ID = "p-1"
	return &out, nil
}

func (f *fakePlaylistsRepo) Delete(ctx context.Context, userID, id string) error { return nil }

// --- ebooks ---

type fakeEbooksRepo struct {
	rows      map[string]*models.Ebook
	created   []*models.Ebook
	createErr error
	countOut  int
	countErr  error

	progress       *models.ReadingProgress
	progressStatus models.EbookStatus
}

func (f *fakeEbooksRepo) List(ctx context.Context, userID string) ([]models.Ebook, error) {
	return nil, nil
}

func (f *fakeEbooksRepo) Count(ctx context.Context, userID string) (int, error) {
	return f.countOut, f.countErr
}

func (f *fakeEbooksRepo) Get(ctx context.Context, userID, id string) (*models.Ebook, error) {
	e, ok := f.rows[id]
	if !ok || e.UserID != userID {
		return nil, errNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEbooksRepo) Create(ctx context.Context, e *models.Ebook) (*models.Ebook, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, e)
	out := *e
	out.ID = "e-new"
	return &out, nil
}

func (f *fakeEbooksRepo) CreateIfAbsent(ctx context.Context, e *models.Ebook) (bool, error) {
	for _, r := range f.rows {
		if r.UserID == e.UserID && r.RemoteFileID == e.RemoteFileID {
			return false, nil
		}
	}
	f.created = append(f.created, e)
	return true, nil
}

func (f *fakeEbooksRepo) RemoteFileIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	for _, r := range f.rows {
		if r.UserID == userID {
			ids = append(ids, r.RemoteFileID)
		}
	}
	return ids, nil
}

func (f *fakeEbooksRepo) UpdateProgress(ctx context.Context, userID, id string, p models.ReadingProgress, status models.EbookStatus, at time.Time) error {
	f.progress = &p
	f.progressStatus = status
	return nil
}

func (f *fakeEbooksRepo) Delete(ctx context.Context, userID, id string) error { return nil }

// --- conversations ---

type fakeConversationsRepo struct {
	mu sync.Mutex

	created      *models.Conversation
	replacedID   string
	replacedMsgs []models.ChatMessage
	replacedTok  int
	replaceErr   error
}

func (f *fakeConversationsRepo) List(ctx context.Context, userID string) ([]models.Conversation, error) {
	return []models.Conversation{}, nil
}

func (f *fakeConversationsRepo) Get(ctx context.Context, userID, id string) (*models.Conversation, error) {
	return nil, errNotFound
}

func (f *fakeConversationsRepo) Create(ctx context.Context, c *models.Conversation) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = c
	return c, nil
}

func (f *fakeConversationsRepo) ReplaceMessages(ctx context.Context, userID, id string, messages []models.ChatMessage, tokenCount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replacedID = id
	f.replacedMsgs = messages
	f.replacedTok = tokenCount
	return f.replaceErr
}

func (f *fakeConversationsRepo) Delete(ctx context.Context, userID, id string) error { return nil }

// syncRunner runs tasks inline so tests can assert on their effects.
type syncRunner struct {
	names []string
	errs  []error
}

func (r *syncRunner) Go(ctx context.Context, name string, task background.Task) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, task(context.WithoutCancel(ctx)))
}
