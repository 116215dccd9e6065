package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/background"
	"github.com/hubpessoal/hub/internal/server/finance"
	"github.com/hubpessoal/hub/internal/server/integrations/spotify"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/services"
)

const (
	testUser  = "7d1c6a3e-2f4b-4b8e-9a3d-1f2e3d4c5b6a"
	testToken = "good-token"
	someID    = "0b6f8f1e-1111-4c1a-9a55-3f0f1f2d4b10"
)

var errBoom = errors.New("boom")

type fakeAccounts struct {
	registerErr error
	loginPair   *services.TokenPair
	loginErr    error
	refreshPair *services.TokenPair
	refreshErr  error
	loggedOut   []string
}

func (f *fakeAccounts) Authenticate(token string) (string, error) {
	if token == testToken {
		return testUser, nil
	}
	return "", common.ErrInvalidToken
}

func (f *fakeAccounts) Register(_ context.Context, email, _ string) (*models.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.User{ID: someID, Email: email}, nil
}

func (f *fakeAccounts) Login(context.Context, string, string) (*services.TokenPair, error) {
	return f.loginPair, f.loginErr
}

func (f *fakeAccounts) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	return f.refreshPair, f.refreshErr
}

func (f *fakeAccounts) Logout(_ context.Context, token string) error {
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

type fakeLedger struct {
	added     []services.NewTransaction
	deleted   []string
	year      int
	month     int
	summary   *finance.Summary
	err       error
	lastOwner string
}

func (f *fakeLedger) AddTransaction(_ context.Context, userID string, in services.NewTransaction) (*models.Transaction, error) {
	f.lastOwner = userID
	f.added = append(f.added, in)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Transaction{ID: someID, UserID: userID, Title: in.Title}, nil
}

func (f *fakeLedger) DeleteTransaction(_ context.Context, _ string, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeLedger) GetMonthlySummary(_ context.Context, _ string, year, month int) (*finance.Summary, error) {
	f.year, f.month = year, month
	return f.summary, f.err
}

func (f *fakeLedger) GetMonthReport(_ context.Context, _ string, year, month int) (*services.MonthReport, error) {
	f.year, f.month = year, month
	if f.err != nil {
		return nil, f.err
	}
	return &services.MonthReport{Year: year, Month: month}, nil
}

type fakeNotes struct {
	saved   []services.NoteInput
	deleted []string
	pinned  bool
	err     error
}

func (f *fakeNotes) List(context.Context, string) ([]services.NoteView, error) {
	return []services.NoteView{}, f.err
}

func (f *fakeNotes) Save(_ context.Context, _ string, in services.NoteInput) (*services.NoteView, error) {
	f.saved = append(f.saved, in)
	if f.err != nil {
		return nil, f.err
	}
	return &services.NoteView{Note: models.Note{ID: someID, Title: in.Title}}, nil
}

func (f *fakeNotes) Delete(_ context.Context, _ string, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeNotes) TogglePin(context.Context, string, string) (bool, error) {
	return f.pinned, f.err
}

type fakeEbooks struct {
	uploads  []services.EbookUpload
	bodies   []string
	book     *models.Ebook
	content  string
	openErr  error
	uploadEr error
}

func (f *fakeEbooks) List(context.Context, string) ([]models.Ebook, error) {
	return []models.Ebook{}, nil
}

func (f *fakeEbooks) Upload(_ context.Context, userID string, in services.EbookUpload) (*models.Ebook, error) {
	b, _ := io.ReadAll(in.Body)
	f.uploads = append(f.uploads, in)
	f.bodies = append(f.bodies, string(b))
	if f.uploadEr != nil {
		return nil, f.uploadEr
	}
	return &models.Ebook{ID: someID, UserID: userID, Title: in.Title, FileType: models.EbookPDF}, nil
}

func (f *fakeEbooks) Open(context.Context, string, string) (*models.Ebook, io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, nil, f.openErr
	}
	return f.book, io.NopCloser(strings.NewReader(f.content)), nil
}

func (f *fakeEbooks) Sync(context.Context, string) (*services.SyncResult, error) {
	return &services.SyncResult{Synced: 1, Total: 3}, nil
}

func (f *fakeEbooks) UpdateProgress(context.Context, string, string, services.ProgressInput) (*models.Ebook, error) {
	return f.book, nil
}

func (f *fakeEbooks) Delete(context.Context, string, string) error { return nil }

type fakeMusic struct {
	params spotify.SearchParams
	data   json.RawMessage
	err    error
}

func (f *fakeMusic) Search(_ context.Context, p spotify.SearchParams) (json.RawMessage, error) {
	f.params = p
	return f.data, f.err
}

// fakeChatStream yields chunks then ends with end.
type fakeChatStream struct {
	chunks []string
	end    error
	closed bool
}

func (s *fakeChatStream) Next() (string, error) {
	if len(s.chunks) == 0 {
		return "", s.end
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *fakeChatStream) Close() error {
	s.closed = true
	return nil
}

type fakeChatModel struct {
	stream *fakeChatStream
	err    error
}

func (m *fakeChatModel) Stream(context.Context, []models.ChatMessage) (services.ChatStream, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stream, nil
}

func (m *fakeChatModel) Model() string { return "sonar" }

// recordingTasks remembers scheduled task names without running them.
type recordingTasks struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingTasks) Go(_ context.Context, name string, _ background.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
}

func (r *recordingTasks) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.names...)
}

func newTestAPI(d Deps) *API {
	if d.Accounts == nil {
		d.Accounts = &fakeAccounts{}
	}
	d.Logger = logging.Discard()
	return New(d)
}

// do sends an authenticated request through the full router.
func do(t *testing.T, a *API, method, target string, body io.Reader, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	a.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return m
}
