package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/logging"
	"github.com/hubpessoal/hub/internal/server/finance"
	"github.com/hubpessoal/hub/internal/server/models"
	"github.com/hubpessoal/hub/internal/server/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSetsSessionCookie(t *testing.T) {
	acc := &fakeAccounts{loginPair: &services.TokenPair{AccessToken: "acc", RefreshToken: "ref"}}
	a := newTestAPI(Deps{Accounts: acc, SessionMaxAge: time.Hour})

	rec := do(t, a, http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c","password":"secret123"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "acc", data["access_token"])
	assert.Equal(t, "ref", data["refresh_token"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, common.DefaultSessionCookieName, cookies[0].Name)
	assert.Equal(t, "acc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)
}

func TestLoginFailureIsUnauthorized(t *testing.T) {
	a := newTestAPI(Deps{Accounts: &fakeAccounts{loginErr: common.ErrorUnauthorized}})

	rec := do(t, a, http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"a@b.c","password":"x"}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, msgUnauthorized, decodeBody(t, rec)["error"])
}

func TestRegisterValidation(t *testing.T) {
	a := newTestAPI(Deps{Accounts: &fakeAccounts{registerErr: common.NewValidationError("email already registered")}})

	rec := do(t, a, http.MethodPost, "/api/auth/register", strings.NewReader(`{"email":"a@b.c","password":"secret123"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email already registered", decodeBody(t, rec)["error"])
}

func TestLogoutRevokesAndClearsCookie(t *testing.T) {
	acc := &fakeAccounts{}
	a := newTestAPI(Deps{Accounts: acc})

	rec := do(t, a, http.MethodPost, "/api/auth/logout", strings.NewReader(`{"refresh_token":"ref"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ref"}, acc.loggedOut)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestMalformedJSONIsBadRequest(t *testing.T) {
	led := &fakeLedger{}
	a := newTestAPI(Deps{Ledger: led})

	rec := do(t, a, http.MethodPost, "/api/finances", strings.NewReader(`{"title":`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, led.added)
}

func TestAddTransactionAcceptsNumericAndTextAmounts(t *testing.T) {
	led := &fakeLedger{}
	a := newTestAPI(Deps{Ledger: led})

	for _, body := range []string{
		`{"title":"Mercado","amount":1234.5,"type":"expense","category":"Casa","date":"2024-03-10"}`,
		`{"title":"Mercado","amount":"1.234,50","type":"expense","category":"Casa","date":"2024-03-10"}`,
	} {
		rec := do(t, a, http.MethodPost, "/api/finances", strings.NewReader(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	require.Len(t, led.added, 2)
	assert.Equal(t, "1234.5", led.added[0].Amount)
	assert.Equal(t, "1.234,50", led.added[1].Amount)
	assert.Equal(t, "expense", led.added[0].Kind)
	assert.Equal(t, testUser, led.lastOwner)
}

func TestListTransactionsDefaultsToCurrentMonth(t *testing.T) {
	led := &fakeLedger{summary: &finance.Summary{Income: decimal.RequireFromString("10.50")}}
	a := newTestAPI(Deps{Ledger: led})
	a.now = func() time.Time { return time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC) }

	rec := do(t, a, http.MethodGet, "/api/finances", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2024, led.year)
	assert.Equal(t, 2, led.month)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "10.5", body["data"].(map[string]any)["income"])

	rec = do(t, a, http.MethodGet, "/api/finances/summary?year=2023&month=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2023, led.year)
	assert.Equal(t, 12, led.month)

	rec = do(t, a, http.MethodGet, "/api/finances?month=dez", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteWithMalformedIDSucceedsWithoutTouchingStorage(t *testing.T) {
	led := &fakeLedger{}
	notes := &fakeNotes{}
	a := newTestAPI(Deps{Ledger: led, Notes: notes})

	rec := do(t, a, http.MethodDelete, "/api/finances/not-a-uuid", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, a, http.MethodDelete, "/api/notes/42", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, led.deleted)
	assert.Empty(t, notes.deleted)
}

func TestTogglePinUnknownNote(t *testing.T) {
	a := newTestAPI(Deps{Notes: &fakeNotes{err: common.ErrorNotFound}})

	rec := do(t, a, http.MethodPost, "/api/notes/"+someID+"/pin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, a, http.MethodPost, "/api/notes/bad/pin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveNotePassesRawContent(t *testing.T) {
	notes := &fakeNotes{}
	a := newTestAPI(Deps{Notes: notes})

	rec := do(t, a, http.MethodPost, "/api/notes", strings.NewReader(`{"title":"Ideias","type":"board","content":{"nodes":[],"edges":[]}}`))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notes.saved, 1)
	assert.Equal(t, "board", notes.saved[0].Kind)
	assert.JSONEq(t, `{"nodes":[],"edges":[]}`, string(notes.saved[0].Content))
}

func TestInternalErrorsDoNotLeak(t *testing.T) {
	a := newTestAPI(Deps{Notes: &fakeNotes{err: errors.New("pq: relation notes does not exist")}})

	rec := do(t, a, http.MethodGet, "/api/notes", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, decodeBody(t, rec)["error"])
	assert.NotContains(t, rec.Body.String(), "relation")
}

func multipartBody(t *testing.T, contentType, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="file"; filename="Duna.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadEbook(t *testing.T) {
	eb := &fakeEbooks{}
	a := newTestAPI(Deps{Ebooks: eb, MaxUploadBytes: 1 << 20})

	body, ct := multipartBody(t, "application/pdf", "%PDF-1.7", map[string]string{"author": "Frank Herbert"})
	rec := do(t, a, http.MethodPost, "/api/ebooks/upload", body, "Content-Type", ct)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, eb.uploads, 1)
	up := eb.uploads[0]
	assert.Equal(t, "Duna.pdf", up.FileName)
	assert.Equal(t, "application/pdf", up.ContentType)
	assert.Equal(t, int64(8), up.Size)
	assert.Equal(t, "Frank Herbert", up.Author)
	assert.Equal(t, "%PDF-1.7", eb.bodies[0])
}

func TestUploadEbookWithoutFile(t *testing.T) {
	eb := &fakeEbooks{}
	a := newTestAPI(Deps{Ebooks: eb})

	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	require.NoError(t, mw.WriteField("title", "x"))
	require.NoError(t, mw.Close())

	rec := do(t, a, http.MethodPost, "/api/ebooks/upload", buf, "Content-Type", mw.FormDataContentType())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, eb.uploads)
}

func TestUploadEbookTooLarge(t *testing.T) {
	eb := &fakeEbooks{}
	a := newTestAPI(Deps{Ebooks: eb, MaxUploadBytes: 64})

	body, ct := multipartBody(t, "application/pdf", strings.Repeat("x", 1024), nil)
	rec := do(t, a, http.MethodPost, "/api/ebooks/upload", body, "Content-Type", ct)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Empty(t, eb.uploads)
}

func TestStreamEbookHeaders(t *testing.T) {
	eb := &fakeEbooks{
		book:    &models.Ebook{ID: someID, Title: "Duna", FileType: models.EbookEPUB},
		content: "PK\x03\x04 epub bytes",
	}
	a := newTestAPI(Deps{Ebooks: eb})

	rec := do(t, a, http.MethodGet, "/api/ebooks/"+someID+"/stream", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/epub+zip", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename=Duna.epub`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, eb.content, rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestStreamForeignEbookIsNotFound(t *testing.T) {
	a := newTestAPI(Deps{Ebooks: &fakeEbooks{openErr: common.ErrorNotFound}})

	rec := do(t, a, http.MethodGet, "/api/ebooks/"+someID+"/stream", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func newChatAPI(model *fakeChatModel, tasks *recordingTasks) *API {
	chat := services.NewChatService(nil, nil, model, tasks, logging.Discard())
	return newTestAPI(Deps{Chat: chat})
}

func TestChatStreamsChunksAndSchedulesSave(t *testing.T) {
	stream := &fakeChatStream{chunks: []string{"Olá", "", ", mundo"}, end: io.EOF}
	tasks := &recordingTasks{}
	a := newChatAPI(&fakeChatModel{stream: stream}, tasks)

	rec := do(t, a, http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"role":"user","content":"oi"}]}`))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "Olá, mundo", rec.Body.String())
	assert.True(t, rec.Flushed)
	assert.True(t, stream.closed)
	assert.Equal(t, []string{"chat.persist"}, tasks.Names())
}

func TestChatUpstreamErrorBeforeFirstByte(t *testing.T) {
	tasks := &recordingTasks{}
	a := newChatAPI(&fakeChatModel{err: &common.UpstreamError{Service: "llm", StatusCode: 503}}, tasks)

	rec := do(t, a, http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"content":"oi"}]}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, msgInternal, decodeBody(t, rec)["error"])
	assert.Empty(t, tasks.Names())
}

func TestChatFirstReadFailsIsJSONError(t *testing.T) {
	tasks := &recordingTasks{}
	stream := &fakeChatStream{end: common.ErrorUpstream}
	a := newChatAPI(&fakeChatModel{stream: stream}, tasks)

	rec := do(t, a, http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"content":"oi"}]}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, tasks.Names())
}

func TestChatMidStreamFailureAborts(t *testing.T) {
	tasks := &recordingTasks{}
	stream := &fakeChatStream{chunks: []string{"parcial"}, end: io.ErrUnexpectedEOF}
	a := newChatAPI(&fakeChatModel{stream: stream}, tasks)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"content":"oi"}]}`))
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		a.Router().ServeHTTP(rec, req)
	})
	assert.Equal(t, "parcial", rec.Body.String())
	assert.True(t, stream.closed)
	assert.Empty(t, tasks.Names())
}

func TestChatClientGoneSavesNothing(t *testing.T) {
	tasks := &recordingTasks{}
	stream := &fakeChatStream{chunks: []string{"a"}, end: context.Canceled}
	a := newChatAPI(&fakeChatModel{stream: stream}, tasks)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[{"content":"oi"}]}`)).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() { a.Router().ServeHTTP(rec, req) })
	assert.Empty(t, tasks.Names())
}

func TestChatRequiresMessages(t *testing.T) {
	a := newChatAPI(&fakeChatModel{}, &recordingTasks{})

	rec := do(t, a, http.MethodPost, "/api/ai/chat", strings.NewReader(`{"messages":[]}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "messages are required", decodeBody(t, rec)["error"])
}

func TestSpotifySearch(t *testing.T) {
	music := &fakeMusic{data: []byte(`{"tracks":{"items":[]}}`)}
	a := newTestAPI(Deps{Music: music})

	rec := do(t, a, http.MethodGet, "/api/integrations/spotify/search?q=bossa&type=album&limit=7", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bossa", music.params.Query)
	assert.Equal(t, "album", music.params.Type)
	assert.Equal(t, 7, music.params.Limit)
	assert.JSONEq(t, `{"success":true,"data":{"tracks":{"items":[]}}}`, rec.Body.String())
}

func TestSpotifyUpstreamStatusPassesThrough(t *testing.T) {
	a := newTestAPI(Deps{Music: &fakeMusic{err: &common.UpstreamError{Service: "spotify", StatusCode: http.StatusTooManyRequests}}})

	rec := do(t, a, http.MethodGet, "/api/integrations/spotify/search?q=x", nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "music search failed", decodeBody(t, rec)["error"])
}

func TestSpotifyNotConfigured(t *testing.T) {
	a := newTestAPI(Deps{Music: &fakeMusic{err: common.ErrorNotConfigured}})

	rec := do(t, a, http.MethodGet, "/api/integrations/spotify/search?q=x", nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	rec := do(t, newTestAPI(Deps{DB: fakePinger{}}), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, newTestAPI(Deps{DB: fakePinger{err: errBoom}}), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	rec := do(t, newTestAPI(Deps{}), http.MethodGet, "/api/nothing-here", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgNotFound, decodeBody(t, rec)["error"])
}
