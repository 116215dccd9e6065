package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hubpessoal/hub/internal/common"
	"golang.org/x/time/rate"
)

type ctxKey string

const (
	requestKey ctxKey = "request"
	userIDKey  ctxKey = "userID"
)

// requestInfo is shared between the outer logging middleware and the
// session guard, which fills in the user once it is known.
type requestInfo struct {
	id     string
	userID string
}

// UserID returns the caller resolved by RequireSession, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// RequestID returns the id assigned by the request middleware, or "".
func RequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.written {
		r.status = code
		r.written = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.written {
		r.status = http.StatusOK
		r.written = true
	}
	return r.ResponseWriter.Write(b)
}

// Flush keeps streaming responses streaming through the wrapper.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// observe assigns the request id, then logs and counts the request once it
// is done. A handler that aborts with http.ErrAbortHandler is still logged.
func (a *API) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := a.now()

		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		info := &requestInfo{id: id}
		r = r.WithContext(context.WithValue(r.Context(), requestKey, info))
		w.Header().Set(common.RequestIDHeaderName, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if a.Metrics != nil {
			a.Metrics.RequestStarted()
		}
		defer func() {
			if a.Metrics != nil {
				a.Metrics.RequestFinished()
			}
			route := routeName(r)
			elapsed := a.now().Sub(start)
			if a.Metrics != nil {
				a.Metrics.RecordHTTPRequest(r.Method, route, rec.status, elapsed)
			}
			a.log.Info(r.Context(), "request",
				"request_id", info.id,
				"method", r.Method,
				"route", route,
				"status", rec.status,
				"duration", elapsed,
				"user_id", info.userID,
			)
		}()

		next.ServeHTTP(rec, r)
	})
}

// RequireSession resolves the caller from a Bearer token or the session
// cookie. Anything else is a 401 and the handler never runs.
func (a *API) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie(a.cookieName()); err == nil {
				token = c.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		userID, err := a.Accounts.Authenticate(token)
		if err != nil || userID == "" {
			writeError(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}

		if info, ok := r.Context().Value(requestKey).(*requestInfo); ok {
			info.userID = userID
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *API) cookieName() string {
	if a.SessionCookieName != "" {
		return a.SessionCookieName
	}
	return common.DefaultSessionCookieName
}

// RateLimiter keeps one token bucket per user.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		now:      time.Now,
	}
}

// Allow spends one token from key's bucket.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

// Cleanup drops buckets not used for idle and returns how many went.
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	n := 0
	for k, e := range rl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limiters, k)
			n++
		}
	}
	return n
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

// rateLimited must run after RequireSession.
func (a *API) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Limiter != nil && !a.Limiter.Allow(UserID(r.Context())) {
			if a.Metrics != nil {
				a.Metrics.RecordRateLimited(routeName(r))
			}
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
