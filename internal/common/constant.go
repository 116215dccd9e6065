package common

// AuthorizationHeaderName carries "Bearer <access token>" on API requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName is echoed back on every response.
const RequestIDHeaderName = "X-Request-ID"

// DefaultSessionCookieName holds the access token for browser clients.
const DefaultSessionCookieName = "hub_session"
