package httpapi

import (
	"errors"
	"net/http"

	"github.com/hubpessoal/hub/internal/common"
	"github.com/hubpessoal/hub/internal/server/services"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	u, err := a.Accounts.Register(r.Context(), in.Email, in.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, userResponse{ID: u.ID, Email: u.Email})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	pair, err := a.Accounts.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.issue(w, pair)
}

func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}
	if in.RefreshToken == "" {
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	pair, err := a.Accounts.RefreshToken(r.Context(), in.RefreshToken)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.issue(w, pair)
}

// logout always clears the cookie; an unknown refresh token is not an error.
func (a *API) logout(w http.ResponseWriter, r *http.Request) {
	var in refreshRequest
	if err := decode(r, &in); err != nil {
		a.fail(w, r, err)
		return
	}

	if in.RefreshToken != "" {
		if err := a.Accounts.Logout(r.Context(), in.RefreshToken); err != nil && !errors.Is(err, common.ErrorNotFound) {
			a.fail(w, r, err)
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeOK(w)
}

func (a *API) issue(w http.ResponseWriter, pair *services.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName(),
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(a.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   a.SessionCookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	writeData(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}
