// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-studio/internal/platform/request"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the /auth endpoints.
type Handler struct {
	service *Service

	// secureCookies is off only for plain-HTTP development servers.
	secureCookies bool
}

// NewHandler constructs an auth [Handler].
func NewHandler(service *Service, secureCookies bool) *Handler {
	return &Handler{service: service, secureCookies: secureCookies}
}

// Routes returns the /auth router.
//
// # Endpoints
//   - POST /login   : Issues an access token and sets the refresh cookie.
//   - POST /refresh : Rotates the refresh token.
//   - POST /logout  : Revokes the session and clears the cookie.
//   - GET  /me      : Bootstraps the signed-in member.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/me", handler.me)
	})

	return router
}

/*
POST /api/v1/auth/login.

Request:
  - Body: LoginInput (login, password)

Response:
  - 200: Tokens (refresh token in an HttpOnly cookie)
  - 401: Invalid credentials
  - 403: Deactivated account
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tokens, err := handler.service.Login(request.Context(), input, clientMeta(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, tokens)
	respond.OK(writer, tokens)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

/*
POST /api/v1/auth/refresh.

Description: Reads the refresh token from the cookie, or from the body for
clients without a cookie jar.
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token := refreshTokenFrom(writer, request)

	tokens, err := handler.service.Refresh(request.Context(), token, clientMeta(request))
	if err != nil {
		handler.clearRefreshCookie(writer)
		respond.Error(writer, request, err)
		return
	}

	handler.setRefreshCookie(writer, tokens)
	respond.OK(writer, tokens)
}

// POST /api/v1/auth/logout. Always succeeds.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Logout(request.Context(), refreshTokenFrom(writer, request)); err != nil {
		respond.Error(writer, request, err)
		return
	}
	handler.clearRefreshCookie(writer)
	respond.NoContent(writer)
}

/*
GET /api/v1/auth/me.

Response:
  - 200: Profile with the serving tier
  - 401: Account no longer exists
  - 403: Account deactivated
  - 503: Every tier failed within the budget
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.service.Me(request.Context(), claims)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, profile)
}

// # Helpers

func (handler *Handler) setRefreshCookie(writer http.ResponseWriter, tokens *Tokens) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    tokens.RefreshToken,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  tokens.RefreshTokenExpiresAt,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (handler *Handler) clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   handler.secureCookies,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func refreshTokenFrom(writer http.ResponseWriter, request *http.Request) string {
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var body refreshRequest
	if request.ContentLength != 0 && requestutil.DecodeJSON(writer, request, &body) == nil {
		return strings.TrimSpace(body.RefreshToken)
	}
	return ""
}

func clientMeta(request *http.Request) ClientMeta {
	return ClientMeta{
		DeviceName: request.Header.Get("X-Device-Name"),
		IPAddress:  middleware.RealIP(request),
		UserAgent:  request.UserAgent(),
	}
}
