// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

// TokenVerifier checks an access token and returns its claims.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// PermissionChecker resolves a single capability for a user.
//
// The permission engine satisfies it; middleware never sees role defaults or
// overrides directly.
type PermissionChecker interface {
	Check(context context.Context, userID string, role sec.UserRole, permission sec.Permission) bool
}

/*
Authenticate verifies the bearer token of a request, if any.

Requests without an Authorization header continue anonymously. A malformed
header or a token that fails verification ends the request with 401; an
expired token gets its own message so clients know to refresh.
*/
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)
			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !found || !strings.EqualFold(scheme, "bearer") || token == "" || strings.Contains(token, " ") {
				respond.Error(writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			claims, err := verifier.VerifyToken(token)
			switch {
			case errors.Is(err, sec.ErrTokenExpired):
				respond.Error(writer, request, apperr.Unauthorized("Access token expired"))
				return
			case err != nil:
				respond.Error(writer, request, apperr.Unauthorized("Invalid or expired token"))
				return
			}

			noteUser(request.Context(), claims.UserID)
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// RequireAuth blocks anonymous requests. Mount it after [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if _, ok := authenticated(writer, request); ok {
			next.ServeHTTP(writer, request)
		}
	})
}

// RequirePermission blocks requests unless the effective permission set of the
// caller grants permission. It implies [RequireAuth].
func RequirePermission(checker PermissionChecker, permission sec.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims, ok := authenticated(writer, request)
			if !ok {
				return
			}

			if !checker.Check(request.Context(), claims.UserID, claims.StaffRole(), permission) {
				ctxutil.GetLogger(request.Context()).InfoContext(request.Context(), "permission_denied",
					slog.String("user_id", claims.UserID),
					slog.String("permission", string(permission)),
				)
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// authenticated returns the caller's claims, answering 401 when there are none.
func authenticated(writer http.ResponseWriter, request *http.Request) (*sec.AuthClaims, bool) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return nil, false
	}
	return claims, true
}
