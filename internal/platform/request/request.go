// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request reads route parameters, JSON bodies and the verified caller
out of an incoming request.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
	"github.com/taibuivan/yomira-studio/internal/platform/validate"
)

// MaxBodyBytes bounds every JSON body. Batch finalize is the largest payload.
const MaxBodyBytes = 1 << 20

/*
DecodeJSON decodes the body into target.

Returns:
  - error: validate.ErrBodyTooLarge past MaxBodyBytes, validate.ErrInvalidJSON
    for malformed or trailing content
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(writer, request.Body, MaxBodyBytes))

	if err := decoder.Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return validate.ErrBodyTooLarge
		}
		return validate.ErrInvalidJSON
	}
	if decoder.More() {
		return validate.ErrInvalidJSON
	}
	return nil
}

// ID returns the trimmed route parameter name.
func ID(request *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(request, name))
}

// Param returns the raw route parameter name.
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// RequiredClaims returns the verified caller, or 401 for anonymous requests.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}
	return claims, nil
}

// RequiredUserID is [RequiredClaims] narrowed to the user ID.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
