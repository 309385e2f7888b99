// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/middleware"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
)

// ClientConfig is the connection bootstrap handed to the front end.
type ClientConfig struct {
	APIBaseURL  string `json:"apiBaseUrl"`
	RealtimeURL string `json:"realtimeUrl"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
}

// ClientConfigRecorder counts served and refused requests.
type ClientConfigRecorder interface {
	ClientConfig(outcome string)
}

/*
NewClientConfigHandler serves GET /client-config and its legacy alias
/firebase-config.

Description: Only origins on the allow-list receive the payload. The
Access-Control-Allow-Origin header is always present and holds either the
validated origin or "null". Requests without an Origin header are refused.

Parameters:
  - policy: middleware.OriginPolicy
  - payload: ClientConfig
  - recorder: ClientConfigRecorder (may be nil)

Returns:
  - http.HandlerFunc
*/
func NewClientConfigHandler(policy middleware.OriginPolicy, payload ClientConfig, recorder ClientConfigRecorder) http.HandlerFunc {
	count := func(outcome string) {
		if recorder != nil {
			recorder.ClientConfig(outcome)
		}
	}

	return func(writer http.ResponseWriter, request *http.Request) {
		origin := request.Header.Get(constants.HeaderOrigin)
		header := writer.Header()
		header.Set("Cache-Control", "no-store")

		if origin == "" || !policy.OriginAllowed(origin) {
			header.Set("Access-Control-Allow-Origin", "null")
			count("refused")
			respond.Error(writer, request, apperr.Forbidden("Origin is not allowed"))
			return
		}

		header.Set("Access-Control-Allow-Origin", origin)
		count("served")
		respond.OK(writer, payload)
	}
}
