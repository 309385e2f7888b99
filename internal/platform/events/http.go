// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/apperr"
	"github.com/taibuivan/yomira-studio/internal/platform/constants"
	"github.com/taibuivan/yomira-studio/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-studio/internal/platform/respond"
)

// publicTopics may be requested by any authenticated user.
var publicTopics = map[string]bool{
	TopicAssignments: true,
	TopicMangas:      true,
	TopicUsers:       true,
	TopicUploads:     true,
}

// StreamHandler serves the live change feed as Server-Sent Events.
type StreamHandler struct {
	hub       *Hub
	heartbeat time.Duration
}

// NewStreamHandler creates the SSE endpoint handler.
func NewStreamHandler(hub *Hub) *StreamHandler {
	return &StreamHandler{hub: hub, heartbeat: constants.EventHeartbeatInterval}
}

// ServeHTTP streams events for ?topics=assignments,permissions.
// "permissions" is rewritten to the caller's own permission topic.
func (handler *StreamHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
		return
	}

	topics, err := resolveTopics(request.URL.Query().Get("topics"), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Middleware wrappers expose the connection through Unwrap.
	controller := http.NewResponseController(writer)

	// Streams outlive the server's write timeout.
	_ = controller.SetWriteDeadline(time.Time{})

	header := writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	writer.WriteHeader(http.StatusOK)
	if err := controller.Flush(); err != nil {
		ctxutil.GetLogger(request.Context()).Error("event_stream_unflushable", slog.Any("error", err))
		return
	}

	stream, cancel := handler.hub.Subscribe(topics...)
	defer cancel()

	logger := ctxutil.GetLogger(request.Context())
	logger.Info("event_stream_opened", slog.String("user_id", claims.UserID), slog.Any("topics", topics))

	ticker := time.NewTicker(handler.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-request.Context().Done():
			logger.Info("event_stream_closed", slog.String("user_id", claims.UserID))
			return

		case <-ticker.C:
			if _, err := fmt.Fprint(writer, ": ping\n\n"); err != nil {
				return
			}
			_ = controller.Flush()

		case event, ok := <-stream:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", event.Type, data); err != nil {
				return
			}
			_ = controller.Flush()
		}
	}
}

// resolveTopics validates the requested topic list.
func resolveTopics(raw, userID string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{TopicAssignments, PermissionsTopic(userID)}, nil
	}

	seen := make(map[string]bool)
	topics := make([]string, 0, 4)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		switch {
		case name == "":
			continue
		case name == "permissions":
			name = PermissionsTopic(userID)
		case !publicTopics[name]:
			return nil, apperr.ValidationError("Unknown event topic", apperr.FieldError{Field: "topics", Message: name})
		}
		if !seen[name] {
			seen[name] = true
			topics = append(topics, name)
		}
	}
	return topics, nil
}
