// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-studio/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-studio/internal/platform/events"
	"github.com/taibuivan/yomira-studio/internal/platform/sec"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func startHub(t *testing.T) *events.Hub {
	t.Helper()
	broker := events.NewMemoryBroker()
	hub := events.NewHub(broker, discard, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Run(ctx) }()

	require.Eventually(t, func() bool { return broker.Listening() == 1 }, time.Second, 5*time.Millisecond)
	return hub
}

/*
TestHub_PublishSubscribe routes events by topic through the broker.
*/
func TestHub_PublishSubscribe(t *testing.T) {
	hub := startHub(t)

	assignments, cancelAssignments := hub.Subscribe(events.TopicAssignments)
	defer cancelAssignments()
	permissions, cancelPermissions := hub.Subscribe(events.PermissionsTopic("u-1"))
	defer cancelPermissions()

	require.NoError(t, hub.Publish(context.Background(), events.TopicAssignments, "assignment_approved", map[string]string{"id": "a-1"}))

	select {
	case event := <-assignments:
		assert.Equal(t, "assignment_approved", event.Type)
		var payload map[string]string
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, "a-1", payload["id"])
	case <-time.After(time.Second):
		t.Fatal("assignment event not delivered")
	}

	select {
	case event := <-permissions:
		t.Fatalf("unexpected event on permission topic: %+v", event)
	default:
	}
}

/*
TestHub_Cancel detaches the subscriber and is safe to call twice.
*/
func TestHub_Cancel(t *testing.T) {
	hub := events.NewHub(events.NewMemoryBroker(), discard, nil)

	stream, cancel := hub.Subscribe(events.TopicMangas, events.TopicUsers)
	assert.Equal(t, 1, hub.Subscribers(events.TopicMangas))

	cancel()
	cancel()

	_, open := <-stream
	assert.False(t, open)
	assert.Equal(t, 0, hub.Subscribers(events.TopicMangas))
	assert.Equal(t, 0, hub.Subscribers(events.TopicUsers))
}

/*
TestHub_SlowSubscriberDoesNotBlock drops events for a full buffer.
*/
func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := events.NewHub(events.NewMemoryBroker(), discard, nil)
	_, cancel := hub.Subscribe(events.TopicUploads)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			hub.Dispatch(events.Event{Topic: events.TopicUploads, Type: "tick"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a slow subscriber")
	}
}

/*
TestStreamHandler writes Server-Sent Events for the requested topics.
*/
func TestStreamHandler(t *testing.T) {
	hub := events.NewHub(events.NewMemoryBroker(), discard, nil)
	handler := events.NewStreamHandler(hub)

	t.Run("anonymous_rejected", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/events", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("unknown_topic", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodGet, "/events?topics=secrets", nil)
		request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "u-1"}))
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("streams_events", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		request := httptest.NewRequest(http.MethodGet, "/events?topics=assignments,permissions", nil)
		request = request.WithContext(ctxutil.WithAuthUser(ctx, &sec.AuthClaims{UserID: "u-1"}))
		recorder := httptest.NewRecorder()

		finished := make(chan struct{})
		go func() {
			handler.ServeHTTP(recorder, request)
			close(finished)
		}()

		require.Eventually(t, func() bool {
			return hub.Subscribers(events.PermissionsTopic("u-1")) == 1
		}, time.Second, 5*time.Millisecond)

		hub.Dispatch(events.Event{Topic: events.PermissionsTopic("u-1"), Type: "permissions_changed"})

		require.Eventually(t, func() bool {
			return hub.Subscribers(events.TopicAssignments) == 1
		}, time.Second, 5*time.Millisecond)

		time.Sleep(20 * time.Millisecond)
		cancel()
		<-finished

		body := recorder.Body.String()
		assert.Equal(t, "text/event-stream", recorder.Header().Get("Content-Type"))
		assert.True(t, strings.Contains(body, "event: permissions_changed"), body)
	})
}
