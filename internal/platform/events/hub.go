// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events provides the live change feed of the studio.

Services publish small change notices (an assignment was approved, a user's
permission override changed) to a [Broker]. Every API instance listens to the
broker and fans the notices out to its local subscribers: Server-Sent Event
streams and in-process listeners such as the permission engine.

Subscribers must call the cancel function they receive. A subscriber that
falls behind loses events rather than blocking the publisher.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/yomira-studio/internal/platform/constants"
)

// # Topics

const (
	TopicAssignments = "assignments"
	TopicMangas      = "mangas"
	TopicUsers       = "users"
	TopicUploads     = "uploads"

	// topicPermissionsPrefix is followed by the user ID.
	topicPermissionsPrefix = "permissions:"
)

// PermissionsTopic returns the per-user permission topic.
func PermissionsTopic(userID string) string {
	return topicPermissionsPrefix + userID
}

// Event is one change notice.
type Event struct {
	Topic   string          `json:"topic"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// Publisher is the write side used by services.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any) error
}

// SubscriberGauge tracks the number of attached subscribers.
type SubscriberGauge interface {
	SubscriberDelta(delta int)
}

// # Hub

// Hub fans broker messages out to local subscribers.
type Hub struct {
	broker Broker
	logger *slog.Logger
	gauge  SubscriberGauge

	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// NewHub creates a hub on top of broker. gauge may be nil.
func NewHub(broker Broker, logger *slog.Logger, gauge SubscriberGauge) *Hub {
	return &Hub{
		broker: broker,
		logger: logger,
		gauge:  gauge,
		subs:   make(map[string]map[chan Event]struct{}),
	}
}

// Publish sends an event to every instance listening on the broker.
func (hub *Hub) Publish(ctx context.Context, topic, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}

	data, err := json.Marshal(Event{Topic: topic, Type: eventType, Payload: raw, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("events: encode event: %w", err)
	}

	if err := hub.broker.Publish(ctx, constants.RedisPrefixEvents+topic, data); err != nil {
		return fmt.Errorf("events: publish %s: %w", topic, err)
	}
	return nil
}

// Run listens on the broker until the context is cancelled.
func (hub *Hub) Run(ctx context.Context) error {
	hub.logger.Info("event_hub_started")
	defer hub.logger.Info("event_hub_stopped")

	return hub.broker.Listen(ctx, constants.RedisPrefixEvents+"*", func(channel string, payload []byte) {
		var event Event
		if err := json.Unmarshal(payload, &event); err != nil {
			hub.logger.Warn("event_decode_failed", slog.String("channel", channel), slog.Any("error", err))
			return
		}
		if event.Topic == "" {
			event.Topic = strings.TrimPrefix(channel, constants.RedisPrefixEvents)
		}
		hub.Dispatch(event)
	})
}

// Dispatch delivers event to the local subscribers of its topic.
func (hub *Hub) Dispatch(event Event) {
	hub.mu.RLock()
	defer hub.mu.RUnlock()

	for ch := range hub.subs[event.Topic] {
		select {
		case ch <- event:
		default:
			hub.logger.Warn("event_dropped_slow_subscriber", slog.String("topic", event.Topic))
		}
	}
}

// Subscribe attaches a listener to one or more topics.
// The returned cancel function detaches it and closes the channel.
func (hub *Hub) Subscribe(topics ...string) (<-chan Event, func()) {
	ch := make(chan Event, constants.EventBufferSize)

	hub.mu.Lock()
	for _, topic := range topics {
		if _, ok := hub.subs[topic]; !ok {
			hub.subs[topic] = make(map[chan Event]struct{})
		}
		hub.subs[topic][ch] = struct{}{}
	}
	hub.mu.Unlock()

	if hub.gauge != nil {
		hub.gauge.SubscriberDelta(1)
	}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			hub.mu.Lock()
			for _, topic := range topics {
				if set, ok := hub.subs[topic]; ok {
					delete(set, ch)
					if len(set) == 0 {
						delete(hub.subs, topic)
					}
				}
			}
			hub.mu.Unlock()
			close(ch)

			if hub.gauge != nil {
				hub.gauge.SubscriberDelta(-1)
			}
		})
	}
}

// Subscribers returns the number of listeners on topic.
func (hub *Hub) Subscribers(topic string) int {
	hub.mu.RLock()
	defer hub.mu.RUnlock()
	return len(hub.subs[topic])
}
