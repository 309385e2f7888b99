// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package events

import (
	"context"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Broker moves raw messages between API instances.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error

	// Listen blocks, calling deliver for each message on a channel matching pattern,
	// until ctx is cancelled.
	Listen(ctx context.Context, pattern string, deliver func(channel string, payload []byte)) error
}

// # Redis

// RedisBroker uses Redis pub/sub.
type RedisBroker struct {
	client redis.UniversalClient
}

// NewRedisBroker wraps a go-redis client.
func NewRedisBroker(client redis.UniversalClient) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish implements [Broker].
func (broker *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return broker.client.Publish(ctx, channel, payload).Err()
}

// Listen implements [Broker].
func (broker *RedisBroker) Listen(ctx context.Context, pattern string, deliver func(channel string, payload []byte)) error {
	pubsub := broker.client.PSubscribe(ctx, pattern)
	defer pubsub.Close()

	// Wait for the subscription confirmation so no message published after
	// Listen returns control is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok {
				return nil
			}
			deliver(message.Channel, []byte(message.Payload))
		}
	}
}

// # In-Process

// MemoryBroker delivers messages inside one process. It backs tests and
// single-instance development runs.
type MemoryBroker struct {
	mu        sync.RWMutex
	listeners map[int]memoryListener
	next      int
}

type memoryListener struct {
	prefix  string
	deliver func(channel string, payload []byte)
}

// NewMemoryBroker creates an empty in-process broker.
func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{listeners: make(map[int]memoryListener)}
}

// Publish implements [Broker].
func (broker *MemoryBroker) Publish(_ context.Context, channel string, payload []byte) error {
	broker.mu.RLock()
	defer broker.mu.RUnlock()
	for _, listener := range broker.listeners {
		if strings.HasPrefix(channel, listener.prefix) {
			listener.deliver(channel, payload)
		}
	}
	return nil
}

// Listen implements [Broker]. Only trailing '*' patterns are supported.
func (broker *MemoryBroker) Listen(ctx context.Context, pattern string, deliver func(channel string, payload []byte)) error {
	broker.mu.Lock()
	id := broker.next
	broker.next++
	broker.listeners[id] = memoryListener{prefix: strings.TrimSuffix(pattern, "*"), deliver: deliver}
	broker.mu.Unlock()

	<-ctx.Done()

	broker.mu.Lock()
	delete(broker.listeners, id)
	broker.mu.Unlock()
	return nil
}

// Listening reports how many listeners are attached.
func (broker *MemoryBroker) Listening() int {
	broker.mu.RLock()
	defer broker.mu.RUnlock()
	return len(broker.listeners)
}
