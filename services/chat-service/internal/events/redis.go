// Package events delivers chat events to users over Redis pub/sub.
// Every user has one channel; all of their WebSocket connections subscribe to it.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/genzone/backend/services/chat-service/internal/models"
	"github.com/go-redis/redis/v8"
)

// UserChannel is the Redis channel carrying events for a user
func UserChannel(userID int) string {
	return fmt.Sprintf("chat:user:%d", userID)
}

// Subscription streams the raw event payloads of one user channel
type Subscription interface {
	Payloads() <-chan []byte
	Close() error
}

// RedisBroker publishes and subscribes to user channels
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker creates a new Redis broker
func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

// Publish sends an event to the channel of userID
func (b *RedisBroker) Publish(ctx context.Context, userID int, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the channel of userID. It returns once Redis has confirmed the subscription.
func (b *RedisBroker) Subscribe(ctx context.Context, userID int) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, UserChannel(userID))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	sub := &redisSubscription{
		pubsub:   pubsub,
		payloads: make(chan []byte),
		done:     make(chan struct{}),
	}
	go sub.forward()
	return sub, nil
}

type redisSubscription struct {
	pubsub    *redis.PubSub
	payloads  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// forward converts Redis messages to payloads until the subscription is closed
func (s *redisSubscription) forward() {
	defer close(s.payloads)
	for msg := range s.pubsub.Channel() {
		select {
		case s.payloads <- []byte(msg.Payload):
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Payloads() <-chan []byte {
	return s.payloads
}

func (s *redisSubscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.pubsub.Close()
	})
	return err
}
