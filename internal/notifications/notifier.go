// Package notifications fans realtime events out to connected WebSocket clients.
// Publishers write to a Redis channel so every API instance delivers every event.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/redis/go-redis/v9"
)

// BroadcastChannel is the Redis channel every instance subscribes to.
const BroadcastChannel = "events:broadcast"

// EventType names a realtime event.
type EventType string

const (
	EventProblemCreated EventType = "problem_created"
	EventProblemDeleted EventType = "problem_deleted"
	EventAnswerCreated  EventType = "answer_created"
	EventAnswerAccepted EventType = "answer_accepted"
	EventVoteChanged    EventType = "vote_changed"
)

// Event is the JSON frame sent to clients.
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier publishes events into Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
// A nil client makes every publish a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish encodes an event and sends it to BroadcastChannel.
func (n *Notifier) Publish(ctx context.Context, eventType EventType, payload any) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(Event{Type: eventType, Payload: payload, Timestamp: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, BroadcastChannel, data).Err()
}

// StartSubscriber subscribes to BroadcastChannel and calls onMessage for each
// payload until ctx is cancelled.
func (n *Notifier) StartSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, BroadcastChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", BroadcastChannel, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in event subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
