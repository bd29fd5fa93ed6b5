// ABOUTME: In-memory fan-out of push events to every connected stream
// ABOUTME: Backs the development server's /events endpoint

package broadcast

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// Message is one push event as written to the wire.
type Message struct {
	ID   string
	Type string
	Data string
}

// Broadcaster provides in-memory pub/sub for push events. Every subscriber
// receives every message published after it subscribed.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Message
	closed      bool
	logger      *slog.Logger
}

// New creates a broadcaster. Pass nil logger for default.
func New(logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Message),
		logger:      logger.With("component", "broadcaster"),
	}
}

// Subscribe registers a subscriber. It returns the receive channel and a
// subscription id. The subscription is removed when ctx is cancelled; the
// channel is closed on removal.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Message, string) {
	subID := uuid.New().String()
	ch := make(chan Message, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "sub_id", subID)

	context.AfterFunc(ctx, func() { b.Unsubscribe(subID) })

	return ch, subID
}

// Publish sends a message of the given type to all subscribers and returns
// the id assigned to it. Non-blocking: the message is dropped for
// subscribers whose channels are full.
func (b *Broadcaster) Publish(eventType, data string) string {
	msg := Message{ID: uuid.New().String(), Type: eventType, Data: data}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			b.logger.Debug("dropped event for slow subscriber",
				"sub_id", id,
				"event_id", msg.ID)
		}
	}
	return msg.ID
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", "sub_id", subID)
}

// Close closes all subscriber channels. Later subscriptions get a closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subID, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, subID)
	}
	b.closed = true

	b.logger.Debug("broadcaster closed")
}
