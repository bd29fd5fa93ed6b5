// ABOUTME: Push channel subscriber holding one stable SSE connection per mount
// ABOUTME: Delivers events to the latest handler; closes on error without reconnecting

package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// ErrChannel wraps every failure that ends a subscription.
var ErrChannel = errors.New("push channel error")

// Handler receives events.
type Handler func(Event)

// Source opens the event stream. *api.Client satisfies it.
type Source interface {
	OpenEvents(ctx context.Context) (io.ReadCloser, error)
}

// Subscriber owns the push channel connection.
type Subscriber struct {
	source Source
	logger *slog.Logger

	// handler is the indirection cell holding the current callback.
	handler atomic.Pointer[Handler]
	onError atomic.Pointer[func(error)]

	subscribeMu sync.Mutex
	mu          sync.Mutex
	current     *connection
	nextID      uint64
}

// connection is one open (or opening) stream.
type connection struct {
	id        uint64
	cancel    context.CancelFunc
	done      chan struct{}
	connected atomic.Bool

	mu     sync.Mutex
	body   io.ReadCloser
	closed bool
}

// NewSubscriber creates a subscriber. Pass nil logger for default.
func NewSubscriber(source Source, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		source: source,
		logger: logger.With("component", "events"),
	}
}

// SetHandler replaces the callback. The connection is left as is.
func (s *Subscriber) SetHandler(h Handler) {
	if h == nil {
		s.handler.Store(nil)
		return
	}
	s.handler.Store(&h)
}

// OnError sets a hook called once when a subscription ends because of a
// channel failure. It is not called for unsubscribe or Close.
func (s *Subscriber) OnError(fn func(error)) {
	if fn == nil {
		s.onError.Store(nil)
		return
	}
	s.onError.Store(&fn)
}

// Subscribe opens the push channel and returns a function that closes it.
// It does not wait for the connection; events arrive later on a background
// goroutine. A previous connection is closed before the new one is opened.
// A non-nil h replaces the current handler. The returned function is
// idempotent and only ever closes the connection it was returned with.
// Cancelling ctx has the same effect as calling it.
func (s *Subscriber) Subscribe(ctx context.Context, h Handler) (unsubscribe func()) {
	if h != nil {
		s.SetHandler(h)
	}

	s.subscribeMu.Lock()
	defer s.subscribeMu.Unlock()

	s.mu.Lock()
	old := s.current
	s.current = nil
	s.mu.Unlock()

	if old != nil {
		s.logger.Debug("replacing subscription", "conn_id", old.id)
		old.close()
	}

	connCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.nextID++
	c := &connection{
		id:     s.nextID,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.current = c
	s.mu.Unlock()

	go s.run(connCtx, c)

	var once sync.Once
	return func() {
		once.Do(func() { s.release(c) })
	}
}

// Connected reports whether a stream is currently open.
func (s *Subscriber) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.connected.Load()
}

// Close tears down the current connection, if any.
func (s *Subscriber) Close() {
	s.mu.Lock()
	c := s.current
	s.mu.Unlock()

	if c != nil {
		s.release(c)
	}
}

// release closes c and forgets it if it is still current.
func (s *Subscriber) release(c *connection) {
	s.mu.Lock()
	if s.current == c {
		s.current = nil
	}
	s.mu.Unlock()

	if c.close() {
		s.logger.Debug("subscription closed", "conn_id", c.id)
	}
}

// run opens the stream and pumps events until it ends.
func (s *Subscriber) run(ctx context.Context, c *connection) {
	defer close(c.done)

	// Cancelling the caller's context closes the stream even when the
	// source's body does not watch the context itself.
	stop := context.AfterFunc(ctx, func() { c.close() })
	defer stop()

	body, err := s.source.OpenEvents(ctx)
	if err != nil {
		if ctx.Err() != nil || c.isClosed() {
			s.release(c)
			return
		}
		s.fail(c, err)
		return
	}

	if !c.attach(body) {
		// Unsubscribed while connecting.
		body.Close()
		return
	}

	c.connected.Store(true)
	s.logger.Info("push channel connected", "conn_id", c.id)

	dec := NewDecoder(body)
	for {
		ev, err := dec.Next()
		if err != nil {
			c.connected.Store(false)
			if c.isClosed() || ctx.Err() != nil {
				s.release(c)
				return
			}
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			s.fail(c, err)
			return
		}

		if c.isClosed() {
			return
		}
		s.deliver(c, ev)
	}
}

// deliver hands ev to the current handler.
func (s *Subscriber) deliver(c *connection, ev Event) {
	s.logger.Debug("received event",
		"conn_id", c.id,
		"type", ev.Type,
		"id", ev.ID,
		"data", ev.Data)

	h := s.handler.Load()
	if h == nil {
		s.logger.Warn("dropping event: no handler registered",
			"conn_id", c.id,
			"type", ev.Type)
		return
	}
	(*h)(ev)
}

// fail closes c after a channel failure and reports it. No reconnect is attempted.
func (s *Subscriber) fail(c *connection, cause error) {
	s.release(c)

	err := fmt.Errorf("%w: %w", ErrChannel, cause)
	s.logger.Error("push channel closed", "conn_id", c.id, "error", cause)

	if fn := s.onError.Load(); fn != nil {
		(*fn)(err)
	}
}

// attach records the open body. It returns false if the connection was
// already closed.
func (c *connection) attach(body io.ReadCloser) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.body = body
	return true
}

// close cancels the request and closes the body. It reports whether this
// call did the closing.
func (c *connection) close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	c.cancel()
	if c.body != nil {
		c.body.Close()
	}
	return true
}

func (c *connection) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
