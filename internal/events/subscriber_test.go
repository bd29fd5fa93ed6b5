// ABOUTME: Tests for the push channel subscriber
// ABOUTME: Covers ordered delivery, handler swaps, idempotent unsubscribe, and error close

package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2389/genia/internal/api"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

// pipeSource hands out one io.Pipe per OpenEvents call.
type pipeSource struct {
	mu     sync.Mutex
	opens  int
	err    error
	opened chan *io.PipeWriter
}

func newPipeSource() *pipeSource {
	return &pipeSource{opened: make(chan *io.PipeWriter, 8)}
}

func (p *pipeSource) OpenEvents(_ context.Context) (io.ReadCloser, error) {
	p.mu.Lock()
	p.opens++
	err := p.err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	p.opened <- pw
	return pr, nil
}

func (p *pipeSource) openCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}

func (p *pipeSource) next(t *testing.T) *io.PipeWriter {
	t.Helper()
	select {
	case pw := <-p.opened:
		return pw
	case <-time.After(time.Second):
		t.Fatal("connection was never opened")
		return nil
	}
}

func writeEvent(t *testing.T, w io.Writer, data string) {
	t.Helper()
	_, err := fmt.Fprintf(w, "data: %s\n\n", data)
	require.NoError(t, err)
}

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestSubscriber_DeliversInArrivalOrder(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	got := make(chan Event, 10)
	unsubscribe := sub.Subscribe(t.Context(), func(ev Event) { got <- ev })
	defer unsubscribe()

	pw := src.next(t)
	for _, d := range []string{"one", "two", "three"} {
		writeEvent(t, pw, d)
	}

	assert.Equal(t, "one", receive(t, got).Data)
	assert.Equal(t, "two", receive(t, got).Data)
	assert.Equal(t, "three", receive(t, got).Data)
	assert.True(t, sub.Connected())
}

func TestSubscriber_SetHandlerKeepsConnection(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	first := make(chan Event, 1)
	second := make(chan Event, 1)

	unsubscribe := sub.Subscribe(t.Context(), func(ev Event) { first <- ev })
	defer unsubscribe()
	pw := src.next(t)

	writeEvent(t, pw, "a")
	assert.Equal(t, "a", receive(t, first).Data)

	sub.SetHandler(func(ev Event) { second <- ev })
	writeEvent(t, pw, "b")

	assert.Equal(t, "b", receive(t, second).Data)
	assert.Empty(t, first)
	assert.Equal(t, 1, src.openCount(), "swapping the handler must not reconnect")
}

func TestSubscriber_UnsubscribeIsIdempotent(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	unsubscribe := sub.Subscribe(t.Context(), func(Event) {})
	pw := src.next(t)

	unsubscribe()
	unsubscribe()

	// The reader side is closed, so writes fail.
	_, err := pw.Write([]byte("data: x\n\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.False(t, sub.Connected())
	assert.Equal(t, 1, src.openCount())
}

func TestSubscriber_ErrorClosesWithoutReconnect(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	errs := make(chan error, 1)
	sub.OnError(func(err error) { errs <- err })

	unsubscribe := sub.Subscribe(t.Context(), func(Event) {})
	pw := src.next(t)
	pw.CloseWithError(errors.New("connection reset"))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrChannel)
	case <-time.After(time.Second):
		t.Fatal("expected channel error")
	}

	assert.False(t, sub.Connected())

	// Unsubscribing after the channel closed itself is safe and does not reopen.
	unsubscribe()
	unsubscribe()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, src.openCount())
}

func TestSubscriber_ServerEndingStreamIsChannelError(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	errs := make(chan error, 1)
	sub.OnError(func(err error) { errs <- err })

	unsubscribe := sub.Subscribe(t.Context(), func(Event) {})
	defer unsubscribe()
	src.next(t).Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrChannel)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	case <-time.After(time.Second):
		t.Fatal("expected channel error")
	}
}

func TestSubscriber_ConnectFailure(t *testing.T) {
	src := newPipeSource()
	src.err = fmt.Errorf("opening event stream: %w", api.ErrServiceUnavailable)
	sub := NewSubscriber(src, nil)

	errs := make(chan error, 1)
	sub.OnError(func(err error) { errs <- err })

	unsubscribe := sub.Subscribe(t.Context(), func(Event) {})
	defer unsubscribe()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrChannel)
		assert.ErrorIs(t, err, api.ErrServiceUnavailable)
	case <-time.After(time.Second):
		t.Fatal("expected channel error")
	}
}

func TestSubscriber_ResubscribeReplacesConnection(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	got := make(chan Event, 4)
	unsubFirst := sub.Subscribe(t.Context(), func(ev Event) { got <- ev })
	oldPW := src.next(t)

	unsubSecond := sub.Subscribe(t.Context(), nil)
	defer unsubSecond()
	newPW := src.next(t)

	_, err := oldPW.Write([]byte("data: stale\n\n"))
	assert.ErrorIs(t, err, io.ErrClosedPipe, "old connection must be closed")

	// A stale unsubscribe must not close the replacement.
	unsubFirst()

	writeEvent(t, newPW, "fresh")
	assert.Equal(t, "fresh", receive(t, got).Data)
	assert.Equal(t, 2, src.openCount())
}

func TestSubscriber_ContextCancelCloses(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sub.Subscribe(ctx, func(Event) {})
	pw := src.next(t)

	cancel()

	require.Eventually(t, func() bool {
		_, err := pw.Write([]byte("data: x\n\n"))
		return errors.Is(err, io.ErrClosedPipe)
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return !sub.Connected() }, time.Second, 10*time.Millisecond)
}

func TestSubscriber_NoHandlerDropsWithoutPanic(t *testing.T) {
	src := newPipeSource()
	sub := NewSubscriber(src, nil)

	unsubscribe := sub.Subscribe(t.Context(), nil)
	defer unsubscribe()

	pw := src.next(t)
	writeEvent(t, pw, "orphan")

	got := make(chan Event, 1)
	sub.SetHandler(func(ev Event) { got <- ev })
	writeEvent(t, pw, "adopted")

	assert.Equal(t, "adopted", receive(t, got).Data)
}

func TestSubscriber_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprint(w, "event: todos\ndata: changed\n\n")
		flusher.Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	client, err := api.New(api.Options{BaseURL: srv.URL})
	require.NoError(t, err)

	sub := NewSubscriber(client, nil)
	got := make(chan Event, 1)
	unsubscribe := sub.Subscribe(t.Context(), func(ev Event) { got <- ev })

	ev := receive(t, got)
	assert.Equal(t, "todos", ev.Type)
	assert.Equal(t, "changed", ev.Data)

	unsubscribe()
	require.Eventually(t, func() bool { return !sub.Connected() }, time.Second, 10*time.Millisecond)
}
