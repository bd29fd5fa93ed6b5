// ABOUTME: Session orchestrator owning pending state and routing send/upload intents
// ABOUTME: Enforces single-flight per intent kind and wires push events to the task list

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/events"
	"github.com/2389/genia/internal/ingest"
	"github.com/2389/genia/internal/transcript"
)

// Session errors
var (
	ErrSendInFlight = errors.New("an answer is already pending")
	ErrClosed       = errors.New("session closed")
)

// Asker runs one question/answer cycle. *answer.Pipeline satisfies it.
type Asker interface {
	Ask(ctx context.Context, question string) (transcript.Message, error)
}

// Ingestor uploads a selected document. *ingest.Coordinator satisfies it.
type Ingestor interface {
	Select(f ingest.File) error
	Upload(ctx context.Context) (*api.Ack, error)
}

// TaskList mirrors the server task list. *tasks.Synchronizer satisfies it.
type TaskList interface {
	Mount(ctx context.Context) ([]api.Task, error)
	HandleEvent(ev events.Event) bool
	Tasks() []api.Task
}

// EventChannel is the push channel. *events.Subscriber satisfies it.
type EventChannel interface {
	Subscribe(ctx context.Context, h events.Handler) (unsubscribe func())
	OnError(fn func(error))
}

// Deps are the components a Session composes. Answers is required; the
// others may be nil when the front end does not use them.
type Deps struct {
	Store   *transcript.Store
	Answers Asker
	Ingest  Ingestor
	Tasks   TaskList
	Events  EventChannel
	Logger  *slog.Logger
}

// Session is one conversation. It is safe for concurrent use.
type Session struct {
	store   *transcript.Store
	answers Asker
	ingest  Ingestor
	tasks   TaskList
	events  EventChannel
	logger  *slog.Logger

	mu          sync.Mutex
	state       State
	pending     *transcript.Message
	failure     *Failure
	lastUpload  *api.Ack
	channelErr  error
	started     bool
	closed      bool
	cancel      context.CancelFunc
	unsubscribe func()

	notifyMu sync.Mutex
	listener func(View)
	onEvent  func(events.Event)
}

// New creates a session. A nil Store gets a fresh one.
func New(deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := deps.Store
	if store == nil {
		store = transcript.NewStore()
	}
	return &Session{
		store:   store,
		answers: deps.Answers,
		ingest:  deps.Ingest,
		tasks:   deps.Tasks,
		events:  deps.Events,
		logger:  logger.With("component", "session"),
	}
}

// OnChange registers the listener called after every state change.
func (s *Session) OnChange(fn func(View)) {
	s.notifyMu.Lock()
	s.listener = fn
	s.notifyMu.Unlock()
}

// OnEvent registers a listener for every push event, after the task list
// has seen it.
func (s *Session) OnEvent(fn func(events.Event)) {
	s.notifyMu.Lock()
	s.onEvent = fn
	s.notifyMu.Unlock()
}

// Start mounts the session: it subscribes to the push channel and performs
// the initial task fetch. It returns the fetch error, if any; the
// subscription stays up regardless.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	if s.events != nil {
		s.events.OnError(s.handleChannelError)
		unsubscribe := s.events.Subscribe(ctx, s.handleEvent)

		s.mu.Lock()
		s.unsubscribe = unsubscribe
		s.mu.Unlock()
	}

	if s.tasks == nil {
		return nil
	}

	_, err := s.tasks.Mount(ctx)
	s.notify()
	return err
}

// Close unmounts the session. Calls still in flight complete but their
// results are dropped. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsubscribe := s.unsubscribe
	cancel := s.cancel
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if cancel != nil {
		cancel()
	}
	s.logger.Debug("session closed")
}

// Send asks text as the next user turn. Blank text is ignored. While an
// answer is pending a further Send returns ErrSendInFlight and changes
// nothing. On success the user message and the assistant reply are appended
// in that order; on failure the transcript is untouched and a Failure is
// recorded. Either way the session leaves awaiting-answer before returning.
// An answer arriving after Close is dropped and Send returns ErrClosed,
// unless the call itself failed.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.state.AwaitingAnswer {
		s.mu.Unlock()
		s.logger.Debug("send rejected: answer pending")
		return ErrSendInFlight
	}
	s.state.AwaitingAnswer = true
	user := transcript.UserMessage(text)
	s.pending = &user
	s.mu.Unlock()
	s.notify()

	reply, err := s.answers.Ask(ctx, text)

	s.mu.Lock()
	s.state.AwaitingAnswer = false
	s.pending = nil
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("dropping answer for closed session")
		if err == nil {
			err = ErrClosed
		}
		return err
	}

	if err != nil {
		s.failure = &Failure{Kind: KindAnswer, Question: text, Err: err, At: time.Now()}
		s.mu.Unlock()
		s.logger.Warn("answer failed", "error", err)
		s.notify()
		return err
	}

	if _, appendErr := s.store.Append(user); appendErr != nil {
		s.mu.Unlock()
		return appendErr
	}
	if _, appendErr := s.store.Append(reply); appendErr != nil {
		s.mu.Unlock()
		return appendErr
	}
	if s.failure != nil && s.failure.Kind == KindAnswer {
		s.failure = nil
	}
	s.mu.Unlock()

	s.notify()
	return nil
}

// Upload submits f through the ingestion coordinator. A nil file, or a
// session built without one, is a no-op. While an upload is pending a
// further Upload returns ingest.ErrUploadInFlight.
func (s *Session) Upload(ctx context.Context, f ingest.File) (*api.Ack, error) {
	if f == nil || s.ingest == nil {
		return nil, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.state.AwaitingUpload {
		s.mu.Unlock()
		return nil, ingest.ErrUploadInFlight
	}
	s.state.AwaitingUpload = true
	s.mu.Unlock()
	s.notify()

	ack, err := s.runUpload(ctx, f)

	s.mu.Lock()
	s.state.AwaitingUpload = false
	if s.closed {
		s.mu.Unlock()
		return ack, err
	}
	if err != nil {
		s.failure = &Failure{Kind: KindUpload, Filename: f.Name(), Err: err, At: time.Now()}
	} else {
		s.lastUpload = ack
		if s.failure != nil && s.failure.Kind == KindUpload {
			s.failure = nil
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("upload failed", "filename", f.Name(), "error", err)
	}
	s.notify()
	return ack, err
}

func (s *Session) runUpload(ctx context.Context, f ingest.File) (*api.Ack, error) {
	if err := s.ingest.Select(f); err != nil {
		return nil, err
	}
	return s.ingest.Upload(ctx)
}

// State returns the pending state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns the committed transcript.
func (s *Session) Messages() []transcript.Message {
	return s.store.Messages()
}

// Failure returns the most recent unresolved failure, or nil.
func (s *Session) Failure() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

// Tasks returns the mirrored task list.
func (s *Session) Tasks() []api.Task {
	if s.tasks == nil {
		return nil
	}
	return s.tasks.Tasks()
}

// View returns a snapshot of everything a front end renders.
func (s *Session) View() View {
	s.mu.Lock()
	v := View{
		Messages:     s.store.Messages(),
		Pending:      s.pending,
		State:        s.state,
		Failure:      s.failure,
		LastUpload:   s.lastUpload,
		ChannelError: s.channelErr,
	}
	s.mu.Unlock()

	v.Tasks = s.Tasks()
	return v
}

// handleEvent routes a push event to the task list and the event listener.
func (s *Session) handleEvent(ev events.Event) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	if s.tasks != nil && s.tasks.HandleEvent(ev) {
		s.notify()
	}

	s.notifyMu.Lock()
	fn := s.onEvent
	s.notifyMu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// handleChannelError records a push channel failure for display. The
// subscriber has already closed the connection.
func (s *Session) handleChannelError(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.channelErr = err
	s.mu.Unlock()
	s.notify()
}

// notify hands the current view to the listener, unless the session is closed.
func (s *Session) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if s.listener == nil {
		return
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	s.listener(s.View())
}
