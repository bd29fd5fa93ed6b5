// ABOUTME: Task list synchronizer mirroring the server-side todo list
// ABOUTME: Replaces its cache wholesale on each fetch; the last issued fetch wins

package tasks

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/events"
)

// EventType is the push event type that announces a todo change.
const EventType = "todos"

// Fetcher returns the full task list for an owner. *api.Client satisfies it.
type Fetcher interface {
	Tasks(ctx context.Context, ownerID string) ([]api.Task, error)
}

// Synchronizer holds a read-mostly cache of the owner's tasks.
type Synchronizer struct {
	fetcher Fetcher
	ownerID string
	logger  *slog.Logger

	mu      sync.RWMutex
	tasks   []api.Task
	byID    map[int]api.Task
	issued  uint64
	applied uint64

	// refreshCtx is used for event-driven refreshes.
	refreshCtx context.Context
}

// NewSynchronizer creates a synchronizer for ownerID. Pass nil logger for default.
func NewSynchronizer(fetcher Fetcher, ownerID string, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		fetcher:    fetcher,
		ownerID:    ownerID,
		logger:     logger.With("component", "tasks", "owner_id", ownerID),
		byID:       make(map[int]api.Task),
		refreshCtx: context.Background(),
	}
}

// Mount performs the eager initial fetch. Later event-driven refreshes use ctx.
func (s *Synchronizer) Mount(ctx context.Context) ([]api.Task, error) {
	s.mu.Lock()
	s.refreshCtx = ctx
	s.mu.Unlock()

	tasks, err := s.Refresh(ctx)
	if err != nil {
		s.logger.Error("initial task fetch failed", "error", err)
		return nil, err
	}
	return tasks, nil
}

// Refresh fetches the full list and replaces the cache. If a later-issued
// refresh has already been applied, this result is discarded and the cached
// list is returned instead.
func (s *Synchronizer) Refresh(ctx context.Context) ([]api.Task, error) {
	s.mu.Lock()
	s.issued++
	seq := s.issued
	s.mu.Unlock()

	fetched, err := s.fetcher.Tasks(ctx, s.ownerID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq < s.applied {
		s.logger.Debug("discarding stale task fetch", "seq", seq, "applied", s.applied)
		return s.tasks, nil
	}

	byID := make(map[int]api.Task, len(fetched))
	for _, t := range fetched {
		byID[t.ID] = t
	}
	s.tasks = fetched
	s.byID = byID
	s.applied = seq

	s.logger.Debug("tasks refreshed", "count", len(fetched))
	return fetched, nil
}

// Tasks returns the cached list in fetch order. Callers must not modify it.
func (s *Synchronizer) Tasks() []api.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks
}

// Get looks a task up by id.
func (s *Synchronizer) Get(id int) (api.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	return t, ok
}

// HandleEvent refreshes when ev announces a todo change. It reports whether
// a refresh was attempted.
func (s *Synchronizer) HandleEvent(ev events.Event) bool {
	if !IsTaskEvent(ev) {
		return false
	}

	s.mu.RLock()
	ctx := s.refreshCtx
	s.mu.RUnlock()

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("event-driven task refresh failed", "error", err)
	}
	return true
}

// IsTaskEvent reports whether ev concerns the todo list: either its type is
// EventType or its JSON payload names a "todo" topic.
func IsTaskEvent(ev events.Event) bool {
	if ev.Type == EventType {
		return true
	}

	var payload struct {
		Type  string `json:"type"`
		Topic string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(ev.Data), &payload); err != nil {
		return false
	}
	for _, v := range []string{payload.Type, payload.Topic} {
		if strings.HasPrefix(strings.ToLower(v), "todo") {
			return true
		}
	}
	return false
}

// Render formats a task for display. The mark depends only on Completed.
func Render(t api.Task) string {
	if t.Completed {
		return "✅ " + t.Text
	}
	return "⬜ " + t.Text
}
