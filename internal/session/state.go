// ABOUTME: Pending state, failure indicator, and view snapshot types for a session
// ABOUTME: State tracks one flag per intent kind so sends and uploads can overlap

package session

import (
	"time"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/transcript"
)

// Kind names an intent kind.
type Kind string

// Intent kinds
const (
	KindAnswer Kind = "answer"
	KindUpload Kind = "upload"
)

// State is the session's pending state.
type State struct {
	AwaitingAnswer bool
	AwaitingUpload bool
}

// Idle reports whether nothing is outstanding.
func (s State) Idle() bool {
	return !s.AwaitingAnswer && !s.AwaitingUpload
}

// String returns "idle", "awaiting-answer", "awaiting-upload" or "awaiting-answer+upload".
func (s State) String() string {
	switch {
	case s.AwaitingAnswer && s.AwaitingUpload:
		return "awaiting-answer+upload"
	case s.AwaitingAnswer:
		return "awaiting-answer"
	case s.AwaitingUpload:
		return "awaiting-upload"
	default:
		return "idle"
	}
}

// Failure is the user-visible record of a failed intent. It is distinct
// from assistant messages and never appended to the transcript.
type Failure struct {
	Kind     Kind
	Question string
	Filename string
	Err      error
	At       time.Time
}

// View is a consistent snapshot handed to change listeners.
type View struct {
	Messages     []transcript.Message
	Pending      *transcript.Message
	State        State
	Failure      *Failure
	Tasks        []api.Task
	LastUpload   *api.Ack
	ChannelError error
}
