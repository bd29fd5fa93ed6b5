// ABOUTME: Wire types exchanged with the backend services
// ABOUTME: Answer, upload acknowledgement, and task records

package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/2389/genia/internal/transcript"
)

// chatRequest is the JSON body sent to POST /chat.
type chatRequest struct {
	Question string `json:"question"`
}

// chatResponse is the JSON body returned by POST /chat.
type chatResponse struct {
	Answer  *string               `json:"answer"`
	Sources []transcript.Citation `json:"sources"`
}

// Answer is a decoded question-answering result.
type Answer struct {
	Text    string
	Sources []transcript.Citation
}

// Ack acknowledges an accepted upload. The body is informational only; a
// non-error status is the acknowledgement.
type Ack struct {
	Status    string `json:"status,omitempty"`
	Chunks    int    `json:"chunks,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Filename  string `json:"-"`
}

// Task is one entry of the owner's task list.
type Task struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// UnmarshalJSON accepts completed as a boolean or as a 0/1 integer, which is
// how SQLite-backed services tend to serialize it.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        int             `json:"id"`
		Text      string          `json:"text"`
		Completed json.RawMessage `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.ID = raw.ID
	t.Text = raw.Text
	t.Completed = false

	c := bytes.TrimSpace(raw.Completed)
	switch {
	case len(c) == 0, bytes.Equal(c, []byte("null")), bytes.Equal(c, []byte("false")), bytes.Equal(c, []byte("0")):
	case bytes.Equal(c, []byte("true")), bytes.Equal(c, []byte("1")):
		t.Completed = true
	default:
		return fmt.Errorf("task %d: completed must be a boolean, got %s", raw.ID, string(c))
	}
	return nil
}
