// ABOUTME: Server-Sent Events decoder for the push channel
// ABOUTME: Splits a text/event-stream body into Event values (event, data, id fields)

package events

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line.
const maxLineSize = 1024 * 1024

// defaultEventType is the type of an event with no "event:" field.
const defaultEventType = "message"

// Event is one message from the push channel. Data is the opaque payload.
type Event struct {
	ID   string
	Type string
	Data string
}

// Decode unmarshals the payload as JSON into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal([]byte(e.Data), v)
}

// Decoder reads events from a text/event-stream body.
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Next returns the next complete event. It returns io.EOF when the stream
// ends cleanly, or the underlying read error.
func (d *Decoder) Next() (Event, error) {
	var eventType string
	var data []string
	hasData := false

	for d.scanner.Scan() {
		line := strings.TrimSuffix(d.scanner.Text(), "\r")

		// Blank line dispatches the pending event
		if line == "" {
			if !hasData {
				eventType = ""
				continue
			}
			if eventType == "" {
				eventType = defaultEventType
			}
			return Event{ID: d.lastID, Type: eventType, Data: strings.Join(data, "\n")}, nil
		}

		// Comment (often used as keepalive)
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			eventType = value
		case "data":
			data = append(data, value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				d.lastID = value
			}
		case "retry":
			// Reconnection is the caller's decision; retry hints are ignored.
		}
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// LastEventID returns the most recent id seen on the stream.
func (d *Decoder) LastEventID() string {
	return d.lastID
}
