// ABOUTME: Tests for the Server-Sent Events decoder
// ABOUTME: Covers field parsing, multi-line data, comments, ids, and stream end

package events

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecoder_ParsesEvents(t *testing.T) {
	stream := "data: hello\n\n" +
		"event: todos\ndata: {\"action\":\"add\"}\n\n"
	dec := NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Type: "message", Data: "hello"}, ev)

	ev, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "todos", ev.Type)

	var payload map[string]string
	require.NoError(t, ev.Decode(&payload))
	assert.Equal(t, "add", payload["action"])

	_, err = dec.Next()
	assert.True(t, errors.Is(err, io.EOF))
}

func TestDecoder_JoinsMultilineData(t *testing.T) {
	dec := NewDecoder(strings.NewReader("data: line one\ndata:line two\n\n"))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", ev.Data)
}

func TestDecoder_SkipsCommentsAndEmptyEvents(t *testing.T) {
	stream := ": keepalive\n\n" +
		"event: ping\n\n" +
		"data: real\n\n"
	dec := NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "message", ev.Type, "event type without data must not leak into the next event")
	assert.Equal(t, "real", ev.Data)
}

func TestDecoder_TracksLastEventID(t *testing.T) {
	stream := "id: 1\ndata: a\n\n" +
		"data: b\n\n"
	dec := NewDecoder(strings.NewReader(stream))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", ev.ID)

	ev, err = dec.Next()
	require.NoError(t, err)
	assert.Equal(t, "1", ev.ID, "id persists until replaced")
	assert.Equal(t, "1", dec.LastEventID())
}

func TestDecoder_HandlesCRLF(t *testing.T) {
	dec := NewDecoder(strings.NewReader("event: x\r\ndata: y\r\n\r\n"))

	ev, err := dec.Next()
	require.NoError(t, err)
	assert.Equal(t, Event{Type: "x", Data: "y"}, ev)
}

func TestDecoder_DropsUnterminatedEvent(t *testing.T) {
	dec := NewDecoder(strings.NewReader("data: partial"))

	_, err := dec.Next()
	assert.ErrorIs(t, err, io.EOF)
}
