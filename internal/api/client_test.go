// ABOUTME: Tests for the backend HTTP client
// ABOUTME: Covers request shape, answer/task decoding, error taxonomy, auth, and timeouts

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts Options) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts.BaseURL = srv.URL
	c, err := New(opts)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadScheme(t *testing.T) {
	_, err := New(Options{BaseURL: "ftp://example.com"})
	assert.Error(t, err)
}

func TestAsk_SendsQuestionAndDecodesAnswer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "What is the refund policy?", body["question"])

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"answer": "30 days", "sources": ["policy.pdf", {"source": "faq.md"}]}`)
	}, Options{})

	ans, err := c.Ask(context.Background(), "What is the refund policy?")
	require.NoError(t, err)
	assert.Equal(t, "30 days", ans.Text)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "policy.pdf", ans.Sources[0].Label())
	assert.Equal(t, "faq.md", ans.Sources[1].Label())
}

func TestAsk_MissingSourcesIsEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"answer": "no idea"}`)
	}, Options{})

	ans, err := c.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, ans.Sources)
}

func TestAsk_MissingAnswerIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"sources": []}`)
	}, Options{})

	_, err := c.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAsk_InvalidJSONIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `<html>oops</html>`)
	}, Options{})

	_, err := c.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAsk_ServerErrorIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "model offline"}`)
	}, Options{})

	_, err := c.Ask(context.Background(), "q")
	require.ErrorIs(t, err, ErrServiceUnavailable)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.Code)
	assert.Equal(t, "model offline", statusErr.Message)
}

func TestAsk_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestAsk_TimeoutIsDistinct(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, Options{AnswerTimeout: 50 * time.Millisecond})
	defer close(release)

	_, err := c.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_SendsBearerToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		io.WriteString(w, `[]`)
	}, Options{Token: "secret-token"})

	_, err := c.Tasks(context.Background(), "1")
	require.NoError(t, err)
}

func TestUpload_SendsMultipartFile(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "notes.md", header.Filename)
		assert.Equal(t, "# Notes", string(data))

		io.WriteString(w, `{"status": "indexed", "chunks": 1}`)
	}, Options{})

	ack, err := c.Upload(context.Background(), "notes.md", strings.NewReader("# Notes"))
	require.NoError(t, err)
	assert.Equal(t, "indexed", ack.Status)
	assert.Equal(t, 1, ack.Chunks)
	assert.Equal(t, "notes.md", ack.Filename)
}

func TestUpload_EmptyBodyIsStillAck(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, Options{})

	ack, err := c.Upload(context.Background(), "a.txt", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "a.txt", ack.Filename)
}

func TestUpload_RejectedStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unsupported file type"}`, http.StatusUnsupportedMediaType)
	}, Options{})

	_, err := c.Upload(context.Background(), "a.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestTasks_DecodesBooleanAndIntegerCompletion(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/todos", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("user_id"))
		io.WriteString(w, `[{"id":1,"text":"a","completed":true},{"id":2,"text":"b","completed":0}]`)
	}, Options{})

	tasks, err := c.Tasks(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, []Task{
		{ID: 1, Text: "a", Completed: true},
		{ID: 2, Text: "b", Completed: false},
	}, tasks)
}

func TestTasks_WrongShapeIsMalformed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"tasks": []}`)
	}, Options{})

	_, err := c.Tasks(context.Background(), "1")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestOpenEvents_NonOKIsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusServiceUnavailable)
	}, Options{})

	_, err := c.OpenEvents(context.Background())
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
