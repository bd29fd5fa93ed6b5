// ABOUTME: Server-sent events endpoint streaming broadcast messages
// ABOUTME: Sends a keepalive comment periodically so idle proxies keep the stream open

package devserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/2389/genia/internal/broadcast"
)

const keepaliveInterval = 15 * time.Second

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ch, subID := s.broadcaster.Subscribe(r.Context())

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	s.logger.Debug("event stream opened", "sub_id", subID)
	defer s.logger.Debug("event stream closed", "sub_id", subID)

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			writeSSEEvent(w, msg)
			flusher.Flush()
		}
	}
}

// writeSSEEvent writes msg in event-stream framing. Multi-line data is
// split across data fields.
func writeSSEEvent(w http.ResponseWriter, msg broadcast.Message) {
	if msg.ID != "" {
		fmt.Fprintf(w, "id: %s\n", msg.ID)
	}
	if msg.Type != "" {
		fmt.Fprintf(w, "event: %s\n", msg.Type)
	}
	for _, line := range strings.Split(msg.Data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}
