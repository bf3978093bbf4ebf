package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/JonMunkholm/auction/internal/logging"
)

// handleEvents streams state changes and import progress as Server-Sent
// Events. A comment line is sent every heartbeat so proxies keep the
// connection open.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, fmt.Errorf("streaming not supported"))
		return
	}

	events, cancel := s.service.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Initial snapshot so a fresh client can render without a second call.
	sum, _ := json.Marshal(s.service.Summary())
	fmt.Fprintf(w, "event: hello\ndata: %s\n\n", sum)
	flusher.Flush()

	heartbeat := s.cfg.Server.EventsHeartbeat
	if heartbeat <= 0 {
		heartbeat = 20 * time.Second
	}
	ticker := time.NewTicker(heartbeat)
	defer ticker.Stop()

	logger := logging.FromContext(r.Context())
	sent := 0
	defer func() { logger.Debug("event stream closed", "events_sent", sent) }()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				// Service closed
				fmt.Fprint(w, "event: shutdown\ndata: {}\n\n")
				flusher.Flush()
				return
			}
			data, err := json.Marshal(e)
			if err != nil {
				logger.Error("encode event", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", e.ID, e.Type, data)
			flusher.Flush()
			sent++

		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
