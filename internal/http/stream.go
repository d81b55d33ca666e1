package httpx

import (
	"net/http"
	"time"

	"github.com/steadyhq/steady/internal/service/shortlink"
	"github.com/steadyhq/steady/internal/stream"
)

// handleClickStream streams click events for a link over Server-Sent Events.
// Recent clicks are replayed first, then live events until the client
// disconnects.
func (r *Router) handleClickStream(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	info, ok := authInfoFromContext(req.Context())
	if !ok {
		r.logger.Error("auth context missing for stream", "path", req.URL.Path)
		writeError(w, http.StatusInternalServerError, "authorization context missing")
		return
	}
	linkID := req.URL.Query().Get("link_id")
	if linkID == "" {
		writeError(w, http.StatusBadRequest, "link_id is required")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := stream.NewSSEClient(w, flusher, r.logger)
	hub := r.links.Hub()
	hub.Register(linkID, client)
	defer hub.Unregister(linkID, client)

	r.logger.Info("click stream opened", "link_id", linkID, "user_id", info.UserID)

	r.backfillClicks(req, client, linkID)

	ticker := time.NewTicker(r.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-req.Context().Done():
			r.logger.Info("click stream closed", "link_id", linkID, "user_id", info.UserID)
			return
		case <-ticker.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) backfillClicks(req *http.Request, client *stream.SSEClient, linkID string) {
	clicks, err := r.links.RecentClicks(req.Context(), linkID, r.backfillLimit)
	if err != nil {
		r.logger.Warn("click backfill failed", "link_id", linkID, "error", err)
		return
	}
	for i := len(clicks) - 1; i >= 0; i-- {
		payload, err := shortlink.MarshalClick(clicks[i])
		if err != nil {
			continue
		}
		if err := client.Send(payload); err != nil {
			return
		}
	}
}

// handleClickWS streams click events over a websocket connection.
func (r *Router) handleClickWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	linkID := req.URL.Query().Get("link_id")
	if linkID == "" {
		writeError(w, http.StatusBadRequest, "link_id is required")
		return
	}
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := stream.NewClient(conn, r.logger)
	hub := r.links.Hub()
	hub.Register(linkID, client)

	go func() {
		defer func() {
			hub.Unregister(linkID, client)
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
