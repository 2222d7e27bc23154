package http

import (
	"net/http"

	"github.com/coder/websocket"

	"tenant-portal-backend/internal/logger"
)

// PushChannel upgrades the request to a websocket and hands it to the hub.
// The connection listens only on the caller's own channel.
func (h *Handler) PushChannel(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{OriginPatterns: h.origins}
	if len(h.origins) == 0 {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		logger.WarnContext(r.Context(), "Websocket accept failed", "error", err)
		return
	}
	h.hub.Serve(r.Context(), PrincipalFrom(r.Context()), conn)
}
