package sse

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ootdhub/pushkit/pkg/logger"
	"github.com/ootdhub/pushkit/pkg/notify"
	"github.com/ootdhub/pushkit/pkg/registry"
)

// UserResolver extracts the authenticated recipient identity from the
// request. Authentication itself is the embedding application's
// concern; the handler only needs the resulting identity.
type UserResolver func(r *http.Request) (string, error)

// Handler streams a recipient's notifications over Server-Sent Events.
//
// Reconnect contract: the client sends its last-seen cursor in the
// Last-Event-ID header (the browser EventSource does this natively) or
// a "cursor" query parameter. Stored events strictly after that cursor
// are replayed before live delivery resumes; an absent or malformed
// cursor replays the full backlog. Each frame's id field carries the
// event's cursor so the client always has a resume position.
type Handler struct {
	registry *registry.Registry
	resolve  UserResolver
	logger   *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the logger for the Handler.
func WithHandlerLogger(log *slog.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = log
	}
}

// NewHandler creates an SSE streaming handler on top of the process's
// connection registry.
func NewHandler(reg *registry.Registry, resolve UserResolver, opts ...HandlerOption) *Handler {
	h := &Handler{
		registry: reg,
		resolve:  resolve,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Router mounts the stream endpoint.
//
//	r := chi.NewRouter()
//	r.Mount("/notifications/stream", sseHandler.Router())
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Stream)
	return r
}

// Stream serves one long-lived push connection.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	recipientID, err := h.resolve(r)
	if err != nil || recipientID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sinceCursor := r.Header.Get("Last-Event-ID")
	if sinceCursor == "" {
		sinceCursor = r.URL.Query().Get("cursor")
	}

	ch := h.registry.Register(recipientID)
	defer h.registry.Unregister(recipientID, ch)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Replay fills the channel ahead of (or interleaved with) live
	// events while the loop below drains it. On failure the channel is
	// already torn down and the client reconnects for a clean resync.
	go func() {
		if err := h.registry.Replay(r.Context(), recipientID, sinceCursor, ch); err != nil &&
			!errors.Is(err, registry.ErrChannelClosed) {
			h.logger.LogAttrs(r.Context(), slog.LevelWarn, "replay failed, closing stream",
				logger.UserID(recipientID),
				logger.Error(err),
			)
		}
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ch.Done():
			return
		case env := <-ch.Events():
			if err := writeEvent(w, env); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

// writeEvent frames one envelope as an SSE event, with the cursor as
// the event ID so EventSource reconnects resume from it.
func writeEvent(w http.ResponseWriter, env notify.Envelope) error {
	data, err := env.Marshal()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\ndata: %s\n\n", env.Cursor, data)
	return err
}
