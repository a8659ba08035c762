// Package sse is the reference push-channel transport: it bridges the
// connection registry to browsers over Server-Sent Events.
//
// The handler registers one registry channel per open stream, replays
// missed events from the durable store using the client's last-seen
// cursor, then forwards live envelopes as they arrive. Disconnects are
// detected on write and tear the channel down; the client reconnects
// with the id of the last frame it processed and loses nothing.
//
//	h := sse.NewHandler(reg, func(r *http.Request) (string, error) {
//	    return session.UserID(r)
//	})
//
//	r := chi.NewRouter()
//	r.Mount("/notifications/stream", h.Router())
package sse
