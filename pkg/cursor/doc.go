// Package cursor encodes replay positions in a recipient's notification
// stream as opaque, sortable strings.
//
// A cursor is derived from a notification's creation time and ID. It is
// never persisted; both the server (when framing outbound events) and
// the client (when reconnecting) compute or echo it on demand.
//
// # Usage
//
//	c := cursor.Encode(notif.CreatedAt, notif.ID)
//
//	// On reconnect, a malformed cursor falls back to a full resync:
//	pos := cursor.DecodeOrZero(r.Header.Get("Last-Event-ID"))
//	events, _ := store.FindByRecipient(ctx, userID, pos, 100)
package cursor
