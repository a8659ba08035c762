// Package notify is the producer-facing core of the push-notification
// subsystem: it persists notifications to a durable store and hands them
// to a best-effort live publisher.
//
// The central contract is durability before visibility. Service.Send
// writes the notification to the Store first; only then is the envelope
// published towards live connections, and a publish failure is logged
// and swallowed because the store remains the system of record. Clients
// that miss a live push catch up by replaying from the store.
//
// # Basic Usage
//
//	store := notify.NewMemoryStore()
//	svc := notify.NewService(store, directory, strategy)
//
//	n, err := svc.Send(ctx, "user-1", "새 좋아요", "from: user-2", notify.SeverityInfo)
//
// # Producer side
//
// Business-event producers go through Listener, which maps committed
// domain events (likes, comments, follows, direct messages, role
// changes) onto Service.Send calls:
//
//	listener := notify.NewListener(svc)
//	err := listener.OnPostLiked(ctx, notify.PostLiked{
//	    PostOwnerID: ownerID,
//	    LikerName:   liker.Name,
//	    PostTitle:   post.Title,
//	})
//
// # Storage
//
// MemoryStore backs development and tests. PgStore is the production
// implementation; apply migrations/ with pkg/pg.Migrate before use.
package notify
