// Package registry owns the live push channels of a single process.
//
// One Registry instance lives at the process composition root. Accepting
// a client connection registers a Channel; the transport layer streams
// Channel.Events to the client and unregisters on disconnect. Inbound
// relays and the local transport tier call DeliverLocal to fan an event
// out to the recipient's channels on this process.
//
// Delivery here is best effort by design. A recipient with no local
// channels is a no-op, a failed write kills only the failing channel,
// and the durable store stays authoritative: Replay catches a
// reconnecting client up from its last-seen cursor before live events
// resume.
//
//	reg := registry.New(store,
//	    registry.WithPresenceHooks(subs.SubscribeHook(), subs.UnsubscribeHook()),
//	)
//
//	ch := reg.Register(userID)
//	defer reg.Unregister(userID, ch)
//	if err := reg.Replay(ctx, userID, lastSeen, ch); err != nil {
//	    return err // channel already torn down
//	}
//	for {
//	    select {
//	    case env := <-ch.Events():
//	        // write to the client
//	    case <-ch.Done():
//	        return nil
//	    }
//	}
package registry
