// Package delivery moves serialized notification envelopes from the
// producing process to every process that might hold a live connection
// for the recipient.
//
// Three transport tiers form an ordered fallback chain:
//
//   - BrokerTier: a Kafka topic keyed by recipient, preserving
//     per-recipient order end to end. Used first when configured.
//   - PubSubTier: Redis keyed-channel broadcast, probed with a PING on
//     every publish. Fanout is scoped by the SubscriptionManager to
//     recipients actually connected somewhere.
//   - LocalTier: in-process terminal fallback. Always available, never
//     fails, delivers only to this process.
//
// Strategy walks the chain fresh on every publish: one attempt per
// tier, fall through on unavailability or a definitive send failure,
// and exactly one tier ends up handling each event. Because the durable
// store is written before any of this runs, a total transport outage
// degrades to replay-on-reconnect, never to a lost notification.
//
// The inbound half mirrors the outbound tiers: BrokerRelay consumes the
// topic under a per-process consumer group, and SubscriptionManager
// forwards pub/sub messages; both hand envelopes to the LocalSink
// (the process's connection registry).
//
// # Composition
//
//	reg := registry.New(store)
//	subs := delivery.NewSubscriptionManager(delivery.NewRedisPubSub(rdb), reg)
//
//	strategy := delivery.NewStrategy([]delivery.Tier{
//	    delivery.NewBrokerTier(brokerCfg),
//	    delivery.NewPubSubTier(rdb, pubsubCfg),
//	    delivery.NewLocalTier(reg),
//	})
//
//	relay := delivery.NewBrokerRelay(brokerCfg, reg)
//	go relay.Run(ctx)
package delivery
