package delivery_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ootdhub/pushkit/pkg/delivery"
	"github.com/ootdhub/pushkit/pkg/notify"
	"github.com/ootdhub/pushkit/pkg/registry"
)

// fakePubSub tracks subscriptions per channel name.
type fakePubSub struct {
	mu           sync.Mutex
	err          error
	subscribes   []string
	open         map[string]*fakeSubscription
	closedCounts map[string]int
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{
		open:         make(map[string]*fakeSubscription),
		closedCounts: make(map[string]int),
	}
}

func (p *fakePubSub) Subscribe(ctx context.Context, channel string) (delivery.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}

	p.subscribes = append(p.subscribes, channel)
	sub := &fakeSubscription{
		messages: make(chan []byte, 8),
		onClose: func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.closedCounts[channel]++
			delete(p.open, channel)
		},
	}
	p.open[channel] = sub
	return sub, nil
}

func (p *fakePubSub) publish(channel string, payload []byte) {
	p.mu.Lock()
	sub := p.open[channel]
	p.mu.Unlock()
	if sub != nil {
		sub.messages <- payload
	}
}

func (p *fakePubSub) subscribeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribes)
}

func (p *fakePubSub) closedCount(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closedCounts[channel]
}

type fakeSubscription struct {
	messages  chan []byte
	onClose   func()
	closeOnce sync.Once
}

func (s *fakeSubscription) Messages() <-chan []byte { return s.messages }

func (s *fakeSubscription) Close() error {
	s.closeOnce.Do(func() {
		close(s.messages)
		s.onClose()
	})
	return nil
}

func TestSubscriptionManager_Subscribe(t *testing.T) {
	t.Run("repeated connects share one subscription", func(t *testing.T) {
		ps := newFakePubSub()
		m := delivery.NewSubscriptionManager(ps, &registryStub{})
		defer m.Close()

		require.NoError(t, m.Subscribe("u1"))
		require.NoError(t, m.Subscribe("u1"))
		require.NoError(t, m.Subscribe("u1"))

		assert.Equal(t, 1, ps.subscribeCount())
		assert.True(t, m.Subscribed("u1"))
	})

	t.Run("channel name carries the prefix", func(t *testing.T) {
		ps := newFakePubSub()
		m := delivery.NewSubscriptionManager(ps, &registryStub{},
			delivery.WithSubscriptionChannelPrefix("ootd"))
		defer m.Close()

		require.NoError(t, m.Subscribe("u1"))
		require.Equal(t, []string{"ootd:u1"}, ps.subscribes)
	})

	t.Run("subscribe error propagates", func(t *testing.T) {
		ps := newFakePubSub()
		ps.err = errors.New("redis gone")
		m := delivery.NewSubscriptionManager(ps, &registryStub{})
		defer m.Close()

		require.Error(t, m.Subscribe("u1"))
		assert.False(t, m.Subscribed("u1"))
	})

	t.Run("closed manager refuses", func(t *testing.T) {
		m := delivery.NewSubscriptionManager(newFakePubSub(), &registryStub{})
		require.NoError(t, m.Close())
		require.ErrorIs(t, m.Subscribe("u1"), delivery.ErrManagerClosed)
	})
}

func TestSubscriptionManager_Unsubscribe(t *testing.T) {
	ps := newFakePubSub()
	m := delivery.NewSubscriptionManager(ps, &registryStub{})
	defer m.Close()

	require.NoError(t, m.Subscribe("u1"))
	m.Unsubscribe("u1")

	assert.False(t, m.Subscribed("u1"))
	assert.Equal(t, 1, ps.closedCount("notify:u1"))

	// Idempotent.
	m.Unsubscribe("u1")
	assert.Equal(t, 1, ps.closedCount("notify:u1"))
}

func TestSubscriptionManager_Forward(t *testing.T) {
	t.Run("inbound messages reach the sink", func(t *testing.T) {
		ps := newFakePubSub()
		store := notify.NewMemoryStore()
		reg := registry.New(store)
		defer reg.Close()

		m := delivery.NewSubscriptionManager(ps, reg)
		defer m.Close()

		ch := reg.Register("u1")
		require.NoError(t, m.Subscribe("u1"))

		env := notify.Envelope{Cursor: "c1", RecipientID: "u1", Title: "새 좋아요"}
		payload, err := env.Marshal()
		require.NoError(t, err)
		ps.publish("notify:u1", payload)

		select {
		case got := <-ch.Events():
			assert.Equal(t, env.Cursor, got.Cursor)
			assert.Equal(t, env.Title, got.Title)
		case <-time.After(100 * time.Millisecond):
			t.Fatal("timed out waiting for forwarded envelope")
		}
	})

	t.Run("undecodable messages are skipped", func(t *testing.T) {
		ps := newFakePubSub()
		sink := &registryStub{}
		m := delivery.NewSubscriptionManager(ps, sink)
		defer m.Close()

		require.NoError(t, m.Subscribe("u1"))
		ps.publish("notify:u1", []byte("garbage"))

		payload, err := notify.Envelope{Cursor: "c2", RecipientID: "u1"}.Marshal()
		require.NoError(t, err)
		ps.publish("notify:u1", payload)

		time.Sleep(50 * time.Millisecond)
		require.Len(t, sink.delivered, 1)
		assert.Equal(t, "c2", sink.delivered[0].Cursor)
	})
}

func TestSubscriptionManager_PresenceLifecycle(t *testing.T) {
	// Wired the way the composition root does it: registry presence hooks
	// drive the manager, so the subscription count tracks local presence.
	ps := newFakePubSub()
	store := notify.NewMemoryStore()

	m := delivery.NewSubscriptionManager(ps, &registryStub{})
	defer m.Close()

	reg := registry.New(store,
		registry.WithPresenceHooks(m.SubscribeHook(), m.UnsubscribeHook()))
	defer reg.Close()

	ch1 := reg.Register("u1")
	ch2 := reg.Register("u1")
	ch3 := reg.Register("u1")
	assert.Equal(t, 1, ps.subscribeCount(), "three tabs share one upstream subscription")

	reg.Unregister("u1", ch1)
	reg.Unregister("u1", ch2)
	assert.True(t, m.Subscribed("u1"), "subscription survives while any tab remains")

	reg.Unregister("u1", ch3)
	assert.False(t, m.Subscribed("u1"), "last disconnect drops the subscription")
	assert.Equal(t, 1, ps.closedCount("notify:u1"))
}

func TestSubscriptionManager_Close(t *testing.T) {
	ps := newFakePubSub()
	m := delivery.NewSubscriptionManager(ps, &registryStub{})

	require.NoError(t, m.Subscribe("u1"))
	require.NoError(t, m.Subscribe("u2"))

	require.NoError(t, m.Close())
	assert.False(t, m.Subscribed("u1"))
	assert.False(t, m.Subscribed("u2"))

	// Second close is a no-op.
	require.NoError(t, m.Close())
}
