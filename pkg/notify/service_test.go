package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ootdhub/pushkit/pkg/cursor"
	"github.com/ootdhub/pushkit/pkg/notify"
)

// MockStore for testing Service.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Save(ctx context.Context, n notify.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *MockStore) FindByRecipient(ctx context.Context, recipientID string, after cursor.Position, limit int) ([]notify.Notification, error) {
	args := m.Called(ctx, recipientID, after, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notify.Notification), args.Error(1)
}

func (m *MockStore) DeleteByID(ctx context.Context, recipientID, id string) error {
	args := m.Called(ctx, recipientID, id)
	return args.Error(0)
}

func (m *MockStore) DeleteAllByRecipient(ctx context.Context, recipientID string) error {
	args := m.Called(ctx, recipientID)
	return args.Error(0)
}

// MockDirectory for testing Service.
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) Exists(ctx context.Context, recipientID string) (bool, error) {
	args := m.Called(ctx, recipientID)
	return args.Bool(0), args.Error(1)
}

// recordingPublisher captures publishes and optionally fails them.
type recordingPublisher struct {
	err      error
	payloads [][]byte
	keys     []string
}

func (p *recordingPublisher) Publish(ctx context.Context, recipientID string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.keys = append(p.keys, recipientID)
	p.payloads = append(p.payloads, payload)
	return nil
}

func TestService_Send(t *testing.T) {
	t.Run("persists then publishes", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)
		pub := &recordingPublisher{}

		dir.On("Exists", mock.Anything, "u1").Return(true, nil)
		store.On("Save", mock.Anything, mock.MatchedBy(func(n notify.Notification) bool {
			return n.RecipientID == "u1" && n.ID != "" && !n.CreatedAt.IsZero()
		})).Return(nil)

		svc := notify.NewService(store, dir, pub)
		n, err := svc.Send(context.Background(), "u1", "새 좋아요", "from: u2", notify.SeverityInfo)

		require.NoError(t, err)
		assert.Equal(t, "u1", n.RecipientID)
		assert.Equal(t, notify.SeverityInfo, n.Severity)

		require.Len(t, pub.payloads, 1)
		env, decErr := notify.DecodeEnvelope(pub.payloads[0])
		require.NoError(t, decErr)
		assert.Equal(t, n.ID, cursorID(t, env.Cursor))
		assert.Equal(t, "u1", env.RecipientID)

		store.AssertExpectations(t)
		dir.AssertExpectations(t)
	})

	t.Run("unknown recipient", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)
		pub := &recordingPublisher{}

		dir.On("Exists", mock.Anything, "ghost").Return(false, nil)

		svc := notify.NewService(store, dir, pub)
		_, err := svc.Send(context.Background(), "ghost", "t", "b", notify.SeverityInfo)

		require.ErrorIs(t, err, notify.ErrRecipientNotFound)
		assert.Empty(t, pub.payloads, "nothing may be published for an unknown recipient")
		store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("store failure is fatal and nothing is published", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)
		pub := &recordingPublisher{}

		dir.On("Exists", mock.Anything, "u1").Return(true, nil)
		store.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full"))

		svc := notify.NewService(store, dir, pub)
		_, err := svc.Send(context.Background(), "u1", "t", "b", notify.SeverityInfo)

		require.Error(t, err)
		assert.Empty(t, pub.payloads, "durability precedes visibility")
	})

	t.Run("publish failure is swallowed", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)
		pub := &recordingPublisher{err: errors.New("all transports down")}

		dir.On("Exists", mock.Anything, "u1").Return(true, nil)
		store.On("Save", mock.Anything, mock.Anything).Return(nil)

		svc := notify.NewService(store, dir, pub)
		n, err := svc.Send(context.Background(), "u1", "t", "b", notify.SeverityWarn)

		require.NoError(t, err, "a stored notification is a success even if delivery failed")
		assert.NotEmpty(t, n.ID)
	})

	t.Run("empty recipient", func(t *testing.T) {
		svc := notify.NewService(new(MockStore), new(MockDirectory), nil)
		_, err := svc.Send(context.Background(), "", "t", "b", notify.SeverityInfo)
		require.ErrorIs(t, err, notify.ErrEmptyRecipient)
	})

	t.Run("invalid severity defaults to info", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)

		dir.On("Exists", mock.Anything, "u1").Return(true, nil)
		store.On("Save", mock.Anything, mock.Anything).Return(nil)

		svc := notify.NewService(store, dir, nil)
		n, err := svc.Send(context.Background(), "u1", "t", "b", notify.Severity("shouting"))

		require.NoError(t, err)
		assert.Equal(t, notify.SeverityInfo, n.Severity)
	})

	t.Run("directory error propagates", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)

		dir.On("Exists", mock.Anything, "u1").Return(false, errors.New("directory offline"))

		svc := notify.NewService(store, dir, nil)
		_, err := svc.Send(context.Background(), "u1", "t", "b", notify.SeverityInfo)

		require.Error(t, err)
		assert.NotErrorIs(t, err, notify.ErrRecipientNotFound)
	})
}

func TestService_SendAssignsOrderedIDs(t *testing.T) {
	store := notify.NewMemoryStore()
	dir := new(MockDirectory)
	dir.On("Exists", mock.Anything, "u1").Return(true, nil)

	svc := notify.NewService(store, dir, nil)

	var previous cursor.Position
	for i := 0; i < 3; i++ {
		n, err := svc.Send(context.Background(), "u1", "t", "b", notify.SeverityInfo)
		require.NoError(t, err)
		assert.True(t, previous.Less(n.Position()), "send %d must order after its predecessor", i)
		previous = n.Position()
		time.Sleep(2 * time.Millisecond)
	}
}

func TestService_List(t *testing.T) {
	t.Run("malformed cursor falls back to full backlog", func(t *testing.T) {
		store := new(MockStore)
		dir := new(MockDirectory)

		store.On("FindByRecipient", mock.Anything, "u1", cursor.Position{}, 10).
			Return([]notify.Notification{{ID: "a", RecipientID: "u1"}}, nil)

		svc := notify.NewService(store, dir, nil)
		got, err := svc.List(context.Background(), "u1", "!!!not-a-cursor!!!", 10)

		require.NoError(t, err)
		assert.Len(t, got, 1)
		store.AssertExpectations(t)
	})
}

func TestService_Delete(t *testing.T) {
	store := new(MockStore)
	store.On("DeleteByID", mock.Anything, "u1", "n1").Return(nil)
	store.On("DeleteAllByRecipient", mock.Anything, "u1").Return(nil)

	svc := notify.NewService(store, new(MockDirectory), nil)

	require.NoError(t, svc.Delete(context.Background(), "u1", "n1"))
	require.NoError(t, svc.DeleteAll(context.Background(), "u1"))
	store.AssertExpectations(t)
}

func cursorID(t *testing.T, c string) string {
	t.Helper()
	pos, err := cursor.Decode(c)
	require.NoError(t, err)
	return pos.ID
}
