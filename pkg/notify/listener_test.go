package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ootdhub/pushkit/pkg/cursor"
	"github.com/ootdhub/pushkit/pkg/notify"
)

func TestListener(t *testing.T) {
	ctx := context.Background()

	newListener := func(t *testing.T) (*notify.Listener, *notify.MemoryStore) {
		t.Helper()
		store := notify.NewMemoryStore()
		dir := new(MockDirectory)
		dir.On("Exists", mock.Anything, mock.Anything).Return(true, nil)
		return notify.NewListener(notify.NewService(store, dir, nil)), store
	}

	lastFor := func(t *testing.T, store *notify.MemoryStore, recipientID string) notify.Notification {
		t.Helper()
		stored, err := store.FindByRecipient(ctx, recipientID, cursor.Position{}, 0)
		require.NoError(t, err)
		require.NotEmpty(t, stored)
		return stored[len(stored)-1]
	}

	t.Run("post liked", func(t *testing.T) {
		l, store := newListener(t)
		require.NoError(t, l.OnPostLiked(ctx, notify.PostLiked{
			PostOwnerID: "owner", LikerName: "민지", PostTitle: "가을 코디",
		}))

		n := lastFor(t, store, "owner")
		assert.Equal(t, "새 좋아요", n.Title)
		assert.Contains(t, n.Body, "민지")
		assert.Contains(t, n.Body, "가을 코디")
		assert.Equal(t, notify.SeverityInfo, n.Severity)
	})

	t.Run("comment added", func(t *testing.T) {
		l, store := newListener(t)
		require.NoError(t, l.OnCommentAdded(ctx, notify.CommentAdded{
			PostOwnerID: "owner", CommenterName: "하준", Excerpt: "멋져요",
		}))

		n := lastFor(t, store, "owner")
		assert.Equal(t, "새 댓글", n.Title)
		assert.Contains(t, n.Body, "멋져요")
	})

	t.Run("follower added", func(t *testing.T) {
		l, store := newListener(t)
		require.NoError(t, l.OnFollowerAdded(ctx, notify.FollowerAdded{
			FolloweeID: "u1", FollowerName: "서연",
		}))

		n := lastFor(t, store, "u1")
		assert.Equal(t, "새 팔로워", n.Title)
	})

	t.Run("message received", func(t *testing.T) {
		l, store := newListener(t)
		require.NoError(t, l.OnMessageReceived(ctx, notify.MessageReceived{
			RecipientID: "u1", SenderName: "지우", Preview: "안녕하세요",
		}))

		n := lastFor(t, store, "u1")
		assert.Equal(t, "새 메시지", n.Title)
		assert.Contains(t, n.Body, "지우")
	})

	t.Run("role changed is a warning", func(t *testing.T) {
		l, store := newListener(t)
		require.NoError(t, l.OnRoleChanged(ctx, notify.RoleChanged{
			UserID: "u1", NewRole: "moderator",
		}))

		n := lastFor(t, store, "u1")
		assert.Equal(t, "권한 변경", n.Title)
		assert.Equal(t, notify.SeverityWarn, n.Severity)
	})

	t.Run("send errors surface to the producer", func(t *testing.T) {
		store := notify.NewMemoryStore()
		dir := new(MockDirectory)
		dir.On("Exists", mock.Anything, "ghost").Return(false, nil)

		l := notify.NewListener(notify.NewService(store, dir, nil))
		err := l.OnFollowerAdded(ctx, notify.FollowerAdded{FolloweeID: "ghost", FollowerName: "x"})
		assert.ErrorIs(t, err, notify.ErrRecipientNotFound)
	})
}
