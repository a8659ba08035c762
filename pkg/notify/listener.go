package notify

import (
	"context"
	"fmt"
)

// PostLiked is emitted after a like on a post has been committed.
type PostLiked struct {
	PostOwnerID string
	LikerName   string
	PostTitle   string
}

// CommentAdded is emitted after a comment on a post has been committed.
type CommentAdded struct {
	PostOwnerID   string
	CommenterName string
	Excerpt       string
}

// FollowerAdded is emitted after a follow relationship has been committed.
type FollowerAdded struct {
	FolloweeID   string
	FollowerName string
}

// MessageReceived is emitted after a direct message has been committed.
type MessageReceived struct {
	RecipientID string
	SenderName  string
	Preview     string
}

// RoleChanged is emitted after a user's role has been updated.
type RoleChanged struct {
	UserID  string
	NewRole string
}

// Listener translates committed business events into notifications.
// Callers must invoke it only after the triggering transaction has been
// durably committed; the listener itself never publishes ahead of the
// notification store write (Service.Send owns that ordering).
//
// Each handler returns the error from Service.Send unchanged so the
// producer can react to ErrRecipientNotFound or a store failure. A
// failed live publish is already swallowed inside the service.
type Listener struct {
	svc *Service
}

// NewListener creates a business-event listener on top of the service.
func NewListener(svc *Service) *Listener {
	return &Listener{svc: svc}
}

func (l *Listener) OnPostLiked(ctx context.Context, e PostLiked) error {
	body := fmt.Sprintf("%s님이 '%s' 게시물을 좋아합니다.", e.LikerName, e.PostTitle)
	_, err := l.svc.Send(ctx, e.PostOwnerID, "새 좋아요", body, SeverityInfo)
	return err
}

func (l *Listener) OnCommentAdded(ctx context.Context, e CommentAdded) error {
	body := fmt.Sprintf("%s님의 댓글: %s", e.CommenterName, e.Excerpt)
	_, err := l.svc.Send(ctx, e.PostOwnerID, "새 댓글", body, SeverityInfo)
	return err
}

func (l *Listener) OnFollowerAdded(ctx context.Context, e FollowerAdded) error {
	body := fmt.Sprintf("%s님이 회원님을 팔로우하기 시작했습니다.", e.FollowerName)
	_, err := l.svc.Send(ctx, e.FolloweeID, "새 팔로워", body, SeverityInfo)
	return err
}

func (l *Listener) OnMessageReceived(ctx context.Context, e MessageReceived) error {
	body := fmt.Sprintf("%s: %s", e.SenderName, e.Preview)
	_, err := l.svc.Send(ctx, e.RecipientID, "새 메시지", body, SeverityInfo)
	return err
}

func (l *Listener) OnRoleChanged(ctx context.Context, e RoleChanged) error {
	body := fmt.Sprintf("회원님의 권한이 %s(으)로 변경되었습니다.", e.NewRole)
	_, err := l.svc.Send(ctx, e.UserID, "권한 변경", body, SeverityWarn)
	return err
}
