package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/break-social/internal/model"
	"github.com/d60-Lab/break-social/internal/repository"
	"github.com/d60-Lab/break-social/pkg/logger"
)

type SendMessageInput struct {
	SenderID   string  `json:"-" validate:"required"`
	ReceiverID string  `json:"receiver_id" validate:"required,nefield=SenderID"`
	Content    string  `json:"content" validate:"required,max=2000"`
	ListingID  *string `json:"listing_id"`
}

// ProfileLoader 批量加载会话对方资料
type ProfileLoader interface {
	Load(ctx context.Context, ids []string) (map[string]*model.Profile, error)
}

type MessageService struct {
	messages      repository.MessageRepository
	notifications repository.NotificationRepository
	profiles      ProfileLoader
	now           func() time.Time
}

func NewMessageService(messages repository.MessageRepository, notifications repository.NotificationRepository, profiles ProfileLoader) *MessageService {
	return &MessageService{messages: messages, notifications: notifications, profiles: profiles, now: time.Now}
}

func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (*model.Message, error) {
	const op = "message.send"
	in.Content = strings.TrimSpace(in.Content)
	if err := check(op, in); err != nil {
		return nil, err
	}
	m := &model.Message{SenderID: in.SenderID, ReceiverID: in.ReceiverID, Content: in.Content, ListingID: in.ListingID}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, newError(CodeWriteFailed, op, err)
	}

	n, err := model.NewNotification("", in.ReceiverID, "You have a new message",
		model.NewMessagePayload{MessageID: m.ID, SenderID: in.SenderID, ListingID: in.ListingID})
	if err == nil {
		err = s.notifications.Create(ctx, n)
	}
	if err != nil {
		logger.Warn("message notification failed", zap.String("message", m.ID),
			zap.Error(newError(CodeNotificationSideEffect, op, err)))
	}
	return m, nil
}

// Conversations 按对方分组，最近的会话在前。
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]*model.Conversation, error) {
	rows, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, newError(CodeTransientFetch, "message.conversations", err)
	}

	byOther := make(map[string]*model.Conversation)
	var order []string
	for _, m := range rows {
		other := m.SenderID
		if other == userID {
			other = m.ReceiverID
		}
		c, ok := byOther[other]
		if !ok {
			// rows 按时间倒序，第一条即最新
			c = &model.Conversation{OtherUserID: other, LastMessage: *m}
			byOther[other] = c
			order = append(order, other)
		}
		if m.ReceiverID == userID && m.ReadAt == nil {
			c.Unread++
		}
	}

	if s.profiles != nil && len(order) > 0 {
		profiles, err := s.profiles.Load(ctx, order)
		if err != nil {
			logger.Warn("load conversation profiles failed", zap.Error(err))
		} else {
			for id, p := range profiles {
				if c, ok := byOther[id]; ok {
					c.Other = p
				}
			}
		}
	}

	out := make([]*model.Conversation, 0, len(order))
	for _, id := range order {
		out = append(out, byOther[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastMessage.CreatedAt.After(out[j].LastMessage.CreatedAt)
	})
	return out, nil
}

func (s *MessageService) Conversation(ctx context.Context, userID, otherID string) ([]*model.Message, error) {
	res, err := s.messages.Conversation(ctx, userID, otherID)
	if err != nil {
		return nil, newError(CodeTransientFetch, "message.conversation", err)
	}
	return res, nil
}

// MarkRead 只有接收方可以标记；已读过的保持原时间。
func (s *MessageService) MarkRead(ctx context.Context, actorID, messageID string) error {
	const op = "message.mark_read"
	m, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if repository.IsNotFound(err) {
			return newError(CodeNotFound, op, err)
		}
		return newError(CodeTransientFetch, op, err)
	}
	if m.ReceiverID != actorID {
		return forbidden(op)
	}
	if _, err := s.messages.MarkRead(ctx, messageID, s.now()); err != nil {
		return newError(CodeWriteFailed, op, err)
	}
	return nil
}
