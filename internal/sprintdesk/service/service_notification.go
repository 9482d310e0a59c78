package service

import (
	"context"

	"sprintdesk/internal/sprintdesk/model"
)

func (s *Service) ListNotifications(ctx context.Context, caller model.Caller, req model.ListNotificationsReq) (*model.Page[model.Notification], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	items, total, err := s.Notifications.ListForUser(ctx, caller.ID, req)
	if err != nil {
		return nil, err
	}
	return model.NewPage(items, req.PageReq, total), nil
}

func (s *Service) UnreadCount(ctx context.Context, caller model.Caller) (*model.UnreadCount, error) {
	n, err := s.Notifications.CountUnread(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	return &model.UnreadCount{Unread: n}, nil
}

// MarkNotificationRead only touches the caller's own notifications.
func (s *Service) MarkNotificationRead(ctx context.Context, caller model.Caller, id string) error {
	if err := s.Notifications.MarkRead(ctx, caller.ID, id, s.clock()); err != nil {
		return notFoundAs(err, "notification")
	}
	return nil
}

func (s *Service) MarkAllNotificationsRead(ctx context.Context, caller model.Caller) (int64, error) {
	return s.Notifications.MarkAllRead(ctx, caller.ID, s.clock())
}

func (s *Service) DeleteNotification(ctx context.Context, caller model.Caller, id string) error {
	if err := s.Notifications.Delete(ctx, caller.ID, id); err != nil {
		return notFoundAs(err, "notification")
	}
	return nil
}
