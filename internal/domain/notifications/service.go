package notifications

import (
	"context"

	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store  StoreAPI
	mailer Mailer
	from   string
	log    *zap.Logger
}

// New builds the service. A nil mailer disables e-mail copies.
func New(store StoreAPI, mailer Mailer, from string, log *zap.Logger) *Service {
	return &Service{store: store, mailer: mailer, from: from, log: log.Named("notifications")}
}

// Create stores the in-app notification and, when mail is configured, sends
// an e-mail copy. Mail failures are logged and never returned.
func (s *Service) Create(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, tenantID, userID, ntype, title, body); err != nil {
		return err
	}
	if s.mailer == nil {
		return nil
	}

	email, err := s.store.UserEmail(ctx, tenantID, userID)
	if err != nil {
		s.log.Warn("notification email lookup failed", zap.String("userId", userID), zap.Error(err))
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.mailer.Send(ctx, s.from, email, title, body); err != nil {
		s.log.Warn("notification email send failed", zap.String("userId", userID), zap.String("type", ntype), zap.Error(err))
	}
	return nil
}

func (s *Service) List(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, tenantID, userID, unreadOnly, limit, offset)
}

func (s *Service) Count(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error) {
	return s.store.CountNotifications(ctx, tenantID, userID, unreadOnly)
}

func (s *Service) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	return s.store.MarkRead(ctx, tenantID, userID, notificationID)
}
