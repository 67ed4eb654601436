package notifications

import "context"

type StoreAPI interface {
	CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error
	UserEmail(ctx context.Context, tenantID, userID string) (string, error)
	ListNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error)
	CountNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error)
	MarkRead(ctx context.Context, tenantID, userID, notificationID string) error
}
