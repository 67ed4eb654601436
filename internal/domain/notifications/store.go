package notifications

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) CreateNotification(ctx context.Context, tenantID, userID, ntype, title, body string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO notifications (tenant_id, user_id, type, title, body)
    VALUES ($1,$2,$3,$4,$5)
  `, tenantID, userID, ntype, title, body)
	return err
}

func (s *Store) UserEmail(ctx context.Context, tenantID, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `
    SELECT email FROM users WHERE tenant_id = $1 AND id = $2 AND status = 'active'
  `, tenantID, userID).Scan(&email)
	return email, err
}

func (s *Store) ListNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool, limit, offset int) ([]Notification, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, type, title, body, read_at, created_at
    FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND ($3 = false OR read_at IS NULL)
    ORDER BY created_at DESC
    LIMIT $4 OFFSET $5
  `, tenantID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Body, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) CountNotifications(ctx context.Context, tenantID, userID string, unreadOnly bool) (int, error) {
	var total int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1) FROM notifications
    WHERE tenant_id = $1 AND user_id = $2 AND ($3 = false OR read_at IS NULL)
  `, tenantID, userID, unreadOnly).Scan(&total)
	return total, err
}

// MarkRead keeps the first read timestamp when called twice.
func (s *Store) MarkRead(ctx context.Context, tenantID, userID, notificationID string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE notifications SET read_at = COALESCE(read_at, now())
    WHERE tenant_id = $1 AND user_id = $2 AND id = $3
  `, tenantID, userID, notificationID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}
