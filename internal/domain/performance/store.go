package performance

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// withTx runs fn in a transaction that commits only if fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// notFound maps pgx.ErrNoRows and malformed uuid keys to sentinel and passes
// anything else through.
func notFound(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == pgInvalidTextRepr {
		return sentinel
	}
	return err
}

func (s *Store) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, "SELECT id FROM employees WHERE tenant_id = $1 AND user_id = $2", tenantID, userID).Scan(&employeeID)
	if err != nil {
		return "", notFound(err, ErrEmployeeNotFound)
	}
	return employeeID, nil
}

func (s *Store) EmployeeUserID(ctx context.Context, tenantID, employeeID string) (string, error) {
	var userID *string
	err := s.DB.QueryRow(ctx, "SELECT user_id FROM employees WHERE tenant_id = $1 AND id = $2", tenantID, employeeID).Scan(&userID)
	if err != nil {
		return "", notFound(err, ErrEmployeeNotFound)
	}
	if userID == nil {
		return "", nil
	}
	return *userID, nil
}

func (s *Store) EmployeeName(ctx context.Context, tenantID, employeeID string) (string, error) {
	var name string
	err := s.DB.QueryRow(ctx, `
    SELECT trim(first_name || ' ' || last_name)
    FROM employees
    WHERE tenant_id = $1 AND id = $2
  `, tenantID, employeeID).Scan(&name)
	if err != nil {
		return "", notFound(err, ErrEmployeeNotFound)
	}
	return name, nil
}
