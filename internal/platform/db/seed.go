package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"appraisal/internal/domain/auth"
	"appraisal/internal/platform/config"
)

// Seed makes sure the configured tenant exists and, when credentials are
// configured, an HR administrator with a matching employee profile.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	tenantID, err := ensureTenant(ctx, pool, cfg.SeedTenantName)
	if err != nil {
		return err
	}
	return ensureAdminUser(ctx, pool, tenantID, cfg.SeedAdminEmail, cfg.SeedAdminPassword)
}

func ensureTenant(ctx context.Context, pool *pgxpool.Pool, name string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM tenants WHERE name = $1", name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}
	err = pool.QueryRow(ctx, "INSERT INTO tenants (name) VALUES ($1) RETURNING id", name).Scan(&id)
	return id, err
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, tenantID, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}

	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.QueryRow(ctx, `
    INSERT INTO users (tenant_id, email, password_hash, role)
    VALUES ($1,$2,$3,$4) RETURNING id
  `, tenantID, email, hash, auth.RoleHR).Scan(&id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
    INSERT INTO employees (tenant_id, user_id, first_name, last_name)
    VALUES ($1,$2,'HR','Admin')
  `, tenantID, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
