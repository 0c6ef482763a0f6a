package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/promptforge/backend/internal/models"
)

// PostgresStore handles user account CRUD against PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the users table if it doesn't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id                UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name              VARCHAR(100)  NOT NULL,
			email             VARCHAR(255)  UNIQUE NOT NULL,
			password          VARCHAR(255)  NOT NULL,
			request_limit     INT           NOT NULL DEFAULT 10,
			is_2fa_enabled    BOOLEAN       NOT NULL DEFAULT FALSE,
			two_factor_code   VARCHAR(6),
			two_factor_expiry TIMESTAMPTZ,
			created_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW(),
			updated_at        TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

const userColumns = `id, name, email, password, request_limit, is_2fa_enabled,
	two_factor_code, two_factor_expiry, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.RequestLimit,
		&u.Is2FAEnabled, &u.TwoFactorCode, &u.TwoFactorExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, name, email, hashedPassword string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		name, strings.ToLower(email), hashedPassword,
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UpdateProfile sets name and email and bumps updated_at.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id, name, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE users SET name = $2, email = $3, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, name, strings.ToLower(email),
	)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, id, hashedPassword string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`,
		id, hashedPassword)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) Set2FAEnabled(ctx context.Context, id string, enabled bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET is_2fa_enabled = $2, updated_at = NOW() WHERE id = $1`,
		id, enabled)
	if err != nil {
		return fmt.Errorf("set 2fa enabled: %w", err)
	}
	return nil
}

// SetTwoFactorCode stores a pending login challenge on the user row.
func (s *PostgresStore) SetTwoFactorCode(ctx context.Context, id, code string, expiry time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET two_factor_code = $2, two_factor_expiry = $3 WHERE id = $1`,
		id, code, expiry)
	if err != nil {
		return fmt.Errorf("set 2fa code: %w", err)
	}
	return nil
}

// ClearTwoFactorCode wipes the challenge so a verified code cannot be replayed.
func (s *PostgresStore) ClearTwoFactorCode(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE users SET two_factor_code = NULL, two_factor_expiry = NULL WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("clear 2fa code: %w", err)
	}
	return nil
}
