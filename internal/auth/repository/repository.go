// Package repository persists user accounts and refresh tokens.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pcbuild_backend/platform/apperr"
)

const (
	userNotFoundMessage  = "user not found"
	emailTakenMessage    = "email is already registered"
	tokenNotFoundMessage = "refresh token not found"

	uniqueViolationCode = "23505"
)

// Repo implements AuthRepository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new auth repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements AuthRepository.
var _ AuthRepository = (*Repo)(nil)

// CreateUser creates an account. Duplicate emails conflict.
func (r *Repo) CreateUser(ctx context.Context, email, passwordHash string, roles []string) (User, error) {
	query := `
		INSERT INTO users (email, password_hash, roles)
		VALUES ($1, $2, $3)
		RETURNING id, email, password_hash, roles, created_at`

	var user User
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, strings.ToLower(email), passwordHash, roles).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Roles, &createdAt,
	); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return User{}, apperr.Conflict(emailTakenMessage)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	user.CreatedAt = createdAt.Format(time.RFC3339)
	return user, nil
}

// GetUserByEmail looks an account up by email.
func (r *Repo) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, roles, created_at
		FROM users
		WHERE email = $1`

	return r.getUser(ctx, query, strings.ToLower(email))
}

// GetUserByID looks an account up by ID.
func (r *Repo) GetUserByID(ctx context.Context, userID uuid.UUID) (User, error) {
	query := `
		SELECT id, email, password_hash, roles, created_at
		FROM users
		WHERE id = $1`

	return r.getUser(ctx, query, userID)
}

func (r *Repo) getUser(ctx context.Context, query string, arg any) (User, error) {
	var user User
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Roles, &createdAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, apperr.NotFound(userNotFoundMessage)
		}
		return User{}, fmt.Errorf("get user: %w", err)
	}
	user.CreatedAt = createdAt.Format(time.RFC3339)
	return user, nil
}

// CreateRefreshToken stores a hashed refresh token.
func (r *Repo) CreateRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)`
	if _, err := r.pool.Exec(ctx, query, userID, tokenHash, expiresAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// GetRefreshToken resolves a hashed refresh token to its user and expiry.
func (r *Repo) GetRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	query := `
		SELECT user_id, expires_at
		FROM refresh_tokens
		WHERE token_hash = $1 AND revoked_at IS NULL`

	var userID uuid.UUID
	var expiresAt time.Time
	if err := r.pool.QueryRow(ctx, query, tokenHash).Scan(&userID, &expiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, time.Time{}, apperr.NotFound(tokenNotFoundMessage)
		}
		return uuid.Nil, time.Time{}, fmt.Errorf("get refresh token: %w", err)
	}
	return userID, expiresAt, nil
}

// RevokeRefreshToken marks a single refresh token revoked.
func (r *Repo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, tokenHash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllRefreshTokens revokes every live refresh token of a user.
func (r *Repo) RevokeAllRefreshTokens(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}
	return nil
}
