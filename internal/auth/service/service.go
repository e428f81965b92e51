// Package service implements account registration, login, and token
// lifecycle for the auth module.
package service

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pcbuild_backend/internal/auth/password"
	"pcbuild_backend/internal/auth/repository"
	"pcbuild_backend/internal/auth/token"
	"pcbuild_backend/internal/events"
	"pcbuild_backend/platform/apperr"
	"pcbuild_backend/platform/config"
)

const (
	accessTokenType  = "access"
	refreshTokenType = "refresh"

	invalidCredentialsMessage = "invalid credentials"
	invalidRefreshMessage     = "invalid refresh token"
)

// TokenPair is an issued access/refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service implements the auth use cases.
type Service struct {
	repo repository.AuthRepository
	cfg  config.AuthServiceConfig
	bus  events.Bus
}

// New creates the auth service.
func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, bus events.Bus) *Service {
	return &Service{repo: repo, cfg: cfg, bus: bus}
}

// Register creates an account and publishes UserRegistered.
func (s *Service) Register(ctx context.Context, email, plainPassword string) (repository.User, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return repository.User{}, err
	}

	user, err := s.repo.CreateUser(ctx, email, hash, []string{"user"})
	if err != nil {
		return repository.User{}, err
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.UserRegistered{
			BaseEvent: events.NewBaseEvent(),
			UserID:    user.ID,
			Email:     user.Email,
		})
	}
	return user, nil
}

// Login verifies credentials and issues a token pair. Lookup and password
// failures are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, plainPassword string) (TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(invalidCredentialsMessage)
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return TokenPair{}, apperr.Unauthorized(invalidCredentialsMessage)
	}
	return s.issueTokens(ctx, user.ID, user.Roles)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	hash := token.HashSHA256(refreshToken)
	userID, expiresAt, err := s.repo.GetRefreshToken(ctx, hash)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(invalidRefreshMessage)
	}
	if time.Now().After(expiresAt) {
		_ = s.repo.RevokeRefreshToken(ctx, hash)
		return TokenPair{}, apperr.Unauthorized(invalidRefreshMessage)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return TokenPair{}, apperr.Unauthorized(invalidRefreshMessage)
	}

	if err := s.repo.RevokeRefreshToken(ctx, hash); err != nil {
		return TokenPair{}, err
	}
	return s.issueTokens(ctx, user.ID, user.Roles)
}

// Logout revokes the presented refresh token.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.repo.RevokeRefreshToken(ctx, token.HashSHA256(refreshToken))
}

// GetUser returns the account for an authenticated user ID.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *Service) issueTokens(ctx context.Context, userID uuid.UUID, roles []string) (TokenPair, error) {
	accessToken, err := s.signJWT(userID, roles, s.cfg.GetAccessTokenTTL())
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := token.GenerateRandomToken(48)
	if err != nil {
		return TokenPair{}, err
	}

	expiresAt := time.Now().Add(s.cfg.GetRefreshTokenTTL())
	if err := s.repo.CreateRefreshToken(ctx, userID, token.HashSHA256(refreshToken), expiresAt); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) signJWT(userID uuid.UUID, roles []string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   userID.String(),
		"type":  accessTokenType,
		"roles": roles,
		"exp":   time.Now().Add(ttl).Unix(),
		"iat":   time.Now().Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
