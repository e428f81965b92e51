package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"pcbuild_backend/internal/auth/repository"
	"pcbuild_backend/platform/apperr"
)

type fakeAuthRepo struct {
	usersByEmail map[string]repository.User
	usersByID    map[uuid.UUID]repository.User
	tokens       map[string]storedToken
}

type storedToken struct {
	userID    uuid.UUID
	expiresAt time.Time
	revoked   bool
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail: make(map[string]repository.User),
		usersByID:    make(map[uuid.UUID]repository.User),
		tokens:       make(map[string]storedToken),
	}
}

func (f *fakeAuthRepo) CreateUser(_ context.Context, email, passwordHash string, roles []string) (repository.User, error) {
	if _, exists := f.usersByEmail[email]; exists {
		return repository.User{}, apperr.Conflict("email is already registered")
	}
	user := repository.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    time.Now().Format(time.RFC3339),
	}
	f.usersByEmail[email] = user
	f.usersByID[user.ID] = user
	return user, nil
}

func (f *fakeAuthRepo) GetUserByEmail(_ context.Context, email string) (repository.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeAuthRepo) GetUserByID(_ context.Context, userID uuid.UUID) (repository.User, error) {
	user, ok := f.usersByID[userID]
	if !ok {
		return repository.User{}, apperr.NotFound("user not found")
	}
	return user, nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	f.tokens[tokenHash] = storedToken{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeAuthRepo) GetRefreshToken(_ context.Context, tokenHash string) (uuid.UUID, time.Time, error) {
	stored, ok := f.tokens[tokenHash]
	if !ok || stored.revoked {
		return uuid.Nil, time.Time{}, apperr.NotFound("refresh token not found")
	}
	return stored.userID, stored.expiresAt, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	stored, ok := f.tokens[tokenHash]
	if !ok {
		return nil
	}
	stored.revoked = true
	f.tokens[tokenHash] = stored
	return nil
}

func (f *fakeAuthRepo) RevokeAllRefreshTokens(_ context.Context, userID uuid.UUID) error {
	for hash, stored := range f.tokens {
		if stored.userID == userID {
			stored.revoked = true
			f.tokens[hash] = stored
		}
	}
	return nil
}

type testAuthConfig struct{}

func (testAuthConfig) GetJWTAccessSecret() string        { return "test-secret" }
func (testAuthConfig) GetAccessTokenTTL() time.Duration  { return 15 * time.Minute }
func (testAuthConfig) GetRefreshTokenTTL() time.Duration { return 24 * time.Hour }

func newTestService() (*Service, *fakeAuthRepo) {
	repo := newFakeAuthRepo()
	return New(repo, testAuthConfig{}, nil), repo
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "hunter2hunter2" {
		t.Fatal("password stored in plaintext")
	}
	if len(user.Roles) != 1 || user.Roles[0] != "user" {
		t.Fatalf("roles = %v, want [user]", user.Roles)
	}

	pair, err := svc.Login(ctx, "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}

	parsed, err := jwt.Parse(pair.AccessToken, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != user.ID.String() {
		t.Fatalf("sub = %v, want %s", claims["sub"], user.ID)
	}
}

func TestLogin_WrongPasswordIndistinguishableFromUnknownEmail(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "correct-password"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errWrongPass := svc.Login(ctx, "user@example.com", "wrong-password")
	_, errNoUser := svc.Login(ctx, "nobody@example.com", "whatever-password")

	for name, err := range map[string]error{"wrong password": errWrongPass, "unknown email": errNoUser} {
		if !apperr.Is(err, apperr.KindUnauthorized) {
			t.Errorf("%s: kind = %v, want unauthorized", name, apperr.GetKind(err))
		}
		if err.Error() != "invalid credentials" {
			t.Errorf("%s: message = %q, want generic message", name, err.Error())
		}
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token was not rotated")
	}

	// The presented token is revoked; replaying it must fail.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("replayed refresh: kind = %v, want unauthorized", apperr.GetKind(err))
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	for hash, stored := range repo.tokens {
		if stored.userID == user.ID {
			stored.expiresAt = time.Now().Add(-time.Minute)
			repo.tokens[hash] = stored
		}
	}

	if _, err := svc.Refresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("expired refresh: kind = %v, want unauthorized", apperr.GetKind(err))
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "user@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "user@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("refresh after logout: kind = %v, want unauthorized", apperr.GetKind(err))
	}
}
