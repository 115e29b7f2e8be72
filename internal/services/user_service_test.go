package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/config"
	"clinic-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memUsers struct {
	mu    sync.Mutex
	users []*models.User
}

func (r *memUsers) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = len(r.users) + 1
	u.IsActive = true
	r.users = append(r.users, u)
	return nil
}

func (r *memUsers) Get(ctx context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", id)
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", 0)
}

func (r *memUsers) Count(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func newUserFixture(t *testing.T) (*UserService, *memUsers) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Issuer = "clinic-backend"
	cfg.JWT.ExpirationHours = 1

	repo := &memUsers{}
	return NewUserService(repo, auth.NewJWTManager(cfg), zap.NewNop()), repo
}

func TestEnsureAdminOnlyOnEmptyDatabase(t *testing.T) {
	svc, repo := newUserFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "Administrador", "admin@clinica.test", "troque-me"))
	require.Len(t, repo.users, 1)
	assert.Equal(t, models.RoleAdmin, repo.users[0].Role)
	assert.NotEqual(t, "troque-me", repo.users[0].PasswordHash)

	require.NoError(t, svc.EnsureAdmin(ctx, "Outro", "outro@clinica.test", "x"))
	assert.Len(t, repo.users, 1)
}

func TestLogin(t *testing.T) {
	svc, _ := newUserFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.EnsureAdmin(ctx, "Administrador", "admin@clinica.test", "troque-me"))

	res, err := svc.Login(ctx, &models.LoginRequest{Email: "ADMIN@clinica.test", Password: "troque-me"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Administrador", res.User.Name)

	claims, err := svc.JWTManager.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "admin@clinica.test", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &models.LoginRequest{Email: "nobody@clinica.test", Password: "troque-me"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, &models.LoginRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestEnsureAdminRejectsWeakPassword(t *testing.T) {
	svc, repo := newUserFixture(t)

	err := svc.EnsureAdmin(context.Background(), "Administrador", "admin@clinica.test", "123")
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
	assert.Empty(t, repo.users)
}
