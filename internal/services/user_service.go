package services

import (
	"context"
	"errors"
	"strings"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/auth"
	"clinic-backend/internal/models"

	"go.uber.org/zap"
)

// ErrInvalidCredentials is returned for any failed login
var ErrInvalidCredentials = errors.New("invalid email or password")

// UserStore is the persistence surface for staff accounts
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

type UserService struct {
	Repo       UserStore
	JWTManager *auth.JWTManager
	logger     *zap.Logger
}

func NewUserService(repo UserStore, jwtManager *auth.JWTManager, logger *zap.Logger) *UserService {
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		logger:     logger,
	}
}

// Login checks credentials and issues a token
func (s *UserService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperr.Validation("", "email and password are required")
	}

	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive || !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

func (s *UserService) GetUser(ctx context.Context, id int) (*models.User, error) {
	return s.Repo.Get(ctx, id)
}

// EnsureAdmin creates the first admin account on an empty database.
// Nothing happens once any user exists.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	n, err := s.Repo.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if email == "" || password == "" {
		s.logger.Warn("no users exist and no bootstrap admin is configured")
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.User{Name: name, Email: email, PasswordHash: hash, Role: models.RoleAdmin}
	if err := s.Repo.Create(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("bootstrap admin created", zap.String("email", email), zap.Int("user_id", admin.ID))
	return nil
}
