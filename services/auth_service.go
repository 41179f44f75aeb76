package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"speed-api/config"
	"speed-api/models"
	"speed-api/repositories"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const passwordCost = 12

var errInvalidCredentials = models.ErrorUnauthorized{Message: "invalid credentials"}

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
	policy   config.AuthConfig
	logger   *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, policy config.AuthConfig, logger *zap.Logger) AuthService {
	return &authService{userRepo: userRepo, policy: policy, logger: logger, now: time.Now}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Role != "" && req.Role != models.RoleSubmitter && !s.policy.AllowRoleSelection {
		return nil, models.ErrorForbidden{Message: "registration only grants the submitter role"}
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err == nil && existing != nil {
		return nil, models.ErrorConflict{Message: "user already exists"}
	}
	var notFound models.ErrorNotFound
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return nil, models.ErrorInternalServer{Message: "failed to hash password", Err: err}
	}

	role := req.Role
	if role == "" {
		role = models.RoleSubmitter
	}

	user := &models.User{
		Email:    req.Email,
		Password: string(hashed),
		Name:     strings.TrimSpace(req.Name),
		Role:     role,
	}
	// The unique index still catches a concurrent registration that slipped past the lookup.
	if err := s.userRepo.Create(ctx, user); err != nil {
		var conflict models.ErrorConflict
		if errors.As(err, &conflict) {
			return nil, models.ErrorConflict{Message: "user already exists"}
		}
		return nil, err
	}

	s.logger.Info("User registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.authResponse(user)
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		var notFound models.ErrorNotFound
		if errors.As(err, &notFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errInvalidCredentials
	}

	return s.authResponse(user)
}

func (s *authService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *authService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: *user}, nil
}

func (s *authService) generateToken(user *models.User) (string, error) {
	now := s.now()

	claims := models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.JWTExpiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.JWTSecret)
	if err != nil {
		return "", models.ErrorInternalServer{Message: "failed to sign token", Err: err}
	}
	return signed, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
