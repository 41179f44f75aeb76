package services

import (
	"context"
	"strings"

	"speed-api/models"
	"speed-api/repositories"

	"go.uber.org/zap"
)

type UserService interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	logger   *zap.Logger
}

func NewUserService(userRepo repositories.UserRepository, logger *zap.Logger) UserService {
	return &userService{userRepo: userRepo, logger: logger}
}

func (s *userService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, id string, req models.UpdateUserRequest) (*models.User, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields["name"] = name
	}
	if req.Role != "" {
		fields["role"] = req.Role
	}

	user, err := s.userRepo.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if req.Role != "" {
		s.logger.Info("User role changed", zap.String("user_id", id), zap.String("role", string(req.Role)))
	}
	return user, nil
}
