package services

import (
	"context"
	"testing"

	"speed-api/models"
	"speed-api/repositories"
	"speed-api/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestUserServiceUpdateUser(t *testing.T) {
	ctx := context.Background()
	users := repositories.NewUserRepository(testutil.NewDB(t))
	service := NewUserService(users, zap.NewNop())

	user := &models.User{Email: "a@example.com", Password: "x", Name: "A", Role: models.RoleSubmitter}
	require.NoError(t, users.Create(ctx, user))

	updated, err := service.UpdateUser(ctx, user.ID, models.UpdateUserRequest{Role: models.RoleModerator})
	require.NoError(t, err)
	assert.Equal(t, models.RoleModerator, updated.Role)
	assert.Equal(t, "A", updated.Name)

	_, err = service.UpdateUser(ctx, user.ID, models.UpdateUserRequest{Role: "superuser"})
	assert.IsType(t, models.ErrorValidation{}, err)

	_, err = service.UpdateUser(ctx, models.NewObjectID(), models.UpdateUserRequest{Name: "Ghost"})
	assert.IsType(t, models.ErrorNotFound{}, err)

	list, err := service.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, models.RoleModerator, list[0].Role)
}

func TestUserServiceListUsersEmpty(t *testing.T) {
	service := NewUserService(repositories.NewUserRepository(testutil.NewDB(t)), zap.NewNop())

	list, err := service.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
