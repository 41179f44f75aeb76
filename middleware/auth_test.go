package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"speed-api/config"
	"speed-api/helper"
	"speed-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[string]*models.User

func (s stubUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.ErrorNotFound{Resource: "user"}
}

type failingUsers struct{}

func (failingUsers) GetUserByID(context.Context, string) (*models.User, error) {
	return nil, models.NewStorageError(errors.New("connection refused"))
}

func signToken(t *testing.T, claims models.Claims, key []byte) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(id string, role models.UserRole, expires time.Time) models.Claims {
	return models.Claims{
		UserID: id,
		Email:  id + "@example.com",
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

func newTestRouter(users UserLookup, roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := NewAuthMiddleware(helper.NewHTTPHelper(nil), users)

	router := gin.New()
	handlers := []gin.HandlerFunc{auth.Authenticate()}
	if len(roles) > 0 {
		handlers = append(handlers, auth.RequireRole(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.String(http.StatusOK, string(actor.Role)+" "+actor.Email)
	})
	router.GET("/protected", handlers...)
	return router
}

func call(router *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	router := newTestRouter(nil)
	valid := signToken(t, claimsFor("alice", models.RoleAnalyst, time.Now().Add(time.Hour)), config.JWTSecret)

	tests := []struct {
		name          string
		authorization string
		want          int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"wrong key", "Bearer " + signToken(t, claimsFor("alice", models.RoleAdmin, time.Now().Add(time.Hour)), []byte("other")), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, claimsFor("alice", models.RoleAdmin, time.Now().Add(-time.Minute)), config.JWTSecret), http.StatusUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(router, tt.authorization)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	w := call(router, "Bearer "+valid)
	assert.Equal(t, "analyst alice@example.com", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	router := newTestRouter(nil, models.RoleModerator, models.RoleAdmin)

	submitter := signToken(t, claimsFor("sam", models.RoleSubmitter, time.Now().Add(time.Hour)), config.JWTSecret)
	assert.Equal(t, http.StatusForbidden, call(router, "Bearer "+submitter).Code)

	moderator := signToken(t, claimsFor("mo", models.RoleModerator, time.Now().Add(time.Hour)), config.JWTSecret)
	assert.Equal(t, http.StatusOK, call(router, "Bearer "+moderator).Code)
}

func TestAuthenticateWithUserLookup(t *testing.T) {
	users := stubUsers{
		"carol": {ID: "carol", Email: "carol@example.com", Role: models.RoleSubmitter},
	}
	router := newTestRouter(users, models.RoleAdmin)

	// The token claims admin but the stored role wins.
	stale := signToken(t, claimsFor("carol", models.RoleAdmin, time.Now().Add(time.Hour)), config.JWTSecret)
	assert.Equal(t, http.StatusForbidden, call(router, "Bearer "+stale).Code)

	ghost := signToken(t, claimsFor("ghost", models.RoleAdmin, time.Now().Add(time.Hour)), config.JWTSecret)
	assert.Equal(t, http.StatusUnauthorized, call(router, "Bearer "+ghost).Code)
}

func TestAuthenticateLookupFailureIsInternal(t *testing.T) {
	router := newTestRouter(failingUsers{})
	token := signToken(t, claimsFor("dave", models.RoleAdmin, time.Now().Add(time.Hour)), config.JWTSecret)

	w := call(router, "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
