package middleware

import (
	"context"
	"errors"
	"strings"

	"speed-api/config"
	"speed-api/helper"
	"speed-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// UserLookup reloads the identity behind a token.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type AuthMiddleware struct {
	http  *helper.HTTPHelper
	users UserLookup
}

// NewAuthMiddleware trusts token claims when users is nil. Otherwise each
// request reloads the user and the stored role wins over the claim.
func NewAuthMiddleware(httpHelper *helper.HTTPHelper, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{http: httpHelper, users: users}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.http.SendUnauthorizedError(c, "Authorization header required", m.http.EmptyJsonMap())
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			m.http.SendUnauthorizedError(c, "Bearer token required", m.http.EmptyJsonMap())
			c.Abort()
			return
		}

		claims := &models.Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return config.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			m.http.SendUnauthorizedError(c, "Invalid or expired token", m.http.EmptyJsonMap())
			c.Abort()
			return
		}

		actor := models.Actor{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}
		if m.users != nil {
			user, err := m.users.GetUserByID(c.Request.Context(), claims.UserID)
			var notFound models.ErrorNotFound
			if errors.As(err, &notFound) {
				m.http.SendUnauthorizedError(c, "User no longer exists", m.http.EmptyJsonMap())
				c.Abort()
				return
			}
			if err != nil {
				m.http.SendServiceError(c, err)
				c.Abort()
				return
			}
			actor = models.Actor{UserID: user.ID, Email: user.Email, Role: user.Role}
		}

		c.Set(ctxUserID, actor.UserID)
		c.Set(ctxEmail, actor.Email)
		c.Set(ctxRole, actor.Role)

		c.Next()
	}
}

// RequireRole must run after Authenticate.
func (m *AuthMiddleware) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			m.http.SendUnauthorizedError(c, "User role not found", m.http.EmptyJsonMap())
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		m.http.SendForbiddenError(c, "Insufficient permissions", m.http.EmptyJsonMap())
		c.Abort()
	}
}

// ActorFromContext returns the caller identified by Authenticate.
func ActorFromContext(c *gin.Context) (models.Actor, bool) {
	role, exists := c.Get(ctxRole)
	if !exists {
		return models.Actor{}, false
	}
	userRole, ok := role.(models.UserRole)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{
		UserID: c.GetString(ctxUserID),
		Email:  c.GetString(ctxEmail),
		Role:   userRole,
	}, true
}
