package config

import (
	"os"
	"time"
)

var JWTSecret []byte
var JWTExpiration time.Duration

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "fallback_secret"
	}
	JWTSecret = []byte(secret)
	JWTExpiration = 7 * 24 * time.Hour
}

// SetJWTSecret replaces the signing key. It is called after .env has been loaded,
// since init runs before godotenv.
func SetJWTSecret(secret string) {
	if secret != "" {
		JWTSecret = []byte(secret)
	}
}
