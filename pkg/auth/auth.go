// Package auth provides HS256 JWT generation and parsing for service tokens.
// The bot service has no end users: callers are other backend services that
// present a pre-issued Bearer token on every request. This is a leaf package
// with no domain dependencies, used by internal/api/middleware.
package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenExpiry is the token lifetime in hours when JWT_EXPIRY is unset.
const DefaultTokenExpiry = 24

const (
	envJWTSecret = "JWT_SECRET"
	envJWTExpiry = "JWT_EXPIRY"
)

// Claims carries the calling service's identity plus standard JWT claims.
type Claims struct {
	ServiceID string `json:"service_id"`
	jwt.RegisteredClaims
}

// getJWTSecret reads JWT_SECRET from the environment. Panics if not set —
// auth must not be initializable without a secret configured.
func getJWTSecret() []byte {
	secret := os.Getenv(envJWTSecret)
	if secret == "" {
		panic(envJWTSecret + " environment variable not set — cannot initialize auth")
	}
	return []byte(secret)
}

// parseTokenExpiry parses an expiry string (hours) into a Duration.
// Returns DefaultTokenExpiry for empty or invalid values (graceful degradation).
func parseTokenExpiry(expiryStr string) time.Duration {
	if expiryStr == "" {
		return time.Duration(DefaultTokenExpiry) * time.Hour
	}

	hours, err := strconv.Atoi(expiryStr)
	if err != nil {
		return time.Duration(DefaultTokenExpiry) * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// getTokenExpiry reads JWT_EXPIRY (hours) from the environment.
func getTokenExpiry() time.Duration {
	return parseTokenExpiry(os.Getenv(envJWTExpiry))
}

// GenerateToken creates a signed HS256 JWT for the given calling service.
// Panics if JWT_SECRET is not set (fail-fast for configuration errors).
func GenerateToken(serviceID string) (string, error) {
	now := time.Now()

	claims := &Claims{
		ServiceID: serviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(getTokenExpiry())),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(getJWTSecret())
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, nil
}

// ParseToken validates a JWT and extracts its claims.
// Returns an error if the token is invalid, expired, or malformed.
func ParseToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method is HMAC-SHA256 (prevent algorithm substitution attacks)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return getJWTSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT claims or signature")
	}

	return claims, nil
}
