package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nasir-hacker-7/power.modz.hub/config"
)

// Claims defines JWT claims used in the application. ManualAdmin marks the
// legacy manual admin session; a manual-only token carries no user id.
type Claims struct {
	UserID      uint   `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	ManualAdmin bool   `json:"manual_admin,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken issues a JWT for an identity-provider session.
func GenerateToken(userID uint, username, email string, duration time.Duration) (string, error) {
	return signToken(Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// GenerateManualAdminToken issues a token for the manual backend-bypass
// session. The jti doubles as the key of the durable server-side flag.
func GenerateManualAdminToken(duration time.Duration) (string, string, error) {
	jti := uuid.NewString()
	token, err := signToken(Claims{
		ManualAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	return token, jti, err
}

func signToken(claims Claims) (string, error) {
	cfg := config.Get()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken validates a JWT and returns its claims.
func ParseToken(tokenStr string) (*Claims, error) {
	cfg := config.Get()
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
