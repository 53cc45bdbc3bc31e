package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fontcap/fontcap-server/internal/model"
)

// Claims represents JWT claims carrying the user ID.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"user_id"`
}

// JWT resolves bearer credentials issued by the auth system, backed by
// symmetric HMAC.
type JWT struct {
	secretKey string
}

var _ model.TokenResolver = (*JWT)(nil)

// NewJWT creates a new JWT resolver with the provided secret key.
func NewJWT(secretKey string) *JWT {
	return &JWT{secretKey: secretKey}
}

const accessTTL = 24 * time.Hour

// Generate creates a signed token for userID. The server does not issue
// credentials in production; this exists for tooling and tests.
func (j *JWT) Generate(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTTL)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Resolve validates the token and extracts the user ID.
func (j *JWT) Resolve(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", model.ErrUnauthorized, err)
	}
	if !token.Valid {
		return uuid.Nil, model.ErrUnauthorized
	}
	if claims.UserID == uuid.Nil {
		return uuid.Nil, model.ErrUnauthorized
	}
	return claims.UserID, nil
}
