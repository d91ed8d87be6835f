package crypto

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"yojiquiz/domain"
)

// sessionClaims binds a player id (the subject) to the room it was issued for.
type sessionClaims struct {
	Room string `json:"room"`
	jwt.RegisteredClaims
}

// JWTManager issues the session tokens a dropped player presents to resume.
type JWTManager struct {
	secretKey []byte
	maxAge    time.Duration
	now       func() time.Time
}

func NewJWTManager(secretKey string, maxAge time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		maxAge:    maxAge,
		now:       time.Now,
	}
}

func (m *JWTManager) Generate(playerID, roomCode string) (string, error) {
	now := m.now()
	claims := sessionClaims{
		Room: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   playerID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.TokenError, err)
	}
	return signedToken, nil
}

func (m *JWTManager) Verify(tokenString string) (string, string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidSigningAlg
		}
		return m.secretKey, nil
	}, jwt.WithTimeFunc(m.now))

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidSigningAlg):
			return "", "", err
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", "", domain.ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return "", "", domain.ErrInvalidTokenSignature
		case errors.Is(err, jwt.ErrTokenMalformed):
			return "", "", domain.ErrCorruptedToken
		default:
			return "", "", fmt.Errorf("%w: %w", domain.TokenError, err)
		}
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.Room == "" {
		return "", "", domain.ErrCorruptedToken
	}
	return claims.Subject, claims.Room, nil
}
