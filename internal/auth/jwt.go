package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/routepulse/server/internal/errs"
)

// tokenExpiry is the fixed validity window of an identity token. There is no
// server-side revocation; expiry is the only termination mechanism.
const tokenExpiry = 7 * 24 * time.Hour

// Claims is the fixed claim set carried by every identity token.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed identity tokens. Stateless,
// symmetric-key based; the secret is loaded once at startup.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue creates a signed identity token for a user, valid for 7 days.
func (s *TokenService) Issue(userID uuid.UUID, username, email string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Verify checks signature integrity and expiry and returns the embedded claims.
// Expired and malformed tokens fail with distinct sentinels so callers can log
// the difference; both surface to clients as unauthorized.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", errs.ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", errs.ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errs.ErrTokenInvalid
	}

	return claims, nil
}
