package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// DefaultSessionTTL is one week.
const DefaultSessionTTL = 7 * 24 * time.Hour

var (
	ErrInvalidSession = errors.New("session token is invalid")
	ErrExpiredSession = errors.New("session token is expired")
)

type sessionClaims struct {
	UserID string `json:"user_id"`
	jwt.StandardClaims
}

// Sessions issues and validates HS256-signed session tokens.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Sessions{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns how long issued tokens stay valid.
func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

// Issue returns a signed token for userID and its expiry.
func (s *Sessions) Issue(userID string) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := &sessionClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: expires.Unix(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, expires, nil
}

// Validate returns the user ID carried by token.
func (s *Sessions) Validate(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return "", ErrExpiredSession
		}
		return "", ErrInvalidSession
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidSession
	}
	return claims.UserID, nil
}
