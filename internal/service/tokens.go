package service

import (
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ohmylink/internal/errs"
)

// Tokens issues and verifies HS256 access tokens whose subject is the user id.
type Tokens struct {
	signKey []byte
	ttl     time.Duration
	leeway  time.Duration
	now     func() time.Time
}

// NewTokens constructs a token service.
func NewTokens(signKey []byte, ttl time.Duration) *Tokens {
	return &Tokens{signKey: signKey, ttl: ttl, leeway: 30 * time.Second, now: time.Now}
}

// Issue creates a signed token for userID.
func (t *Tokens) Issue(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("empty user id")
	}
	now := t.now()
	exp := now.Add(t.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signKey)
	return signed, exp, err
}

// Verify checks signature, algorithm and validity window and returns the subject.
// Every failure wraps ErrUnauthorized.
func (t *Tokens) Verify(token string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (any, error) {
		if tk.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return t.signKey, nil
	}, jwt.WithLeeway(t.leeway), jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.Join(errs.ErrUnauthorized, err)
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errors.Join(errs.ErrUnauthorized, errors.New("bad subject"))
	}
	return id, nil
}
