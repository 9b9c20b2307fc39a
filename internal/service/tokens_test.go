package service

import (
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ohmylink/internal/errs"
)

func TestTokens_IssueVerify(t *testing.T) {
	t.Parallel()

	tk := NewTokens([]byte("secret"), time.Hour)
	user := uuid.Must(uuid.NewV4())
	tok, exp, err := tk.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Fatalf("bad expiry %v", exp)
	}
	got, err := tk.Verify(tok)
	if err != nil || got != user {
		t.Fatalf("Verify: %s %v", got, err)
	}

	if _, _, err := tk.Issue(uuid.Nil); err == nil {
		t.Fatalf("want error on nil user")
	}
}

func TestTokens_VerifyRejects(t *testing.T) {
	t.Parallel()

	key := []byte("secret")
	tk := NewTokens(key, time.Hour)
	user := uuid.Must(uuid.NewV4()).String()
	sign := func(m jwt.SigningMethod, sub string, k []byte, iat time.Time, ttl time.Duration) string {
		s, err := jwt.NewWithClaims(m, jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(ttl)),
		}).SignedString(k)
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}
	now := time.Now()
	cases := map[string]string{
		"expired":     sign(jwt.SigningMethodHS256, user, key, now.Add(-2*time.Hour), time.Hour),
		"wrong alg":   sign(jwt.SigningMethodHS384, user, key, now, time.Hour),
		"wrong key":   sign(jwt.SigningMethodHS256, user, []byte("other"), now, time.Hour),
		"bad subject": sign(jwt.SigningMethodHS256, "not-a-uuid", key, now, time.Hour),
		"garbage":     "this-is-not-a-jwt",
	}
	for name, tok := range cases {
		if _, err := tk.Verify(tok); !errors.Is(err, errs.ErrUnauthorized) {
			t.Fatalf("%s: want ErrUnauthorized, got %v", name, err)
		}
	}
}

func TestTokens_Leeway(t *testing.T) {
	t.Parallel()

	tk := NewTokens([]byte("secret"), time.Minute)
	user := uuid.Must(uuid.NewV4())
	tok, _, err := tk.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	tk.now = func() time.Time { return time.Now().Add(time.Minute + 10*time.Second) }
	if _, err := tk.Verify(tok); err != nil {
		t.Fatalf("inside leeway: %v", err)
	}
	tk.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := tk.Verify(tok); err == nil {
		t.Fatalf("want expiry past leeway")
	}
}
