package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func withTmpConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "ohmylink")
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "6f1cbe8e-b2e7-4a3b-9f6e-2a2c0f2f9c11",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func Test_tokenPath(t *testing.T) {
	base := withTmpConfig(t)
	if !strings.HasPrefix(tokenPath(), base) || !strings.HasSuffix(tokenPath(), "token.json") {
		t.Fatalf("tokenPath unexpected: %s", tokenPath())
	}
}

func Test_token_SaveLoadRemove(t *testing.T) {
	_ = withTmpConfig(t)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, exp)
	got, err := saveToken(tok)
	if err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	if !got.Equal(exp) {
		t.Fatalf("expiry = %v, want %v", got, exp)
	}
	fi, err := os.Stat(tokenPath())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("token file mode = %v", fi.Mode().Perm())
	}

	loaded, err := loadToken()
	if err != nil || loaded != tok {
		t.Fatalf("loadToken = %q, %v", loaded, err)
	}

	if err := removeToken(); err != nil {
		t.Fatalf("removeToken: %v", err)
	}
	if err := removeToken(); err != nil {
		t.Fatalf("second removeToken: %v", err)
	}
	if _, err := loadToken(); err == nil {
		t.Fatalf("want error after remove")
	}
}

func Test_loadToken_Expired(t *testing.T) {
	_ = withTmpConfig(t)

	if _, err := saveToken(signed(t, time.Now().Add(-time.Minute))); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	if _, err := loadToken(); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("want expired error, got %v", err)
	}
}

func Test_saveToken_Garbage(t *testing.T) {
	_ = withTmpConfig(t)

	if _, err := saveToken("not-a-jwt"); err == nil {
		t.Fatalf("want error for malformed token")
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "x"}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := saveToken(noExp); err == nil {
		t.Fatalf("want error for token without exp")
	}
}
