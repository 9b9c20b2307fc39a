package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/ohmylink/internal/draftfile"
)

type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func tokenPath() string { return filepath.Join(draftfile.ConfigDir(), "token.json") }

// tokenExpiry reads exp without verifying the signature; only the server can verify it.
func tokenExpiry(tok string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no expiry")
	}
	return claims.ExpiresAt.Time, nil
}

func saveToken(tok string) (time.Time, error) {
	exp, err := tokenExpiry(tok)
	if err != nil {
		return time.Time{}, err
	}
	if err := os.MkdirAll(draftfile.ConfigDir(), 0o700); err != nil {
		return time.Time{}, err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: tok, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return time.Time{}, err
	}
	return exp, os.WriteFile(tokenPath(), b, 0o600)
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", errors.New("no token (run \"ohmylink login --token ...\")")
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("token expired (login required)")
	}
	return tf.AccessToken, nil
}

func removeToken() error {
	if err := os.Remove(tokenPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
