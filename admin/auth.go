// Package admin implements spec.md §6's external HTTP surface: JWT-backed
// admin auth, CRUD over seed sites, crawl lifecycle control, and a
// read-only search endpoint, the way dillonlara115/barracuda's cmd/serve.go
// wires its own API surface onto a bare net/http mux.
package admin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"
)

// ErrInvalidCredentials names any username/password mismatch, deliberately
// not distinguishing "no such user" from "wrong password". No function in
// this package returns it; handleLogin answers every mismatch with the same
// bare 401.
var ErrInvalidCredentials = errors.New("invalid credentials")

// argon2 parameters for password hashing. Fixed rather than configurable:
// spec.md names no knobs for them, and a single admin surface doesn't need
// per-deployment tuning.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// hashPassword derives an argon2id hash with a fresh random salt, encoded
// as "<base64 salt>$<base64 hash>".
func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return base64.RawStdEncoding.EncodeToString(salt) + "$" + base64.RawStdEncoding.EncodeToString(hash), nil
}

// verifyPassword recomputes the hash from the stored salt and compares in
// constant time.
func verifyPassword(password, encoded string) bool {
	parts := strings.SplitN(encoded, "$", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// tokenLifetime is spec.md §6's default bearer-token lifetime.
const tokenLifetime = 30 * time.Minute

// issueToken signs a JWT with the configured HS-family algorithm and
// secret, carrying the username as Subject and an exp claim 30 minutes
// out.
func (s *Server) issueToken(username string) (string, error) {
	method := jwt.GetSigningMethod(s.cfg.Algorithm)
	if method == nil {
		return "", fmt.Errorf("unsupported algorithm %q", s.cfg.Algorithm)
	}
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenLifetime)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(method, claims)
	return token.SignedString([]byte(s.cfg.SecretKey))
}

// verifyToken parses and validates a bearer token, returning its subject
// (the admin username) on success.
func (s *Server) verifyToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != s.cfg.Algorithm {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// authorize enforces spec.md §6's "bearer-token authorization unless
// noted" rule, short-circuiting to a 401 with WWW-Authenticate on any
// failure. DEV=true skips the check entirely (spec.md §6 environment
// table), matching the original's local-dev convenience.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) bool {
	if s.cfg.Dev {
		return true
	}
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		unauthorized(w)
		return false
	}
	if _, err := s.verifyToken(strings.TrimPrefix(header, prefix)); err != nil {
		unauthorized(w)
		return false
	}
	return true
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
}

// requireAuth wraps a handler with authorize, matching the teacher pack's
// convention (barracuda's serve command) of plain functional middleware
// over a bare net/http mux.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authorize(w, r) {
			return
		}
		next(w, r)
	}
}
