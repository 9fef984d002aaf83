// Package auth guards the admin surface (force-GC, diagnostics) with a
// short-lived bearer token, adapted from the teacher's internal/auth.
// There is no player account system here (spec.md §1: wallet providers are
// external) — a single shared ADMIN_TOKEN stands in for a password, hashed
// at rest with bcrypt instead of compared as plaintext.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid admin token")

type Service struct {
	jwtSecret []byte
	tokenHash string
	tokenTTL  time.Duration
}

// NewService hashes adminToken once at startup so the shared secret is
// never compared in plaintext, mirroring the teacher's HashPassword step.
func NewService(jwtSecret, adminToken string, tokenTTL time.Duration) (*Service, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{jwtSecret: []byte(jwtSecret), tokenHash: string(hash), tokenTTL: tokenTTL}, nil
}

// Login exchanges the shared admin token for a short-lived JWT.
func (s *Service) Login(adminToken string) (string, error) {
	if bcrypt.CompareHashAndPassword([]byte(s.tokenHash), []byte(adminToken)) != nil {
		return "", ErrInvalidCredentials
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	})
	return token.SignedString(s.jwtSecret)
}

// ValidateToken reports whether tokenString is a currently-valid admin
// token, the same Parse-and-check shape as the teacher's ValidateToken.
func (s *Service) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return errors.New("invalid token")
	}
	if sub, _ := claims["sub"].(string); sub != "admin" {
		return errors.New("invalid token subject")
	}
	return nil
}
