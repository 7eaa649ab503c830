// Package auth implements the dashboard's single-operator session scheme:
// one configured admin account and signed session tokens carried in an
// HTTP-only cookie.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials signals a wrong username or password.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrInvalidToken signals a missing, malformed or expired session token.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Service handles login and session token verification.
type Service struct {
	username     string
	passwordHash []byte
	jwtSecret    []byte
	tokenTTL     time.Duration
}

// NewService creates an auth service for the configured admin account. The
// plaintext password from the configuration is hashed once here and discarded.
func NewService(username, password, jwtSecret string, tokenTTL time.Duration) (*Service, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash admin password: %w", err)
	}

	return &Service{
		username:     username,
		passwordHash: hash,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
	}, nil
}

// TokenTTL returns the configured session lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Login checks the credentials and returns a signed session token.
func (s *Service) Login(username, password string) (string, error) {
	if username != s.username {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"username": username,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}

	return token, nil
}

// VerifyToken validates a session token and returns the username it carries.
// Every failure mode collapses into ErrInvalidToken; callers have no reason to
// distinguish them.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", ErrInvalidToken
	}

	return username, nil
}
