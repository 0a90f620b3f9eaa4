// Package auth provides password hashing, JWT issuance and verification, and
// the HTTP middleware that guards user-scoped endpoints.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/pfalabs/finance-assistant/internal/api/middleware"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

type contextKey string

const userIDKey contextKey = "userID"

// Service issues and verifies tokens with a shared HMAC secret.
type Service struct {
	secret []byte
}

// NewService creates an auth service. The secret must not be empty.
func NewService(secret string) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("NewService: empty JWT secret")
	}
	return &Service{secret: []byte(secret)}, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("HashPassword: empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("HashPassword: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a stored bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs a token carrying the user ID.
func (s *Service) IssueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("IssueToken: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a token string and returns the user ID it carries.
func (s *Service) VerifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("VerifyToken: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("VerifyToken: token invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("VerifyToken: unexpected claims type %T", token.Claims)
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("VerifyToken: user_id claim missing")
	}
	return userID, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// authenticated user ID in the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h == "" || !strings.HasPrefix(h, "Bearer ") {
			middleware.WriteError(w, http.StatusUnauthorized, "Missing auth token")
			return
		}

		userID, err := s.VerifyToken(strings.TrimPrefix(h, "Bearer "))
		if err != nil {
			middleware.WriteError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), userID)))
	})
}

// ContextWithUserID returns a context carrying the authenticated user ID.
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user ID set by Middleware.
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("UserIDFromContext: user not authenticated")
	}
	return userID, nil
}
