package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret" {
		t.Error("Expected hash to differ from plaintext")
	}
	if !CheckPassword(hash, "s3cret") {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("Expected wrong password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Error("Expected error for empty password")
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	svc, err := NewService("test-secret")
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	token, err := svc.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if userID != "user-123" {
		t.Errorf("Expected user-123, got %s", userID)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	issuer, _ := NewService("secret-a")
	verifier, _ := NewService("secret-b")

	token, err := issuer.IssueToken("user-123")
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	if _, err := verifier.VerifyToken(token); err == nil {
		t.Error("Expected verification to fail with different secret")
	}
}

func TestNewServiceRejectsEmptySecret(t *testing.T) {
	if _, err := NewService(""); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestMiddleware(t *testing.T) {
	svc, _ := NewService("test-secret")
	token, _ := svc.IssueToken("user-42")

	var gotUserID string
	handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("Expected user ID in context: %v", err)
		}
		gotUserID = uid
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if gotUserID != "user-42" {
		t.Errorf("context user ID = %q, want user-42", gotUserID)
	}
}

func TestUserIDFromContextWithoutAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := UserIDFromContext(req.Context()); err == nil {
		t.Error("Expected error when no user in context")
	}
}
