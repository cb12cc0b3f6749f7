package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func mintToken(t *testing.T, secret, subject, role string) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestRequireAuth_ValidToken(t *testing.T) {
	var got Actor
	handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			t.Fatal("expected actor on context")
		}
		got = actor
	}))

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "user-001", "patient"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got.ID != "user-001" || got.Role != RolePatient {
		t.Errorf("unexpected actor: %+v", got)
	}
}

func TestRequireAuth_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"wrong secret", mintToken(t, "other-secret", "user-001", "patient")},
		{"unknown role", mintToken(t, testSecret, "user-001", "admin")},
		{"missing subject", mintToken(t, testSecret, "", "patient")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequireAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be reached")
			}))
			req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestParseRole(t *testing.T) {
	if _, err := ParseRole("patient"); err != nil {
		t.Errorf("patient should parse: %v", err)
	}
	if _, err := ParseRole("provider"); err != nil {
		t.Errorf("provider should parse: %v", err)
	}
	if _, err := ParseRole("doctor"); err == nil {
		t.Error("expected unknown role error for doctor")
	}
}
