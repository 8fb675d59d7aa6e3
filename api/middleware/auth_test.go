package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	pkgauth "github.com/gymcore/license-server/pkg/auth"
	"github.com/gymcore/license-server/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "gymcore-test", ExpirationMinutes: 60}
}

func TestRequireAdminRejectsMissingToken(t *testing.T) {
	handler := RequireAdmin(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireAdminRejectsInvalidToken(t *testing.T) {
	handler := RequireAdmin(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireAdminRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	token, err := pkgauth.MintAdminToken(cfg, time.Now().Add(-2*time.Hour), uuid.New(), "ops")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	handler := RequireAdmin(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestRequireAdminSeedsContext(t *testing.T) {
	cfg := testJWTConfig()
	adminID := uuid.New()
	token, err := pkgauth.MintAdminToken(cfg, time.Now(), adminID, "ops")
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var captured struct {
		id       string
		username string
	}
	handler := RequireAdmin(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.id = AdminIDFromContext(r.Context())
		captured.username = AdminUsernameFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.id != adminID.String() {
		t.Fatalf("expected admin id %s got %s", adminID, captured.id)
	}
	if captured.username != "ops" {
		t.Fatalf("expected username ops got %s", captured.username)
	}
}
