// Covers: token absent, invalid, expired, valid — and context injection.
package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sobot-ai/sobot/internal/api/ctxkeys"
	"github.com/sobot-ai/sobot/internal/api/middleware"
	pkgauth "github.com/sobot-ai/sobot/pkg/auth"
)

// TestMain sets JWT_SECRET before any test runs; pkgauth.GenerateToken
// panics without it.
func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-key-32-chars-min!!!") //nolint:errcheck
	os.Exit(m.Run())
}

// nextHandler returns an http.Handler that sets called=true and records the context.
func nextHandler(called *bool, capturedCtx *context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		if capturedCtx != nil {
			*capturedCtx = r.Context()
		}
		w.WriteHeader(http.StatusOK)
	})
}

// makeRequest creates a POST request with an optional Authorization header.
func makeRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bot-posts", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.AuthMiddleware(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(""))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called when token is missing")
	}
}

func TestAuthMiddleware_EmptyBearerValue(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.AuthMiddleware(nextHandler(&called, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bot-posts", nil)
	req.Header.Set("Authorization", "Bearer ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for empty Bearer token")
	}
}

func TestAuthMiddleware_WrongScheme(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.AuthMiddleware(nextHandler(&called, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bot-posts", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for non-Bearer scheme")
	}
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	t.Parallel()

	called := false
	handler := middleware.AuthMiddleware(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("not.a.jwt"))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for an invalid token")
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	t.Parallel()

	// Sign an already-expired token with the test secret.
	claims := pkgauth.Claims{
		ServiceID: "svc-board",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}

	called := false
	handler := middleware.AuthMiddleware(nextHandler(&called, nil))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(signed))

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want %d", rr.Code, http.StatusUnauthorized)
	}
	if called {
		t.Error("next handler should NOT be called for an expired token")
	}
}

func TestAuthMiddleware_ValidToken_InjectsServiceID(t *testing.T) {
	t.Parallel()

	token, err := pkgauth.GenerateToken("svc-board")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	called := false
	var capturedCtx context.Context
	handler := middleware.AuthMiddleware(nextHandler(&called, &capturedCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest(token))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rr.Code, http.StatusOK)
	}
	if !called {
		t.Fatal("next handler was not called for a valid token")
	}

	serviceID, ok := capturedCtx.Value(ctxkeys.ServiceID).(string)
	if !ok || serviceID != "svc-board" {
		t.Errorf("service_id in context = %q (ok=%v); want svc-board", serviceID, ok)
	}
}
