// Wiring tests for NewRouter: public health route, protected /api/v1
// surface, and an authenticated end-to-end post generation.
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/sobot-ai/sobot/internal/domain/botchat"
	"github.com/sobot-ai/sobot/internal/domain/botpost"
	"github.com/sobot-ai/sobot/internal/domain/trace"
	pkgauth "github.com/sobot-ai/sobot/pkg/auth"
)

func TestMain(m *testing.M) {
	// AuthMiddleware reads JWT_SECRET — must be set for protected routes.
	os.Setenv("JWT_SECRET", "test-secret-key-32-chars-min!!!") //nolint:errcheck
	os.Exit(m.Run())
}

type botPostStub struct{}

func (botPostStub) GeneratePost(_ context.Context, in botpost.GeneratePostInput) (*botpost.GeneratePostOutput, error) {
	if len(in.Posts) < botpost.MinPosts {
		return nil, botpost.ErrInvalidPostCount
	}
	return &botpost.GeneratePostOutput{BoardType: in.BoardType, Content: "generated"}, nil
}

type botChatStub struct{}

func (botChatStub) GenerateChat(_ context.Context, in botchat.GenerateChatInput) (*botchat.GenerateChatOutput, error) {
	return &botchat.GenerateChatOutput{ChatRoomID: in.ChatRoomID, Content: botchat.PlaceholderContent}, nil
}

type traceStub struct{}

func (traceStub) List(context.Context, int, int) ([]trace.Trace, error) {
	return []trace.Trace{}, nil
}

func (traceStub) GetByID(context.Context, string) (*trace.Trace, []trace.Generation, error) {
	return nil, nil, trace.ErrNotFound
}

func newTestRouter() http.Handler {
	return NewRouter(Deps{BotPosts: botPostStub{}, BotChats: botChatStub{}, Traces: traceStub{}})
}

func TestNewRouter_HealthEndpoint(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("expected body to contain 'ok', got %q", w.Body.String())
	}
}

func TestNewRouter_ProtectedRoutes_Unauthorized(t *testing.T) {
	router := newTestRouter()

	requests := []*http.Request{
		httptest.NewRequest(http.MethodPost, "/api/v1/bot-posts", strings.NewReader(`{}`)),
		httptest.NewRequest(http.MethodPost, "/api/v1/bot-chats", strings.NewReader(`{}`)),
		httptest.NewRequest(http.MethodGet, "/api/v1/traces", nil),
		httptest.NewRequest(http.MethodGet, "/api/v1/traces/tr-1", nil),
	}

	for _, req := range requests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token: status = %d; want 401", req.Method, req.URL.Path, w.Code)
		}
	}
}

func TestNewRouter_BotPosts_Authenticated(t *testing.T) {
	router := newTestRouter()

	token, err := pkgauth.GenerateToken("svc-board")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	body := `{"board_type":"free","posts":[{"content":"a"},{"content":"b"},{"content":"c"},{"content":"d"},{"content":"e"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bot-posts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "generated") {
		t.Errorf("body = %s; want generated content", w.Body.String())
	}
}

func TestNewRouter_TraceNotFound(t *testing.T) {
	router := newTestRouter()

	token, err := pkgauth.GenerateToken("svc-board")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/traces/missing", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}
