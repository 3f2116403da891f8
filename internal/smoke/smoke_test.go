package smoke

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeGateway はテスト用のGateway。登録済みのユーザー名には409を返す。
type fakeGateway struct {
	mu         sync.Mutex
	registered map[string]bool
}

func (g *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/user/signup":
		var a Account
		_ = json.NewDecoder(r.Body).Decode(&a)
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.registered[a.Username] {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"error":"credential_failure"}`))
			return
		}
		g.registered[a.Username] = true
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"status_code":201,"detail":"created"}`))
	case "/user/login":
		var a Account
		_ = json.NewDecoder(r.Body).Decode(&a)
		_ = json.NewEncoder(w).Encode(map[string]any{"status_code": 200, "token": "tok-" + a.Username})
	case "/user/message":
		detail := "Welcome, Authenticated user! Limited access."
		if strings.HasSuffix(r.Header.Get("Authorization"), "admin_user") {
			detail = "Welcome, Admin! You have full access."
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status_code": 200, "detail": detail})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// TestClientRun は一連の確認処理を検証する。
func TestClientRun(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{registered: map[string]bool{"admin_user": true}}
	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)

	client := New(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	results, err := client.Run(context.Background(), DefaultAccounts)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("結果数 = %d, want 2", len(results))
	}
	if results[0].Message != "Welcome, Admin! You have full access." {
		t.Errorf("admin message = %q", results[0].Message)
	}
	if results[1].Message != "Welcome, Authenticated user! Limited access." {
		t.Errorf("user message = %q", results[1].Message)
	}
}

// TestClientRunFailure はGatewayが失敗した場合を検証する。
func TestClientRunFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := client.Run(context.Background(), DefaultAccounts); err == nil {
		t.Error("Run() error = nil, want error")
	}
}
