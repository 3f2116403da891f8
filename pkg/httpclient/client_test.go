package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/gatekeeper/pkg/middleware"
)

// testRequest はテストサーバーが受け取ったリクエスト情報を保持する構造体。
type testRequest struct {
	// Method はHTTPメソッド。
	Method string
	// Path はリクエストパス。
	Path string
	// Body はリクエストボディ。
	Body []byte
	// Headers はリクエストヘッダー。
	Headers http.Header
}

// testPayload はテスト用のリクエスト/レスポンスペイロード。
type testPayload struct {
	// IsValid はテスト用の真偽値フィールド。
	IsValid bool `json:"is_valid"`
	// Message はテスト用の文字列フィールド。
	Message string `json:"message"`
}

// newRecordingServer はリクエストを記録してレスポンスを返すテストサーバーを生成する。
func newRecordingServer(t *testing.T, status int, response any) (*httptest.Server, *testRequest) {
	t.Helper()

	received := &testRequest{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Method = r.Method
		received.Path = r.URL.Path
		received.Body, _ = io.ReadAll(r.Body)
		received.Headers = r.Header.Clone()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(ts.Close)
	return ts, received
}

// TestNew はNew関数でクライアントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("タイムアウト未指定の場合はデフォルト値になること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8282/", 0)
		if client.httpClient.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
		}
		if client.BaseURL() != "http://localhost:8282" {
			t.Errorf("BaseURL = %q, want %q", client.BaseURL(), "http://localhost:8282")
		}
	})

	t.Run("指定したタイムアウトが設定されること", func(t *testing.T) {
		t.Parallel()

		client := New("http://localhost:8282", 2*time.Second)
		if client.httpClient.Timeout != 2*time.Second {
			t.Errorf("Timeout = %v, want 2s", client.httpClient.Timeout)
		}
	})
}

// TestPostJSON はPostJSON関数を検証する。
func TestPostJSON(t *testing.T) {
	t.Parallel()

	t.Run("正常にPOSTリクエストを送信してレスポンスを取得できること", func(t *testing.T) {
		t.Parallel()

		ts, received := newRecordingServer(t, http.StatusOK, testPayload{Message: "Welcome"})
		client := New(ts.URL, time.Second)

		var result testPayload
		if err := client.PostJSON(context.Background(), "/get-message", testPayload{IsValid: true}, &result); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}

		if received.Method != http.MethodPost {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodPost)
		}
		if received.Path != "/get-message" {
			t.Errorf("Path = %q, want %q", received.Path, "/get-message")
		}
		var sent testPayload
		if err := json.Unmarshal(received.Body, &sent); err != nil {
			t.Fatalf("リクエストボディのパースに失敗: %v", err)
		}
		if !sent.IsValid {
			t.Error("送信したis_validがtrueになっていない")
		}
		if got := received.Headers.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}
		if result.Message != "Welcome" {
			t.Errorf("result.Message = %q, want %q", result.Message, "Welcome")
		}
	})

	t.Run("2xx以外のレスポンスはStatusErrorになること", func(t *testing.T) {
		t.Parallel()

		ts, _ := newRecordingServer(t, http.StatusUnauthorized, map[string]string{"error": "credential_failure"})
		client := New(ts.URL, time.Second)

		err := client.PostJSON(context.Background(), "/validate-token", nil, nil)
		statusErr, ok := AsStatusError(err)
		if !ok {
			t.Fatalf("StatusErrorが返るべき: %v", err)
		}
		if statusErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusUnauthorized)
		}
		var body map[string]string
		if err := json.Unmarshal(statusErr.Body, &body); err != nil {
			t.Fatalf("エラーボディのパースに失敗: %v", err)
		}
		if body["error"] != "credential_failure" {
			t.Errorf("error = %q, want %q", body["error"], "credential_failure")
		}
	})

	t.Run("BearerトークンとリクエストIDが伝播されること", func(t *testing.T) {
		t.Parallel()

		ts, received := newRecordingServer(t, http.StatusOK, map[string]bool{"is_valid": true})
		client := New(ts.URL, time.Second)

		ctx := WithBearerToken(context.Background(), "tok-123")
		ctx = middleware.WithRequestID(ctx, "req-9")
		if err := client.PostJSON(ctx, "/validate-token", nil, nil); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}

		if got := received.Headers.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok-123")
		}
		if got := received.Headers.Get("X-Request-ID"); got != "req-9" {
			t.Errorf("X-Request-ID = %q, want %q", got, "req-9")
		}
		if got := received.Headers.Get("token"); got != "" {
			t.Errorf("独自のtokenヘッダーが送信されている: %q", got)
		}
	})

	t.Run("トークンが設定されていない場合Authorizationヘッダーが送信されないこと", func(t *testing.T) {
		t.Parallel()

		ts, received := newRecordingServer(t, http.StatusOK, map[string]string{})
		client := New(ts.URL, time.Second)

		if err := client.PostJSON(context.Background(), "/login", map[string]string{"username": "alice"}, nil); err != nil {
			t.Fatalf("PostJSON()でエラーが発生: %v", err)
		}
		if got := received.Headers.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty string", got)
		}
	})

	t.Run("タイムアウトを超えた場合にエラーが返ること", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			ts.Close()
		})

		client := New(ts.URL, 50*time.Millisecond)
		if err := client.PostJSON(context.Background(), "/slow", nil, nil); err == nil {
			t.Fatal("タイムアウトでエラーが返るべき")
		}
	})

	t.Run("接続できないサーバーに対してエラーが返ること", func(t *testing.T) {
		t.Parallel()

		client := New("http://127.0.0.1:1", time.Second)
		err := client.PostJSON(context.Background(), "/login", nil, nil)
		if err == nil {
			t.Fatal("エラーが返るべき")
		}
		if _, ok := AsStatusError(err); ok {
			t.Error("通信エラーはStatusErrorであるべきではない")
		}
	})
}

// TestGetJSON はGetJSON関数を検証する。
func TestGetJSON(t *testing.T) {
	t.Parallel()

	t.Run("不正なJSONレスポンスでエラーが返ること", func(t *testing.T) {
		t.Parallel()

		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{invalid"))
		}))
		t.Cleanup(ts.Close)

		var result testPayload
		if err := New(ts.URL, time.Second).GetJSON(context.Background(), "/", &result); err == nil {
			t.Fatal("エラーが返るべき")
		}
	})
}

// TestGet はGet関数を検証する。
func TestGet(t *testing.T) {
	t.Parallel()

	t.Run("2xx以外のステータスでもレスポンスが返ること", func(t *testing.T) {
		t.Parallel()

		ts, received := newRecordingServer(t, http.StatusServiceUnavailable, map[string]string{"message": "down"})
		resp, err := New(ts.URL, time.Second).Get(context.Background(), "/")
		if err != nil {
			t.Fatalf("Get()でエラーが発生: %v", err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("StatusCode = %d, want %d", resp.StatusCode, http.StatusServiceUnavailable)
		}
		if received.Method != http.MethodGet {
			t.Errorf("Method = %q, want %q", received.Method, http.MethodGet)
		}
		if len(received.Body) != 0 {
			t.Errorf("GETリクエストにボディが含まれている: %q", received.Body)
		}
	})
}
