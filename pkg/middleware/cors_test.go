package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// TestCORS はCORSミドルウェアを検証する。
func TestCORS(t *testing.T) {
	t.Parallel()

	newRouter := func(origins []string, called *bool) *gin.Engine {
		router := gin.New()
		router.Use(CORS(origins))
		handler := func(c *gin.Context) {
			if called != nil {
				*called = true
			}
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		}
		router.GET("/user/message", handler)
		router.OPTIONS("/user/message", handler)
		return router
	}

	t.Run("許可されたオリジンからのリクエストにCORSヘッダーが設定されること", func(t *testing.T) {
		t.Parallel()

		router := newRouter([]string{"http://localhost:3000", "https://example.com"}, nil)
		req := httptest.NewRequest(http.MethodGet, "/user/message", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://example.com")
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Authorization, Content-Type, X-Request-ID" {
			t.Errorf("Access-Control-Allow-Headers = %q", got)
		}
	})

	t.Run("許可されていないオリジンにはCORSヘッダーが設定されないこと", func(t *testing.T) {
		t.Parallel()

		router := newRouter([]string{"http://localhost:3000"}, nil)
		req := httptest.NewRequest(http.MethodGet, "/user/message", nil)
		req.Header.Set("Origin", "https://evil.com")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty string", got)
		}
	})

	t.Run("OPTIONSリクエストで204が返りハンドラーが呼ばれないこと", func(t *testing.T) {
		t.Parallel()

		called := false
		router := newRouter([]string{"http://localhost:3000"}, &called)
		req := httptest.NewRequest(http.MethodOptions, "/user/message", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if called {
			t.Error("OPTIONSリクエストでハンドラーが呼ばれるべきではない")
		}
	})
}
