package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/httprate"
	"github.com/nao1215/gatekeeper/pkg/apperr"
)

// RateLimitByIP はクライアントIPごとにリクエスト数を制限するGinミドルウェアを返す。
// ログインエンドポイントへの総当たり攻撃を抑止するために使用する。
// limitが0以下の場合は制限しない。
func RateLimitByIP(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(apperr.Body{
				Error:      apperr.KindValidation,
				Detail:     "リクエストが多すぎます。しばらくしてから再試行してください",
				StatusCode: http.StatusTooManyRequests,
				DateTime:   time.Now().Format(apperr.DateTimeLayout),
			})
		}),
	)

	return func(c *gin.Context) {
		passed := false
		limiter(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		if !passed {
			c.Abort()
			return
		}
		c.Next()
	}
}
