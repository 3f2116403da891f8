package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/gatekeeper/pkg/apperr"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// スタックトレースはログにのみ出力し、クライアントには汎用的な500エラーを返す。
func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("パニックから回復",
					slog.String("method", c.Request.Method),
					slog.String("path", c.Request.URL.Path),
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperr.Body{
					Error:      apperr.KindInternal,
					Detail:     "内部サーバーエラーが発生しました",
					StatusCode: http.StatusInternalServerError,
					DateTime:   time.Now().Format(apperr.DateTimeLayout),
				})
			}
		}()
		c.Next()
	}
}
