package apperr

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// DateTimeLayout はレスポンスのdate_timeフィールドの書式。
const DateTimeLayout = "2006-01-02 15:04:05"

// Body はエラーレスポンスのJSON構造。
type Body struct {
	// Error はエラー分類。
	Error Kind `json:"error"`
	// Detail は人間が読める詳細。
	Detail string `json:"detail"`
	// StatusCode はHTTPステータスコード。
	StatusCode int `json:"status_code"`
	// Upstream は上流サービスのエラー情報。上流障害の場合のみ設定される。
	Upstream *UpstreamBody `json:"upstream,omitempty"`
	// DateTime はレスポンス生成日時。
	DateTime string `json:"date_time"`
}

// UpstreamBody は上流サービスが返したエラー情報。
type UpstreamBody struct {
	// Service は上流サービス名。
	Service string `json:"service"`
	// Kind は上流サービスが返したエラー分類。
	Kind Kind `json:"kind"`
	// Detail は上流サービスが返した詳細。クライアント起因の分類以外では固定文字列。
	Detail string `json:"detail"`
}

// Respond はエラーを分類し、JSONレスポンスとして書き込む。
// 原因を含む完全なエラーはloggerにのみ出力する。
func Respond(c *gin.Context, logger *slog.Logger, err error) {
	appErr := As(err)
	status := appErr.HTTPStatus()

	if logger != nil {
		level := slog.LevelWarn
		if status >= 500 {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "リクエスト処理に失敗",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("kind", string(appErr.Kind)),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}

	body := Body{
		Error:      appErr.Kind,
		Detail:     appErr.ClientDetail(),
		StatusCode: status,
		DateTime:   time.Now().Format(DateTimeLayout),
	}
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		body.Upstream = &UpstreamBody{
			Service: upstream.Service,
			Kind:    upstream.Kind,
			Detail:  internalDetail,
		}
		if IsClientKind(upstream.Kind) {
			body.Upstream.Detail = upstream.Detail
		}
	}
	c.AbortWithStatusJSON(status, body)
}
