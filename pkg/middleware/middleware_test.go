package middleware

import (
	"bytes"
	"io"
	"log/slog"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// discardLogger は出力を捨てるテスト用ロガー。
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger は出力をバッファに書き込むテスト用ロガー。
func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}
