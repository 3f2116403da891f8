// Package httpserver はGinルーターをグレースフルシャットダウン付きで起動する共通処理を提供する。
// スーパーバイザーが送るSIGTERMを受けて、処理中のリクエストを完了させてから終了する。
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config はHTTPサーバーの設定。
type Config struct {
	// Addr はリッスンアドレス（例: ":8282"）。
	Addr string
	// ReadTimeout はリクエスト読み込みのタイムアウト。
	ReadTimeout time.Duration
	// WriteTimeout はレスポンス書き込みのタイムアウト。
	WriteTimeout time.Duration
	// ShutdownTimeout はグレースフルシャットダウンの上限時間。
	ShutdownTimeout time.Duration
}

// Serve はctxがキャンセルされるまでhandlerを提供し、その後グレースフルに停止する。
func Serve(ctx context.Context, cfg Config, handler http.Handler, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("リッスンに失敗: addr=%s: %w", cfg.Addr, err)
	}
	return ServeListener(ctx, cfg, ln, handler, logger)
}

// ServeListener は既に開かれたリスナーでhandlerを提供する。
func ServeListener(ctx context.Context, cfg Config, ln net.Listener, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTPサーバーを起動します", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTPサーバーが異常終了: %w", err)
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("HTTPサーバーを停止します")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("グレースフルシャットダウンに失敗: %w", err)
	}
	return nil
}
