// メッセージサービスのエントリポイント。
// 検証済みのフラグに応じた表示メッセージを返す。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/internal/message"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "メッセージサービスの起動に失敗: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg).With(slog.String("service", "message"))

	logger.Info("メッセージサービスを起動します", slog.String("addr", cfg.MessageAddr))
	return message.NewServer(cfg, logger).Run(ctx)
}
