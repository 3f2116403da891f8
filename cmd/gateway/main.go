// Gatewayサービスのエントリポイント。
// 外部からアクセス可能な唯一のサービスであり、認証サービスとメッセージサービスへの委譲を担当する。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/internal/gateway"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Gatewayサービスの起動に失敗: %v\n", err)
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
	logger := config.NewLogger(cfg).With(slog.String("service", "gateway"))

	logger.Info("Gatewayサービスを起動します",
		slog.String("addr", cfg.GatewayAddr),
		slog.String("auth_url", cfg.AuthURL),
		slog.String("message_url", cfg.MessageURL),
	)
	return gateway.NewServerFromConfig(cfg, logger).Run(ctx)
}
