// 認証サービスのエントリポイント。
// ユーザー登録、ログイン時のトークン発行、トークン検証を担当する。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/gatekeeper/internal/auth"
	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/pkg/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "認証サービスの起動に失敗: %v\n", err)
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
	if err := cfg.ValidateTokenSecret(); err != nil {
		return err
	}
	logger := config.NewLogger(cfg).With(slog.String("service", "auth"))

	store, err := auth.OpenStore(ctx, cfg.StoreDSN, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	codec := token.New(token.Options{
		Secret: cfg.TokenSecret,
		TTL:    cfg.TokenTTL,
		Issuer: cfg.TokenIssuer,
		Logger: logger,
	})
	service := auth.NewService(store, codec, auth.NewBcryptHasher(cfg.BcryptCost), logger)

	logger.Info("認証サービスを起動します", slog.String("addr", cfg.AuthAddr))
	return auth.NewServer(cfg, service, logger).Run(ctx)
}
