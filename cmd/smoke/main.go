// Gateway経由でサインアップ、ログイン、メッセージ取得を行い、フリート全体の疎通を確認する。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/internal/smoke"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "疎通確認に失敗: %v\n", err)
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
	logger := config.NewLogger(cfg)

	results, err := smoke.New(cfg.GatewayURL, cfg.UpstreamTimeout, logger).Run(ctx, smoke.DefaultAccounts)
	if err != nil {
		return err
	}
	for _, r := range results {
		fmt.Printf("%s: %s\n", r.Username, r.Message)
	}
	return nil
}
