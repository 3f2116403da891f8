// スーパーバイザーのエントリポイント。
// gateway, auth, messageを子プロセスとして起動し、ヘルスチェックを行い、
// 停止要求か子プロセスの予期しない終了でまとめて停止する。
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nao1215/gatekeeper/internal/config"
	"github.com/nao1215/gatekeeper/internal/supervisor"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "スーパーバイザーが異常終了: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		fleetFile string
		binDir    string
	)
	flagSet := pflag.NewFlagSet("supervisor", pflag.ContinueOnError)
	flagSet.StringVarP(&fleetFile, "fleet", "f", "", "フリート定義のYAMLファイル（未指定時は--bin-dirの3バイナリを起動）")
	flagSet.StringVar(&binDir, "bin-dir", defaultBinDir(), "gateway, auth, messageバイナリのディレクトリ")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg).With(slog.String("service", "supervisor"))

	specs := supervisor.DefaultSpecs(cfg, binDir)
	if fleetFile != "" {
		if specs, err = supervisor.LoadSpecs(fleetFile); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s := supervisor.New(specs, supervisor.Options{
		HealthInterval: cfg.HealthInterval,
		ProbeTimeout:   cfg.ProbeTimeout,
		StopTimeout:    cfg.StopTimeout,
		Logger:         logger,
	})
	return s.Run(ctx)
}

// defaultBinDir は自身の実行ファイルと同じディレクトリを返す。
func defaultBinDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}
