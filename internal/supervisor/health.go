package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/gatekeeper/pkg/httpclient"
	"golang.org/x/sync/errgroup"
)

// Status はヘルスチェックの結果。
type Status string

const (
	// StatusUp は2xxを返したことを表す。
	StatusUp Status = "UP"
	// StatusDown はタイムアウト、通信エラー、2xx以外のいずれかを表す。
	StatusDown Status = "DOWN"
)

const (
	// DefaultHealthInterval はヘルスチェックのデフォルト間隔。
	DefaultHealthInterval = 10 * time.Second
	// DefaultProbeTimeout は1回のプローブのデフォルトタイムアウト。
	DefaultProbeTimeout = 3 * time.Second
)

// Target はヘルスチェックの対象。
type Target struct {
	Name string
	URL  string
}

// HealthRecord は1回のプローブの結果。ログに出力するだけで保存しない。
type HealthRecord struct {
	Service    string
	URL        string
	Status     Status
	StatusCode int
	Latency    time.Duration
	Err        error
	CheckedAt  time.Time
}

// HealthChecker は全サービスを定期的にプローブする。
type HealthChecker struct {
	targets  []Target
	clients  []*httpclient.Client
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
	// observe は1サイクルの結果を受け取るフック。テストで使う。
	observe func([]HealthRecord)
}

// NewHealthChecker は新しいHealthCheckerを生成する。
func NewHealthChecker(targets []Target, interval, timeout time.Duration, logger *slog.Logger) *HealthChecker {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	clients := make([]*httpclient.Client, len(targets))
	for i, target := range targets {
		clients[i] = httpclient.New(target.URL, timeout)
	}
	return &HealthChecker{
		targets:  targets,
		clients:  clients,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// TargetsOf はフリート定義からヘルスチェック対象を取り出す。
func TargetsOf(specs []ServiceSpec) []Target {
	targets := make([]Target, len(specs))
	for i, spec := range specs {
		targets[i] = Target{Name: spec.Name, URL: spec.HealthURL}
	}
	return targets
}

// Loop はctxがキャンセルされるまで、interval毎に全サービスをプローブする。
// 個々のプローブの失敗はログに出力するだけで、ループは止まらない。
func (h *HealthChecker) Loop(ctx context.Context) {
	h.logger.Info("ヘルスチェックを開始します", slog.Duration("interval", h.interval), slog.Duration("probe_timeout", h.timeout))

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		records := h.CheckOnce(ctx)
		if h.observe != nil {
			h.observe(records)
		}

		select {
		case <-ctx.Done():
			h.logger.Info("ヘルスチェックを終了します")
			return
		case <-ticker.C:
		}
	}
}

// CheckOnce は全サービスを並行にプローブし、対象と同じ順序で結果を返す。
// 1サイクルの所要時間はおおむね最も遅いプローブのタイムアウトで抑えられる。
func (h *HealthChecker) CheckOnce(ctx context.Context) []HealthRecord {
	records := make([]HealthRecord, len(h.targets))

	var g errgroup.Group
	for i := range h.targets {
		g.Go(func() error {
			records[i] = h.probe(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	for _, rec := range records {
		h.log(rec)
	}
	return records
}

// probe は1サービスにGETを送り、結果を分類する。
func (h *HealthChecker) probe(ctx context.Context, i int) HealthRecord {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	rec := HealthRecord{Service: h.targets[i].Name, URL: h.targets[i].URL, Status: StatusDown, CheckedAt: start}

	resp, err := h.clients[i].Get(ctx, "")
	rec.Latency = time.Since(start)
	if err != nil {
		rec.Err = err
		return rec
	}
	rec.StatusCode = resp.StatusCode
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		rec.Status = StatusUp
	}
	return rec
}

func (h *HealthChecker) log(rec HealthRecord) {
	attrs := []any{
		slog.String("service", rec.Service),
		slog.String("url", rec.URL),
		slog.String("status", string(rec.Status)),
		slog.Int("status_code", rec.StatusCode),
		slog.Duration("latency", rec.Latency),
	}
	if rec.Status == StatusUp {
		h.logger.Info("サービスは稼働しています", attrs...)
		return
	}
	if rec.Err != nil {
		attrs = append(attrs, slog.Any("error", rec.Err))
	}
	h.logger.Error("サービスが停止しています", attrs...)
}
