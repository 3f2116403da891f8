package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultStopTimeout は終了要求から強制終了へ切り替えるまでのデフォルトの猶予。
const DefaultStopTimeout = 10 * time.Second

// healthTaskName はヘルスチェックタスクのハンドル名。
const healthTaskName = "health-check"

// ErrStopTimeout は強制終了後も終了を確認できなかったことを表す。
var ErrStopTimeout = errors.New("プロセスの終了を確認できませんでした")

// Options はSupervisorの生成オプション。
type Options struct {
	// HealthInterval はヘルスチェック間隔。
	HealthInterval time.Duration
	// ProbeTimeout は1回のプローブのタイムアウト。
	ProbeTimeout time.Duration
	// StopTimeout は終了待ちの上限。強制終了後の待ちにも同じ値を使う。
	StopTimeout time.Duration
	// Spawn はサービスの起動関数。nilの場合はSpawnProcess。
	Spawn SpawnFunc
	// Logger はロガー。
	Logger *slog.Logger
}

// Supervisor はサービス群のライフサイクルを管理する。
type Supervisor struct {
	specs       []ServiceSpec
	health      *HealthChecker
	stopTimeout time.Duration
	spawn       SpawnFunc
	logger      *slog.Logger
}

// New は新しいSupervisorを生成する。
func New(specs []ServiceSpec, opts Options) *Supervisor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	spawn := opts.Spawn
	if spawn == nil {
		spawn = SpawnProcess
	}
	stopTimeout := opts.StopTimeout
	if stopTimeout <= 0 {
		stopTimeout = DefaultStopTimeout
	}
	return &Supervisor{
		specs:       specs,
		health:      NewHealthChecker(TargetsOf(specs), opts.HealthInterval, opts.ProbeTimeout, logger),
		stopTimeout: stopTimeout,
		spawn:       spawn,
		logger:      logger,
	}
}

// StartFleet はヘルスチェックタスクと各サービスを起動し、ハンドルを返す。
// サービスの準備完了は待たない。
// 起動に失敗した場合（spawnのパニックを含む）は、それまでに起動したハンドルとエラーを返す。
// 呼び出し側はそれらを停止すること。
func (s *Supervisor) StartFleet() ([]Handle, error) {
	handles := make([]Handle, 0, len(s.specs)+1)
	handles = append(handles, startTask(healthTaskName, s.logger, s.health.Loop))

	for _, spec := range s.specs {
		h, err := s.spawnSafely(spec)
		if err != nil {
			return handles, fmt.Errorf("フリートの起動に失敗: %w", err)
		}
		attrs := []any{slog.String("service", spec.Name), slog.String("command", spec.Command)}
		if p, ok := h.(interface{ PID() int }); ok {
			attrs = append(attrs, slog.Int("pid", p.PID()))
		}
		s.logger.Info("サービスを起動しました", attrs...)
		handles = append(handles, h)
	}
	return handles, nil
}

// spawnSafely はspawnのパニックをエラーに変換する。
func (s *Supervisor) spawnSafely(spec ServiceSpec) (h Handle, err error) {
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("%sの起動中にパニックが発生: %v", spec.Name, r)
		}
	}()
	return s.spawn(spec)
}

// StopFleet は稼働中の全ハンドルを並行に停止する。停止済みのハンドルは飛ばすため、何度呼んでもよい。
func (s *Supervisor) StopFleet(handles []Handle) error {
	return StopFleet(handles, s.stopTimeout, s.logger)
}

// StopFleet は稼働中の全ハンドルに終了を要求し、timeout以内に終了しなければ強制終了する。
// 強制終了後もtimeout以内に終了を確認できない場合はErrStopTimeoutを返す。
func StopFleet(handles []Handle, timeout time.Duration, logger *slog.Logger) error {
	var g errgroup.Group
	for _, h := range handles {
		if h == nil || !h.Alive() {
			continue
		}
		g.Go(func() error {
			return stopHandle(h, timeout, logger)
		})
	}
	err := g.Wait()
	if err == nil {
		logger.Info("全サービスを停止しました")
	}
	return err
}

func stopHandle(h Handle, timeout time.Duration, logger *slog.Logger) error {
	logger.Info("停止します", slog.String("service", h.Name()))
	if err := h.Terminate(); err != nil {
		logger.Warn("終了要求に失敗", slog.String("service", h.Name()), slog.Any("error", err))
	}

	select {
	case <-h.Done():
		return nil
	case <-time.After(timeout):
	}

	logger.Warn("終了しないため強制終了します", slog.String("service", h.Name()), slog.Duration("timeout", timeout))
	if err := h.Kill(); err != nil {
		logger.Error("強制終了に失敗", slog.String("service", h.Name()), slog.Any("error", err))
	}

	select {
	case <-h.Done():
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("%s: %w", h.Name(), ErrStopTimeout)
	}
}

// Run はフリートを起動し、ctxのキャンセル（オペレーターの停止要求）か
// いずれかのハンドルの予期しない終了まで待ってから、全ハンドルを停止する。
// 予期しない終了は致命的な障害として扱い、エラーを返す。
func (s *Supervisor) Run(ctx context.Context) error {
	handles, err := s.StartFleet()
	if err != nil {
		s.logger.Error("起動中に障害が発生したため停止します", slog.Any("error", err))
		return errors.Join(err, s.StopFleet(handles))
	}

	exited := make(chan Handle, len(handles))
	watchCtx, stopWatching := context.WithCancel(context.Background())
	defer stopWatching()
	for _, h := range handles {
		go func() {
			select {
			case <-h.Done():
				exited <- h
			case <-watchCtx.Done():
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("停止要求を受け付けました")
	case h := <-exited:
		runErr = fmt.Errorf("%sが予期せず終了しました", h.Name())
		s.logger.Error("致命的な障害のためフリートを停止します", slog.String("service", h.Name()))
	}
	stopWatching()

	return errors.Join(runErr, s.StopFleet(handles))
}
