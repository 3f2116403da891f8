package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
)

// Handle は起動した1つの実行単位（サービスのプロセス、またはヘルスチェックタスク）を表す。
type Handle interface {
	// Name は識別名を返す。
	Name() string
	// Alive は実行中かどうかを返す。
	Alive() bool
	// Terminate は穏当な終了を要求する。
	Terminate() error
	// Kill は強制終了する。
	Kill() error
	// Done は終了時にcloseされるチャネルを返す。
	Done() <-chan struct{}
}

// SpawnFunc はServiceSpecからハンドルを起動する関数。
type SpawnFunc func(spec ServiceSpec) (Handle, error)

// processHandle はOSプロセスのハンドル。
type processHandle struct {
	name string
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	waitErr error
}

// SpawnProcess はspecのコマンドを子プロセスとして起動する。準備完了は待たない。
func SpawnProcess(spec ServiceSpec) (Handle, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%sの起動に失敗: %w", spec.Name, err)
	}

	h := &processHandle{name: spec.Name, cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h, nil
}

func (h *processHandle) Name() string { return h.name }

// PID はプロセスIDを返す。
func (h *processHandle) PID() int { return h.cmd.Process.Pid }

func (h *processHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *processHandle) Terminate() error {
	return ignoreProcessDone(h.cmd.Process.Signal(syscall.SIGTERM))
}

func (h *processHandle) Kill() error {
	return ignoreProcessDone(h.cmd.Process.Kill())
}

func (h *processHandle) Done() <-chan struct{} { return h.done }

// ExitErr はプロセス終了時のエラーを返す。終了前はnil。
func (h *processHandle) ExitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

func ignoreProcessDone(err error) error {
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

// taskHandle はプロセス内のgoroutineで動くタスクのハンドル。
// 終了要求はcontextのキャンセルで伝える。
type taskHandle struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// startTask はrunをgoroutineで起動し、そのハンドルを返す。
func startTask(name string, logger *slog.Logger, run func(ctx context.Context)) *taskHandle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &taskHandle{name: name, cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("タスクがパニックで終了", slog.String("task", name), slog.Any("panic", r))
			}
		}()
		run(ctx)
	}()
	return h
}

func (h *taskHandle) Name() string { return h.name }

func (h *taskHandle) Alive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

func (h *taskHandle) Terminate() error {
	h.cancel()
	return nil
}

func (h *taskHandle) Kill() error {
	h.cancel()
	return nil
}

func (h *taskHandle) Done() <-chan struct{} { return h.done }
