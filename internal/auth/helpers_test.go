package auth

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/gatekeeper/pkg/token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// testSecret はテスト用の署名鍵。
const testSecret = "auth-test-secret-key-0123456789abcdef"

// discardLogger は出力を捨てるテスト用ロガー。
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock はテスト用の操作可能な時計。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// newTestStore はテスト用の一時ディレクトリにSQLiteのストアを作成する。
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	dsn := "sqlite://" + filepath.Join(t.TempDir(), "auth.db")
	store, err := OpenStore(context.Background(), dsn, discardLogger())
	if err != nil {
		t.Fatalf("ストアの作成に失敗: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// newTestService はテスト用のServiceを生成する。
func newTestService(t *testing.T, clock *fakeClock) (*Service, *SQLStore) {
	t.Helper()

	store := newTestStore(t)
	codec := token.New(token.Options{
		Secret: testSecret,
		TTL:    30 * time.Minute,
		Issuer: "gatekeeper-auth",
		Now:    clock.Now,
		Logger: discardLogger(),
	})
	return NewService(store, codec, NewBcryptHasher(4), discardLogger()), store
}
