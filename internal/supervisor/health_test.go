package supervisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestHealthChecker はヘルスチェックを検証する。
func TestHealthChecker(t *testing.T) {
	t.Parallel()

	t.Run("2xxをUP、それ以外と通信エラーをDOWNに分類すること", func(t *testing.T) {
		t.Parallel()

		up := newHealthyService(t)
		failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(failing.Close)
		closed := httptest.NewServer(http.NotFoundHandler())
		closed.Close()

		targets := []Target{
			{Name: "gateway", URL: up.URL + "/"},
			{Name: "auth", URL: failing.URL},
			{Name: "message", URL: closed.URL},
		}
		checker := NewHealthChecker(targets, time.Hour, time.Second, discardLogger())

		records := checker.CheckOnce(context.Background())
		if len(records) != 3 {
			t.Fatalf("結果数 = %d, want 3", len(records))
		}
		want := []Status{StatusUp, StatusDown, StatusDown}
		for i, rec := range records {
			if rec.Status != want[i] {
				t.Errorf("%s = %s, want %s", rec.Service, rec.Status, want[i])
			}
			if rec.URL != targets[i].URL {
				t.Errorf("%sのurl = %q, want %q", rec.Service, rec.URL, targets[i].URL)
			}
		}
		if records[1].StatusCode != http.StatusInternalServerError {
			t.Errorf("status_code = %d, want %d", records[1].StatusCode, http.StatusInternalServerError)
		}
		if records[2].Err == nil {
			t.Error("通信エラーが記録されていない")
		}
	})

	t.Run("応答しないサービスはタイムアウトでDOWNになり他のプローブを妨げないこと", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		hanging := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			hanging.Close()
		})
		up := newHealthyService(t)

		checker := NewHealthChecker([]Target{
			{Name: "hanging", URL: hanging.URL},
			{Name: "up", URL: up.URL},
		}, time.Hour, 100*time.Millisecond, discardLogger())

		start := time.Now()
		records := checker.CheckOnce(context.Background())
		if elapsed := time.Since(start); elapsed > 2*time.Second {
			t.Errorf("1サイクルに %v かかった", elapsed)
		}
		if records[0].Status != StatusDown {
			t.Errorf("hanging = %s, want %s", records[0].Status, StatusDown)
		}
		if records[1].Status != StatusUp {
			t.Errorf("up = %s, want %s", records[1].Status, StatusUp)
		}
	})

	t.Run("Loopはキャンセルされるまで繰り返しプローブすること", func(t *testing.T) {
		t.Parallel()

		up := newHealthyService(t)
		checker := NewHealthChecker([]Target{{Name: "up", URL: up.URL}}, 10*time.Millisecond, time.Second, discardLogger())

		cycles := make(chan []HealthRecord, 16)
		checker.observe = func(records []HealthRecord) {
			select {
			case cycles <- records:
			default:
			}
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			checker.Loop(ctx)
			close(done)
		}()

		for range 3 {
			select {
			case records := <-cycles:
				if records[0].Status != StatusUp {
					t.Errorf("status = %s, want %s", records[0].Status, StatusUp)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("ヘルスチェックが実行されない")
			}
		}

		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("Loopが終了しない")
		}
	})
}
