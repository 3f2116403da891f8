package token

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// testSecret はテスト用の署名鍵。
const testSecret = "test-secret-key-for-unit-tests-0123456789"

// fakeClock はテスト用の操作可能な時計。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
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

// newTestCodec はテスト用のCodecとログ出力先を返す。
func newTestCodec(t *testing.T, clock *fakeClock) (*Codec, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	codec := New(Options{
		Secret: testSecret,
		TTL:    time.Hour,
		Issuer: "gatekeeper-auth",
		Now:    clock.Now,
		Logger: slog.New(slog.NewTextHandler(&buf, nil)),
	})
	return codec, &buf
}

// TestIssueAndParse はトークンの発行と検証の往復を検証する。
func TestIssueAndParse(t *testing.T) {
	t.Parallel()

	t.Run("発行直後のトークンからsubjectを取り出せること", func(t *testing.T) {
		t.Parallel()

		codec, _ := newTestCodec(t, newFakeClock())
		tok, err := codec.Issue("alice")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		subject, err := codec.Parse(tok)
		if err != nil {
			t.Fatalf("Parse()でエラーが発生: %v", err)
		}
		if subject != "alice" {
			t.Errorf("subject = %q, want %q", subject, "alice")
		}
	})

	t.Run("同じsubjectと時刻からは同じトークンが生成されること", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		codec, _ := newTestCodec(t, clock)
		first, err := codec.Issue("alice")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		second, err := codec.Issue("alice")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}
		if first != second {
			t.Errorf("トークンが一致しない: %q != %q", first, second)
		}
	})

	t.Run("有効期限の直前までは有効であること", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		codec, _ := newTestCodec(t, clock)
		tok, err := codec.Issue("bob")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		clock.Advance(time.Hour - time.Second)
		if _, err := codec.Parse(tok); err != nil {
			t.Fatalf("期限前のトークンが無効と判定された: %v", err)
		}
	})

	t.Run("有効期限に達したトークンは無効になり理由がログに出力されること", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		codec, logs := newTestCodec(t, clock)
		tok, err := codec.Issue("bob")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		clock.Advance(time.Hour)
		_, err = codec.Parse(tok)
		if !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse() error = %v, want %v", err, ErrInvalidToken)
		}
		if !strings.Contains(logs.String(), "reason=expired") {
			t.Errorf("ログに失敗理由が含まれない: %s", logs.String())
		}
	})
}

// TestParseFailures は検証失敗が単一の種別に集約されることを検証する。
func TestParseFailures(t *testing.T) {
	t.Parallel()

	t.Run("異なる秘密鍵で署名されたトークンは無効であること", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		other := New(Options{Secret: "another-secret-key-0123456789abcdef", Issuer: "gatekeeper-auth", Now: clock.Now})
		tok, err := other.Issue("mallory")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		codec, logs := newTestCodec(t, clock)
		if _, err := codec.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse() error = %v, want %v", err, ErrInvalidToken)
		}
		if !strings.Contains(logs.String(), "reason=signature") {
			t.Errorf("ログに失敗理由が含まれない: %s", logs.String())
		}
	})

	t.Run("形式が不正なトークンは無効であること", func(t *testing.T) {
		t.Parallel()

		codec, logs := newTestCodec(t, newFakeClock())
		if _, err := codec.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse() error = %v, want %v", err, ErrInvalidToken)
		}
		if !strings.Contains(logs.String(), "reason=malformed") {
			t.Errorf("ログに失敗理由が含まれない: %s", logs.String())
		}
	})

	t.Run("HS256以外のアルゴリズムは拒否されること", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "gatekeeper-auth",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		codec, _ := newTestCodec(t, clock)
		if _, err := codec.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse() error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("有効期限を持たないトークンは拒否されること", func(t *testing.T) {
		t.Parallel()

		claims := jwt.RegisteredClaims{Subject: "alice", Issuer: "gatekeeper-auth"}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("トークンの署名に失敗: %v", err)
		}

		codec, _ := newTestCodec(t, newFakeClock())
		if _, err := codec.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse() error = %v, want %v", err, ErrInvalidToken)
		}
	})

	t.Run("発行者が異なるトークンは拒否されること", func(t *testing.T) {
		t.Parallel()

		clock := newFakeClock()
		other := New(Options{Secret: testSecret, Issuer: "someone-else", Now: clock.Now})
		tok, err := other.Issue("alice")
		if err != nil {
			t.Fatalf("Issue()でエラーが発生: %v", err)
		}

		codec, _ := newTestCodec(t, clock)
		if _, err := codec.Parse(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("Parse() error = %v, want %v", err, ErrInvalidToken)
		}
	})
}

// TestIssueWithoutSecret は署名鍵が無い場合の挙動を検証する。
func TestIssueWithoutSecret(t *testing.T) {
	t.Parallel()

	codec := New(Options{})
	if _, err := codec.Issue("alice"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("Issue() error = %v, want %v", err, ErrEncoding)
	}
	if codec.TTL() != DefaultTTL {
		t.Errorf("TTL = %v, want %v", codec.TTL(), DefaultTTL)
	}
}
