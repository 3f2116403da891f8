package token

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken はトークンが不正、署名不一致、期限切れのいずれかであることを表す。
	// どの理由で失敗したかは呼び出し元に区別させない。
	ErrInvalidToken = errors.New("トークンが無効です")
	// ErrEncoding は署名鍵が利用できずトークンを生成できないことを表す。
	ErrEncoding = errors.New("トークンの生成に失敗しました")
)

// DefaultTTL はトークンのデフォルト有効期間。
const DefaultTTL = 30 * time.Minute

// Options はCodecの生成オプション。
type Options struct {
	// Secret はHS256署名用の秘密鍵。
	Secret string
	// TTL はトークンの有効期間。0の場合はDefaultTTL。
	TTL time.Duration
	// Issuer はissクレーム。空の場合は検証しない。
	Issuer string
	// Now は現在時刻を返す関数。nilの場合はtime.Now。
	Now func() time.Time
	// Logger は検証失敗の具体的な理由を出力するロガー。
	Logger *slog.Logger
}

// Codec はトークンの発行と検証を行う。
// 生成後は不変であり、複数のgoroutineから安全に使用できる。
type Codec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	logger *slog.Logger
}

// New は新しいCodecを生成する。
func New(opts Options) *Codec {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{
		secret: []byte(opts.Secret),
		ttl:    ttl,
		issuer: opts.Issuer,
		now:    now,
		logger: logger,
	}
}

// TTL はトークンの有効期間を返す。
func (c *Codec) TTL() time.Duration {
	return c.ttl
}

// Issue はsubjectに紐づくトークンを発行する。
// 同じsubject・時刻・秘密鍵からは同じトークンが生成される。
func (c *Codec) Issue(subject string) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrEncoding
	}

	issuedAt := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    c.issuer,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(c.ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return signed, nil
}

// Parse はトークンを検証し、subjectを返す。
// 失敗理由はログにのみ出力し、呼び出し元には常にErrInvalidTokenを返す。
func (c *Codec) Parse(tokenString string) (string, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(c.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		c.logger.Warn("トークン検証に失敗", slog.String("reason", reasonOf(err)), slog.Any("error", err))
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		c.logger.Warn("トークン検証に失敗", slog.String("reason", "missing_subject"))
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// reasonOf はjwtのエラーを内部ログ用の理由文字列に変換する。
func reasonOf(err error) string {
	switch {
	case err == nil:
		return "invalid"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "claims"
	}
}
