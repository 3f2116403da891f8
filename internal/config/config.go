package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// minTokenSecretLength はトークン署名用シークレットの最小長。
const minTokenSecretLength = 32

// Config は全サービスで共有する実行時設定。
type Config struct {
	// AppEnv は実行環境（development / production）。
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	// LogFormat はログ形式（text / json）。
	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	// LogLevel はログレベル（debug / info / warn / error）。
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// GatewayAddr はGatewayサービスのリッスンアドレス。
	GatewayAddr string `envconfig:"GATEWAY_ADDR" default:":8181"`
	// AuthAddr は認証サービスのリッスンアドレス。
	AuthAddr string `envconfig:"AUTH_ADDR" default:":8282"`
	// MessageAddr はメッセージサービスのリッスンアドレス。
	MessageAddr string `envconfig:"MESSAGE_ADDR" default:":8383"`

	// GatewayURL はGatewayサービスのベースURL。
	GatewayURL string `envconfig:"GATEWAY_URL" default:"http://localhost:8181"`
	// AuthURL は認証サービスのベースURL。
	AuthURL string `envconfig:"AUTH_SERVICE_URL" default:"http://localhost:8282"`
	// MessageURL はメッセージサービスのベースURL。
	MessageURL string `envconfig:"MESSAGE_SERVICE_URL" default:"http://localhost:8383"`

	// StoreDSN は資格情報ストアの接続文字列。
	// "postgres://" で始まる場合はPostgreSQL、それ以外はSQLiteとして扱う。
	StoreDSN string `envconfig:"STORE_DSN" default:"sqlite://./database.db"`

	// TokenSecret はトークン署名用の秘密鍵。全認証サービスのレプリカで同一である必要がある。
	TokenSecret string `envconfig:"TOKEN_SECRET"`
	// TokenTTL はトークンの有効期間。
	TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"30m"`
	// TokenIssuer はトークンのiss クレーム。
	TokenIssuer string `envconfig:"TOKEN_ISSUER" default:"gatekeeper-auth"`
	// BcryptCost はパスワードハッシュのコスト。
	BcryptCost int `envconfig:"BCRYPT_COST" default:"10"`

	// UpstreamTimeout はサービス間通信のタイムアウト。
	UpstreamTimeout time.Duration `envconfig:"UPSTREAM_TIMEOUT" default:"10s"`
	// ReadTimeout はHTTPサーバーの読み込みタイムアウト。
	ReadTimeout time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	// WriteTimeout はHTTPサーバーの書き込みタイムアウト。
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	// ShutdownTimeout はグレースフルシャットダウンの上限時間。
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	// CORSOrigins はGatewayが許可するオリジン。
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	// LoginRateLimit はGatewayのログインエンドポイントにおけるクライアントIP当たりの最大リクエスト数。
	LoginRateLimit int `envconfig:"LOGIN_RATE_LIMIT" default:"20"`
	// LoginRateWindow はログインのレート制限ウィンドウ。
	LoginRateWindow time.Duration `envconfig:"LOGIN_RATE_WINDOW" default:"1m"`

	// HealthInterval はスーパーバイザーのヘルスチェック間隔。
	HealthInterval time.Duration `envconfig:"HEALTH_INTERVAL" default:"10s"`
	// ProbeTimeout は1回のヘルスチェックのタイムアウト。
	ProbeTimeout time.Duration `envconfig:"PROBE_TIMEOUT" default:"3s"`
	// StopTimeout はプロセス停止時に強制終了へ切り替えるまでの猶予。
	StopTimeout time.Duration `envconfig:"STOP_TIMEOUT" default:"10s"`
}

// Load は .env ファイル（存在すれば）と環境変数から設定を読み込む。
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".envファイルの読み込みに失敗: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("環境変数の読み込みに失敗: %w", err)
	}
	return &cfg, nil
}

// ValidateTokenSecret はトークン署名用シークレットが利用可能かを検証する。
// 認証サービスのみが呼び出す。
func (c *Config) ValidateTokenSecret() error {
	if c.TokenSecret == "" {
		return errors.New("TOKEN_SECRET must be set")
	}
	if len(c.TokenSecret) < minTokenSecretLength {
		return fmt.Errorf("TOKEN_SECRET must be at least %d characters", minTokenSecretLength)
	}
	return nil
}

// IsProduction は本番環境で動作しているかを返す。
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
