// Package smoke はGateway経由で一連の操作を実行し、フリート全体の疎通を確認する。
package smoke

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/gatekeeper/pkg/httpclient"
)

// Account は確認に使うアカウント。
type Account struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// DefaultAccounts は管理者と一般ユーザーの2アカウント。
var DefaultAccounts = []Account{
	{Username: "admin_user", Email: "admin_user@example.com", Password: "admin_user_password", IsAdmin: true},
	{Username: "normal_user", Email: "normal_user@example.com", Password: "normal_user_password"},
}

// Result は1アカウント分の確認結果。
type Result struct {
	Username string
	Message  string
}

// envelope はGatewayのレスポンス。
type envelope struct {
	StatusCode int    `json:"status_code"`
	Detail     string `json:"detail"`
	Token      string `json:"token"`
}

// Client はGatewayに対する確認クライアント。
type Client struct {
	client *httpclient.Client
	logger *slog.Logger
}

// New は新しいClientを生成する。
func New(gatewayURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{client: httpclient.New(gatewayURL, timeout), logger: logger}
}

// Run は各アカウントでサインアップ、ログイン、メッセージ取得を順に実行する。
// 既に登録済みのアカウントのサインアップ失敗（409）は無視する。
func (c *Client) Run(ctx context.Context, accounts []Account) ([]Result, error) {
	results := make([]Result, 0, len(accounts))
	for _, account := range accounts {
		if err := c.signup(ctx, account); err != nil {
			return results, err
		}

		tok, err := c.login(ctx, account)
		if err != nil {
			return results, err
		}

		msg, err := c.message(ctx, tok)
		if err != nil {
			return results, err
		}
		c.logger.Info("メッセージを取得しました", slog.String("username", account.Username), slog.String("message", msg))
		results = append(results, Result{Username: account.Username, Message: msg})
	}
	return results, nil
}

func (c *Client) signup(ctx context.Context, account Account) error {
	var env envelope
	err := c.client.PostJSON(ctx, "/user/signup", account, &env)
	if statusErr, ok := httpclient.AsStatusError(err); ok && statusErr.StatusCode == http.StatusConflict {
		c.logger.Info("登録済みのためサインアップを省略します", slog.String("username", account.Username))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%sのサインアップに失敗: %w", account.Username, err)
	}
	c.logger.Info("サインアップしました", slog.String("username", account.Username), slog.String("detail", env.Detail))
	return nil
}

func (c *Client) login(ctx context.Context, account Account) (string, error) {
	req := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{Username: account.Username, Password: account.Password}

	var env envelope
	if err := c.client.PostJSON(ctx, "/user/login", req, &env); err != nil {
		return "", fmt.Errorf("%sのログインに失敗: %w", account.Username, err)
	}
	if env.Token == "" {
		return "", fmt.Errorf("%sのログイン応答にトークンがありません", account.Username)
	}
	return env.Token, nil
}

func (c *Client) message(ctx context.Context, tok string) (string, error) {
	var env envelope
	if err := c.client.GetJSON(httpclient.WithBearerToken(ctx, tok), "/user/message", &env); err != nil {
		return "", fmt.Errorf("メッセージの取得に失敗: %w", err)
	}
	return env.Detail, nil
}
