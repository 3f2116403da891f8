package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nao1215/gatekeeper/pkg/apperr"
	"github.com/nao1215/gatekeeper/pkg/httpclient"
)

const (
	// serviceAuth は認証サービスの名前。
	serviceAuth = "auth"
	// serviceMessage はメッセージサービスの名前。
	serviceMessage = "message"
)

// SignupInput はサインアップの入力。
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validation は認証サービスによるトークン検証の結果。
type Validation struct {
	IsValid bool   `json:"is_valid"`
	User    string `json:"user"`
	IsAdmin bool   `json:"is_admin"`
}

// Authority は認証サービスへの操作。
type Authority interface {
	Signup(ctx context.Context, in SignupInput) (string, error)
	Login(ctx context.Context, in LoginInput) (string, error)
	Validate(ctx context.Context, token string) (*Validation, error)
}

// Messenger はメッセージサービスへの操作。
type Messenger interface {
	Message(ctx context.Context, isValid, isAdmin bool) (string, error)
}

// AuthClient は認証サービスのHTTPクライアント。
// 失敗はすべて*apperr.UpstreamErrorとして返す。
type AuthClient struct {
	client *httpclient.Client
}

// NewAuthClient は新しいAuthClientを生成する。
func NewAuthClient(baseURL string, timeout time.Duration) *AuthClient {
	return &AuthClient{client: httpclient.New(baseURL, timeout)}
}

// Signup はユーザー登録を認証サービスへ転送し、認証サービスの詳細メッセージを返す。
func (a *AuthClient) Signup(ctx context.Context, in SignupInput) (string, error) {
	var resp struct {
		Detail string `json:"detail"`
	}
	if err := a.client.PostJSON(ctx, "/signup", in, &resp); err != nil {
		return "", toUpstreamError(serviceAuth, err)
	}
	return resp.Detail, nil
}

// Login はログインを認証サービスへ転送し、発行されたトークンを返す。
func (a *AuthClient) Login(ctx context.Context, in LoginInput) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := a.client.PostJSON(ctx, "/login", in, &resp); err != nil {
		return "", toUpstreamError(serviceAuth, err)
	}
	if resp.Token == "" {
		return "", &apperr.UpstreamError{Service: serviceAuth, Kind: apperr.KindInternal, Detail: "トークンが含まれていません"}
	}
	return resp.Token, nil
}

// Validate はトークンをAuthorizationヘッダーで認証サービスへ送り、検証結果を返す。
func (a *AuthClient) Validate(ctx context.Context, token string) (*Validation, error) {
	var resp Validation
	if err := a.client.PostJSON(httpclient.WithBearerToken(ctx, token), "/validate-token", nil, &resp); err != nil {
		return nil, toUpstreamError(serviceAuth, err)
	}
	return &resp, nil
}

// MessageClient はメッセージサービスのHTTPクライアント。
type MessageClient struct {
	client *httpclient.Client
}

// NewMessageClient は新しいMessageClientを生成する。
func NewMessageClient(baseURL string, timeout time.Duration) *MessageClient {
	return &MessageClient{client: httpclient.New(baseURL, timeout)}
}

// Message はフラグに対応するメッセージを取得する。
func (m *MessageClient) Message(ctx context.Context, isValid, isAdmin bool) (string, error) {
	req := struct {
		IsValid bool `json:"is_valid"`
		IsAdmin bool `json:"is_admin"`
	}{IsValid: isValid, IsAdmin: isAdmin}

	var resp struct {
		Message string `json:"message"`
	}
	if err := m.client.PostJSON(ctx, "/get-message", req, &resp); err != nil {
		return "", toUpstreamError(serviceMessage, err)
	}
	return resp.Message, nil
}

// toUpstreamError はHTTPクライアントのエラーを上流エラーに変換する。
// 上流が分類済みのエラーボディを返した場合は、その分類を引き継ぐ。
// 詳細を引き継ぐのはクライアント起因の分類の場合のみ。
func toUpstreamError(service string, err error) *apperr.UpstreamError {
	statusErr, ok := httpclient.AsStatusError(err)
	if !ok {
		return &apperr.UpstreamError{
			Service: service,
			Kind:    apperr.KindUpstream,
			Detail:  fmt.Sprintf("%sサービスに到達できません", service),
			Err:     err,
		}
	}

	// 生のボディはErr経由でログにのみ出力する
	upstream := &apperr.UpstreamError{
		Service:    service,
		StatusCode: statusErr.StatusCode,
		Kind:       apperr.KindInternal,
		Detail:     fmt.Sprintf("%sサービスがステータス%dを返しました", service, statusErr.StatusCode),
		Err:        statusErr,
	}
	var body apperr.Body
	if json.Unmarshal(statusErr.Body, &body) == nil && body.Error != "" {
		upstream.Kind = body.Error
		if apperr.IsClientKind(body.Error) {
			upstream.Detail = body.Detail
		}
	}
	return upstream
}

var (
	_ Authority = (*AuthClient)(nil)
	_ Messenger = (*MessageClient)(nil)
)
