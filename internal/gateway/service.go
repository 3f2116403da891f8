package gateway

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/gatekeeper/pkg/apperr"
	"github.com/nao1215/gatekeeper/pkg/middleware"
)

// missingTokenDetail はAuthorizationヘッダーが無い場合の詳細。
const missingTokenDetail = "Authorization token is missing"

// Service はGatewayの処理を組み立てる。
type Service struct {
	authority Authority
	messenger Messenger
	logger    *slog.Logger
}

// NewService は新しいServiceを生成する。
func NewService(authority Authority, messenger Messenger, logger *slog.Logger) *Service {
	return &Service{authority: authority, messenger: messenger, logger: logger}
}

// Signup はサインアップを認証サービスへ転送する。
func (s *Service) Signup(ctx context.Context, in SignupInput) (string, error) {
	detail, err := s.authority.Signup(ctx, in)
	if err != nil {
		return "", upstreamFailure(err)
	}
	return detail, nil
}

// Login はログインを認証サービスへ転送し、トークンを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (string, error) {
	tok, err := s.authority.Login(ctx, in)
	if err != nil {
		return "", upstreamFailure(err)
	}
	return tok, nil
}

// FetchPersonalMessage はAuthorizationヘッダーのトークンを検証し、結果に応じたメッセージを返す。
//
// 検証が成功した場合にのみメッセージサービスを呼び出す。
// 検証に失敗した場合はメッセージサービスを呼ばず、認証サービスの分類をタグ付けしたエラーを返す。
func (s *Service) FetchPersonalMessage(ctx context.Context, authorizationHeader string) (string, error) {
	tok, ok := middleware.BearerToken(authorizationHeader)
	if !ok {
		return "", apperr.Validation(missingTokenDetail)
	}

	validation, err := s.authority.Validate(ctx, tok)
	if err != nil {
		return "", upstreamFailure(err)
	}

	msg, err := s.messenger.Message(ctx, validation.IsValid, validation.IsAdmin)
	if err != nil {
		return "", upstreamFailure(err)
	}

	s.logger.Debug("メッセージを取得しました",
		slog.String("user", validation.User),
		slog.Bool("is_admin", validation.IsAdmin),
	)
	return msg, nil
}

// upstreamFailure はクライアントのエラーを分類済みの上流障害に変換する。
func upstreamFailure(err error) error {
	var upstream *apperr.UpstreamError
	if errors.As(err, &upstream) {
		return apperr.Upstream(upstream)
	}
	return apperr.Internal(err)
}
