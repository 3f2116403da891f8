package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// TokenCodec はトークンの発行と検証を行う。
type TokenCodec interface {
	Issue(subject string) (string, error)
	Parse(token string) (string, error)
}

// Service は認証サービスのビジネスロジック。
// リクエストごとに独立しており、プロセス内で共有する可変状態を持たない。
type Service struct {
	store  Store
	codec  TokenCodec
	hasher PasswordHasher
	logger *slog.Logger
}

// NewService は新しいServiceを生成する。
func NewService(store Store, codec TokenCodec, hasher PasswordHasher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		codec:  codec,
		hasher: hasher,
		logger: logger,
	}
}

// Signup は新しいユーザーを登録する。
//
// ユーザー名とメールアドレスの存在確認を両方行ったうえで、ユーザー名の重複を優先して返す。
// 存在確認と作成はアトミックではないため、同時サインアップの競合はストアの一意制約で検出する。
func (s *Service) Signup(ctx context.Context, username, email, password string, isAdmin bool) (*SignupResult, error) {
	usernameTaken, err := s.store.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	emailTaken, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	switch {
	case usernameTaken:
		return nil, ErrDuplicateUsername
	case emailTaken:
		return nil, ErrDuplicateEmail
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user, err := s.store.Create(ctx, NewUser{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	})
	if errors.Is(err, ErrDuplicateUsername) || errors.Is(err, ErrDuplicateEmail) {
		s.logger.Warn("サインアップの競合をストアの一意制約で検出", slog.String("username", username), slog.Any("error", err))
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Info("ユーザーを作成しました", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return &SignupResult{ID: user.ID, Username: user.Username, Email: user.Email}, nil
}

// Login は資格情報を検証し、トークンを発行する。
// 未知のユーザーとパスワード不一致は内部的に区別するが、外部には同じ種別として返すこと。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if errors.Is(err, ErrUnknownUser) {
		return "", ErrUnknownUser
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", ErrUserInactive
	}

	tok, err := s.codec.Issue(user.Username)
	if err != nil {
		return "", err
	}
	return tok, nil
}

// Validate はトークンを検証し、ストアから最新の管理者フラグを取得する。
// 発行後にユーザーが削除・無効化された場合は失敗する。
func (s *Service) Validate(ctx context.Context, tok string) (*ValidationResult, error) {
	if tok == "" {
		return nil, ErrMissingToken
	}

	subject, err := s.codec.Parse(tok)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.FindByUsername(ctx, subject)
	if errors.Is(err, ErrUnknownUser) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return &ValidationResult{
		IsValid: true,
		Subject: user.Username,
		IsAdmin: user.IsAdmin,
	}, nil
}
