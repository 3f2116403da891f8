package auth

import (
	"errors"

	"github.com/nao1215/gatekeeper/pkg/token"
)

var (
	// ErrDuplicateUsername はユーザー名が既に登録されていることを表す。
	ErrDuplicateUsername = errors.New("ユーザー名は既に登録されています")
	// ErrDuplicateEmail はメールアドレスが既に登録されていることを表す。
	ErrDuplicateEmail = errors.New("メールアドレスは既に登録されています")
	// ErrPersistence は資格情報ストアの障害を表す。
	ErrPersistence = errors.New("資格情報ストアの操作に失敗しました")
	// ErrUnknownUser はユーザーが存在しないことを表す。
	ErrUnknownUser = errors.New("ユーザーが存在しません")
	// ErrBadCredentials はパスワードが一致しないことを表す。
	ErrBadCredentials = errors.New("パスワードが一致しません")
	// ErrUserInactive はユーザーが無効化されていることを表す。
	ErrUserInactive = errors.New("ユーザーは無効化されています")
	// ErrMissingToken はトークンが指定されていないことを表す。
	ErrMissingToken = errors.New("トークンが指定されていません")
	// ErrInvalidToken はトークンの検証に失敗したことを表す。
	ErrInvalidToken = token.ErrInvalidToken
)
