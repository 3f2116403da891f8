package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はエラーの分類を表す。
type Kind string

const (
	// KindValidation はリクエストフィールドの欠落・不正を表す。
	KindValidation Kind = "validation_failure"
	// KindCredential は未知のユーザー、パスワード不一致、重複登録などを表す。
	KindCredential Kind = "credential_failure"
	// KindUpstream は依存サービスがエラーを返した、または到達できなかったことを表す。
	KindUpstream Kind = "upstream_failure"
	// KindInternal は予期しない内部障害を表す。
	KindInternal Kind = "internal_fault"
)

// internalDetail は内部障害時にクライアントへ返す固定の詳細文字列。
const internalDetail = "内部サーバーエラーが発生しました"

// Error は分類済みのアプリケーションエラー。
type Error struct {
	// Kind はエラーの分類。
	Kind Kind
	// Detail はクライアントに返す詳細文字列。
	Detail string
	// Status はHTTPステータスの上書き。0の場合はKindから決定する。
	Status int
	// Err は原因となったエラー。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Unwrap は原因エラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus はエラーに対応するHTTPステータスコードを返す。
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return StatusOf(e.Kind)
}

// ClientDetail はクライアントに返してよい詳細文字列を返す。
func (e *Error) ClientDetail() string {
	if e.Kind == KindInternal {
		return internalDetail
	}
	return e.Detail
}

// New は原因を持たない分類済みエラーを生成する。
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Wrap は原因エラーを分類済みエラーで包む。
func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Validation はバリデーションエラーを生成する。
func Validation(detail string) *Error {
	return New(KindValidation, detail)
}

// Credential は資格情報エラーを生成する。
func Credential(detail string, err error) *Error {
	return Wrap(KindCredential, detail, err)
}

// Internal は内部障害エラーを生成する。
func Internal(err error) *Error {
	return Wrap(KindInternal, internalDetail, err)
}

// StatusOf はエラー分類に対応するHTTPステータスコードを返す。
func StatusOf(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindCredential:
		return http.StatusUnauthorized
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsClientKind はエラー分類がクライアント起因（4xx系）かを返す。
func IsClientKind(kind Kind) bool {
	return kind == KindValidation || kind == KindCredential
}

// As はerrから*Errorを取り出す。分類されていないエラーは内部障害として扱う。
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
