package apperr

import "fmt"

// UpstreamError は依存サービスが返したエラーを表す。
// 上流サービスのエラー分類をタグとして保持し、握りつぶさずに呼び出し元へ伝える。
type UpstreamError struct {
	// Service は上流サービス名。
	Service string
	// StatusCode は上流サービスが返したHTTPステータス。到達できなかった場合は0。
	StatusCode int
	// Kind は上流サービスが返したエラー分類。
	Kind Kind
	// Detail は上流サービスが返した詳細。
	Detail string
	// Err は通信エラーなどの原因。
	Err error
}

// Error はerrorインターフェースを実装する。
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s: status=%d, kind=%s, detail=%s", e.Service, e.StatusCode, e.Kind, e.Detail)
}

// Unwrap は原因エラーを返す。
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream は上流エラーを分類済みエラーに変換する。
// 上流がクライアント起因のエラーを4xxで返した場合はそのステータスを維持し、
// それ以外（到達不能、5xx）は502として扱う。
func Upstream(err *UpstreamError) *Error {
	appErr := &Error{
		Kind:   KindUpstream,
		Detail: fmt.Sprintf("%sでエラーが発生しました", err.Service),
		Err:    err,
	}
	if IsClientKind(err.Kind) {
		appErr.Status = StatusOf(err.Kind)
		if err.StatusCode >= 400 && err.StatusCode < 500 {
			appErr.Status = err.StatusCode
		}
	}
	return appErr
}
