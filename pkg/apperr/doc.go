// Package apperr はサービス間で共通のエラー分類とHTTPレスポンスへの変換を提供する。
//
// すべてのクライアント向けエラーは安定したエラー種別（Kind）と人間が読める
// 詳細文字列を持つ。内部障害の原因はログにのみ出力し、レスポンスには含めない。
package apperr
