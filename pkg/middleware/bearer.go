package middleware

import "strings"

// HeaderAuthorization は全サービスで共通のBearerトークン用ヘッダー。
// サービス間通信でも独自ヘッダーは使わず、このヘッダーのみを使用する。
const HeaderAuthorization = "Authorization"

// bearerPrefix はAuthorizationヘッダーのスキーム接頭辞。
const bearerPrefix = "Bearer "

// BearerToken はAuthorizationヘッダーの値からトークンを取り出す。
// 外部クライアント向けに接頭辞の無いトークンもそのまま受け付ける。
// 空の場合はfalseを返す。
func BearerToken(headerValue string) (string, bool) {
	v := strings.TrimSpace(headerValue)
	if len(v) >= len(bearerPrefix) && strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		v = strings.TrimSpace(v[len(bearerPrefix):])
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// BearerHeader はトークンをAuthorizationヘッダーの値に整形する。
func BearerHeader(token string) string {
	return bearerPrefix + token
}
