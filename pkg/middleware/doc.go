// Package middleware は3つのHTTPサービスで共通して使用するGinミドルウェアを提供する。
//
// Bearerトークンの取り出しと転送、リクエストID、アクセスログ、パニックリカバリ、
// CORS、ログイン試行のレート制限を含む。
package middleware
