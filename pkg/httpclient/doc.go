// Package httpclient はサービス間のHTTP通信を行うクライアントを提供する。
//
// Gatewayから認証サービス・メッセージサービスへの呼び出しと、
// スーパーバイザーのヘルスチェックで使用する。すべての呼び出しにタイムアウトを設け、
// Bearerトークンとリクエストの相関IDを伝播する。
package httpclient
