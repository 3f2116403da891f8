// Package gateway はGatewayサービスの内部実装を提供する。
//
// 外部からアクセス可能な唯一のサービスであり、サインアップとログインを認証サービスへ転送し、
// 個人向けメッセージの取得では「トークン検証の成功後にのみメッセージを生成する」順序を守る。
// 上流サービスの失敗は握りつぶさず、上流のエラー分類をタグとして付けて返す。
// リトライは行わない。
package gateway
