// Package message はメッセージサービスを実装する。
//
// 呼び出し元が検証済みのフラグ（is_valid, is_admin）だけを受け取り、
// 固定のテーブルから表示メッセージを選ぶ。トークンの検証は行わない。
package message
