// Package config は全サービス共通の実行時設定とロガーを提供する。
//
// 設定は各cmdのmain関数で一度だけ読み込み、構造体として各コンポーネントへ
// 明示的に渡す。config以外のパッケージは環境変数を直接参照しない。
package config
