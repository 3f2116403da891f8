// Package auth は認証サービス（Authentication Authority）の内部実装を提供する。
//
// サインアップ、ログイン、トークン検証を担当し、資格情報ストアとトークンコーデックに
// 直接アクセスする唯一のコンポーネントである。
//
// トークン検証は毎回ストアを1回参照して管理者フラグと有効状態を取得する。
// トークンに認可情報を埋め込まないため、ユーザーの削除や無効化は即座に反映される。
// その代わり検証1回につきO(1)のストア参照が発生するため、呼び出し側は
// 1つの論理リクエストにつき1回だけ検証を呼び出すこと。
package auth
