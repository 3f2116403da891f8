// Package token は署名付きで有効期限を持つ本人確認トークンの発行と検証を提供する。
//
// トークンにはユーザー名（sub）、発行日時、有効期限のみを含め、管理者フラグなどの
// 認可情報は含めない。認可情報は検証のたびに資格情報ストアから取得する。
package token
