package auth

import "time"

// User は資格情報ストアに保存されるユーザーレコード。
type User struct {
	ID            string
	Username      string
	Email         string
	PasswordHash  string
	IsAdmin       bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeactivatedAt *time.Time
}

// NewUser はユーザー作成時の入力。
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// SignupResult はサインアップ成功時に返す公開情報。
type SignupResult struct {
	ID       string
	Username string
	Email    string
}

// ValidationResult は1回のトークン検証の結果。永続化しない。
type ValidationResult struct {
	IsValid bool
	Subject string
	IsAdmin bool
}
