package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードハッシュの生成と照合を行う。
// アルゴリズムの選択は実装に委ねる。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// BcryptHasher はbcryptによるPasswordHasher実装。
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher はBcryptHasherを生成する。範囲外のコストはデフォルト値に置き換える。
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

// Hash はパスワードのハッシュを生成する。
func (h BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", fmt.Errorf("パスワードのハッシュ化に失敗: %w", err)
	}
	return string(hashed), nil
}

// Compare はハッシュとパスワードを照合する。一致しない場合はErrBadCredentialsを返す。
func (h BcryptHasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrBadCredentials
	}
	if err != nil {
		return fmt.Errorf("パスワードの照合に失敗: %w", err)
	}
	return nil
}
