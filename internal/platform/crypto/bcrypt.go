package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptHasher は bcrypt によるパスワードハッシュの生成と照合を行います。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を生成します。cost が範囲外の場合は既定値を使用します。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash は平文パスワードのハッシュ値を返します。
func (h *BcryptHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(digest), nil
}

// Compare はハッシュ値と平文パスワードが一致しない場合にエラーを返します。
func (h *BcryptHasher) Compare(digest, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
}
