package password

import (
	"errors"
	"fmt"
	"regexp"
)

const (
	// MinLength はパスワードの最小文字数です。
	MinLength = 8
	// MaxLength はパスワードの最大文字数です。
	MaxLength = 16
)

var (
	// ErrCharset はパスワードに半角英数字以外が含まれる場合に返却されます。
	ErrCharset = errors.New("password: must consist of ASCII letters and digits only")
	// ErrLength はパスワードの文字数が範囲外の場合に返却されます。
	ErrLength = errors.New("password: length must be between 8 and 16")
)

var halfWidthAlnum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Hasher は平文パスワードの一方向ハッシュを計算します。
type Hasher interface {
	Hash(plain string) (string, error)
}

// Policy はパスワードポリシーの検証とハッシュ化を行います。
type Policy struct {
	hasher Hasher
}

// NewPolicy は Policy を生成します。
func NewPolicy(hasher Hasher) *Policy {
	return &Policy{hasher: hasher}
}

// Check は候補パスワードを検証し、合格した場合のみハッシュ値を返します。
// 文字種チェックは文字数チェックより先に評価されます。
func (p *Policy) Check(candidate string) (string, error) {
	if !halfWidthAlnum.MatchString(candidate) {
		return "", ErrCharset
	}

	// 文字種チェック通過後は ASCII のみなのでバイト長が文字数と一致する。
	if n := len(candidate); n < MinLength || n > MaxLength {
		return "", ErrLength
	}

	digest, err := p.hasher.Hash(candidate)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return digest, nil
}

// IsPolicyError はパスワードポリシー違反かどうかを判定します。
func IsPolicyError(err error) bool {
	return errors.Is(err, ErrCharset) || errors.Is(err, ErrLength)
}
