package auth

import "errors"

var (
	// ErrInvalidCredentials は社員番号またはパスワードが一致しない場合に返却されます。
	// どちらが誤っているかは区別しません。
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrUnauthenticated    = errors.New("auth: unauthenticated")
)
