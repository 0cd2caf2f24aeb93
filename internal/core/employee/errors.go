package employee

import "errors"

var (
	ErrInvalidInput     = errors.New("employee: invalid input")
	ErrInvalidCode      = errors.New("employee: invalid code")
	ErrEmployeeNotFound = errors.New("employee: not found")
	ErrDuplicateCode    = errors.New("employee: code already exists")
	ErrSelfDelete       = errors.New("employee: cannot delete own account")
	// ErrStorageConflict は永続化層の一意制約違反や直列化失敗を表します。
	ErrStorageConflict = errors.New("employee: storage conflict")
)
