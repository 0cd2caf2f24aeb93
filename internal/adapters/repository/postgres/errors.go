package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolationCode       = "23505"
	foreignKeyViolationCode   = "23503"
	checkViolationCode        = "23514"
	serializationFailureCode  = "40001"
	deadlockDetectedErrorCode = "40P01"
)

// pgErrorCode はエラーが PostgreSQL 由来であればその SQLSTATE を返します。
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isConflict は一意制約違反または同時実行による失敗かどうかを返します。
func isConflict(code string) bool {
	switch code {
	case uniqueViolationCode, serializationFailureCode, deadlockDetectedErrorCode:
		return true
	default:
		return false
	}
}
