package report

import (
	"context"
	"time"
)

// Repository は日報永続化の抽象です。
// 参照系はすべて論理削除済みの行を除外します。
type Repository interface {
	Create(ctx context.Context, report *Report) (*Report, error)
	Update(ctx context.Context, report *Report) (*Report, error)
	FindByID(ctx context.Context, id int64) (*Report, error)
	FindByEmployeeAndDate(ctx context.Context, employeeCode string, reportDate time.Time) (*Report, error)
	List(ctx context.Context) ([]*Report, error)
	ListByEmployeeCode(ctx context.Context, employeeCode string) ([]*Report, error)
}
