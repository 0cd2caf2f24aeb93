package report

import (
	"time"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
)

// Report は日報エンティティです。
type Report struct {
	ID         int64
	ReportDate time.Time
	Title      string
	Content    string
	// Employee は作成者です。作成後に変更されることはありません。
	Employee  *employee.Employee
	DeleteFlg bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EmployeeCode は作成者の社員番号を返します。
func (r *Report) EmployeeCode() string {
	if r == nil || r.Employee == nil {
		return ""
	}
	return r.Employee.Code
}
