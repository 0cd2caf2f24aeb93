package report

import (
	"context"
	"errors"
	"strings"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
)

// ErrPrincipalRequired は呼び出し元が特定できない場合に返却されます。
var ErrPrincipalRequired = errors.New("report: principal is required")

// Lister は日報一覧の取得手段です。
type Lister interface {
	ListReports(ctx context.Context) ([]*Report, error)
	ListReportsByEmployee(ctx context.Context, employeeCode string) ([]*Report, error)
}

// VisibilityGate は呼び出し元の権限に応じて閲覧可能な日報を決定します。
type VisibilityGate struct {
	reports Lister
}

// NewVisibilityGate は VisibilityGate を生成します。
func NewVisibilityGate(reports Lister) *VisibilityGate {
	return &VisibilityGate{reports: reports}
}

// VisibleReports は管理者には全社員の日報を、一般社員には自分の日報のみを返します。
func (g *VisibilityGate) VisibleReports(ctx context.Context, principal employee.Principal) ([]*Report, error) {
	if strings.TrimSpace(principal.Code) == "" {
		return nil, ErrPrincipalRequired
	}

	if principal.IsAdmin() {
		return g.reports.ListReports(ctx)
	}
	return g.reports.ListReportsByEmployee(ctx, principal.Code)
}
