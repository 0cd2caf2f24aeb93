package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/core/report"
	pgdb "github.com/ogurasousui/codex-daily-report/internal/platform/db/postgres"
)

const (
	reportColumns       = `id, report_date, title, content, employee_code, delete_flg, created_at, updated_at`
	reportSelectColumns = `r.id, r.report_date, r.title, r.content, r.delete_flg, r.created_at, r.updated_at,
       e.code, e.name, e.role, e.delete_flg, e.created_at, e.updated_at`
)

// liveReports は論理削除されていない日報のみを対象とする SELECT 文を組み立てます。
// 作成者は社員側の削除フラグに関わらず結合します。
func liveReports(conditions, suffix string) string {
	query := `SELECT ` + reportSelectColumns + `
  FROM reports r
  JOIN employees e ON e.code = r.employee_code
 WHERE r.delete_flg = FALSE`
	if conditions != "" {
		query += ` AND ` + conditions
	}
	if suffix != "" {
		query += ` ` + suffix
	}
	return query
}

// writeReport は INSERT / UPDATE の結果に作成者を結合して返す文を組み立てます。
func writeReport(statement string) string {
	return `WITH r AS (
` + statement + `
RETURNING ` + reportColumns + `
)
SELECT ` + reportSelectColumns + `
  FROM r
  JOIN employees e ON e.code = r.employee_code`
}

var (
	insertReportSQL = writeReport(`INSERT INTO reports (report_date, title, content, employee_code, delete_flg, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`)

	updateReportSQL = writeReport(`UPDATE reports
   SET report_date = $1,
       title = $2,
       content = $3,
       delete_flg = $4,
       updated_at = $5
 WHERE id = $6 AND delete_flg = FALSE`)

	findReportByIDSQL              = liveReports(`r.id = $1`, `LIMIT 1`)
	findReportByEmployeeAndDateSQL = liveReports(`r.employee_code = $1 AND r.report_date = $2`, `LIMIT 1`)
	listReportsSQL                 = liveReports(``, `ORDER BY r.report_date DESC, r.id DESC`)
	listReportsByEmployeeSQL       = liveReports(`r.employee_code = $1`, `ORDER BY r.report_date DESC, r.id DESC`)
)

// ReportRepository は PostgreSQL を利用した日報永続化の実装です。
type ReportRepository struct {
	pool pgdb.Queryer
}

// NewReportRepository は ReportRepository を生成します。
func NewReportRepository(pool pgdb.Queryer) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create は日報を新規作成します。
func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) (*report.Report, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, insertReportSQL,
		rep.ReportDate,
		rep.Title,
		rep.Content,
		rep.EmployeeCode(),
		rep.DeleteFlg,
		rep.CreatedAt,
		rep.UpdatedAt,
	)

	created, err := scanReport(row)
	if err != nil {
		return nil, translateReportPgError(err)
	}
	return created, nil
}

// Update は日報を更新します。作成者は変更しません。
func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) (*report.Report, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, updateReportSQL,
		rep.ReportDate,
		rep.Title,
		rep.Content,
		rep.DeleteFlg,
		rep.UpdatedAt,
		rep.ID,
	)

	updated, err := scanReport(row)
	if err != nil {
		return nil, translateReportPgError(err)
	}
	return updated, nil
}

// FindByID は ID で日報を取得します。
func (r *ReportRepository) FindByID(ctx context.Context, id int64) (*report.Report, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanReport(exec.QueryRow(ctx, findReportByIDSQL, id))
	if err != nil {
		return nil, translateReportPgError(err)
	}
	return found, nil
}

// FindByEmployeeAndDate は社員番号と日付で日報を取得します。
func (r *ReportRepository) FindByEmployeeAndDate(ctx context.Context, employeeCode string, reportDate time.Time) (*report.Report, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanReport(exec.QueryRow(ctx, findReportByEmployeeAndDateSQL, employeeCode, reportDate))
	if err != nil {
		return nil, translateReportPgError(err)
	}
	return found, nil
}

// List は全社員の日報を日付の新しい順に取得します。
func (r *ReportRepository) List(ctx context.Context) ([]*report.Report, error) {
	return r.query(ctx, listReportsSQL)
}

// ListByEmployeeCode は指定した社員の日報を日付の新しい順に取得します。
func (r *ReportRepository) ListByEmployeeCode(ctx context.Context, employeeCode string) ([]*report.Report, error) {
	return r.query(ctx, listReportsByEmployeeSQL, employeeCode)
}

func (r *ReportRepository) query(ctx context.Context, sql string, args ...any) ([]*report.Report, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, translateReportPgError(err)
	}
	defer rows.Close()

	reports := make([]*report.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, translateReportPgError(err)
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, translateReportPgError(err)
	}

	return reports, nil
}

func scanReport(row pgx.Row) (*report.Report, error) {
	var (
		id                int64
		reportDate        time.Time
		title             string
		content           string
		deleteFlg         bool
		createdAt         time.Time
		updatedAt         time.Time
		employeeCode      string
		employeeName      string
		employeeRole      string
		employeeDeleteFlg bool
		employeeCreatedAt time.Time
		employeeUpdatedAt time.Time
	)

	if err := row.Scan(
		&id,
		&reportDate,
		&title,
		&content,
		&deleteFlg,
		&createdAt,
		&updatedAt,
		&employeeCode,
		&employeeName,
		&employeeRole,
		&employeeDeleteFlg,
		&employeeCreatedAt,
		&employeeUpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrReportNotFound
		}
		return nil, err
	}

	d := reportDate.UTC()
	return &report.Report{
		ID:         id,
		ReportDate: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Title:      title,
		Content:    content,
		DeleteFlg:  deleteFlg,
		CreatedAt:  createdAt.UTC(),
		UpdatedAt:  updatedAt.UTC(),
		Employee: &employee.Employee{
			Code:      employeeCode,
			Name:      employeeName,
			Role:      employee.Role(employeeRole),
			DeleteFlg: employeeDeleteFlg,
			CreatedAt: employeeCreatedAt.UTC(),
			UpdatedAt: employeeUpdatedAt.UTC(),
		},
	}, nil
}

func translateReportPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return report.ErrReportNotFound
	}

	code := pgErrorCode(err)
	switch {
	case isConflict(code):
		return fmt.Errorf("%w: %w", report.ErrStorageConflict, err)
	case code == foreignKeyViolationCode:
		return fmt.Errorf("%w: %w", report.ErrOwnerNotFound, err)
	case code == checkViolationCode:
		return fmt.Errorf("%w: %w", report.ErrInvalidInput, err)
	}

	return err
}
