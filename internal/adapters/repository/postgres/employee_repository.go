package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	pgdb "github.com/ogurasousui/codex-daily-report/internal/platform/db/postgres"
)

const employeeColumns = `code, name, role, password, delete_flg, created_at, updated_at`

// liveEmployees は論理削除されていない社員のみを対象とする SELECT 文を組み立てます。
// 参照系のクエリはすべてこの関数を経由します。
func liveEmployees(conditions, suffix string) string {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE delete_flg = FALSE`
	if conditions != "" {
		query += ` AND ` + conditions
	}
	if suffix != "" {
		query += ` ` + suffix
	}
	return query
}

var (
	insertEmployeeSQL = `INSERT INTO employees (` + employeeColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + employeeColumns

	updateEmployeeSQL = `UPDATE employees
   SET name = $1,
       role = $2,
       password = $3,
       delete_flg = $4,
       updated_at = $5
 WHERE code = $6 AND delete_flg = FALSE
RETURNING ` + employeeColumns

	findEmployeeByCodeSQL = liveEmployees(`code = $1`, `LIMIT 1`)
	listEmployeesSQL      = liveEmployees(``, `ORDER BY code`)
)

// EmployeeRepository は PostgreSQL を利用した社員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, insertEmployeeSQL,
		e.Code,
		e.Name,
		string(e.Role),
		e.Password,
		e.DeleteFlg,
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// Update は社員情報を更新します。論理削除済みの社員は更新できません。
func (r *EmployeeRepository) Update(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, updateEmployeeSQL,
		e.Name,
		string(e.Role),
		e.Password,
		e.DeleteFlg,
		e.UpdatedAt,
		e.Code,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return updated, nil
}

// FindByCode は社員番号で社員を取得します。
func (r *EmployeeRepository) FindByCode(ctx context.Context, code string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	found, err := scanEmployee(exec.QueryRow(ctx, findEmployeeByCodeSQL, code))
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// List は社員の一覧を社員番号順に取得します。
func (r *EmployeeRepository) List(ctx context.Context) ([]*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, listEmployeesSQL)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return employees, nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		code      string
		name      string
		role      string
		password  string
		deleteFlg bool
		createdAt time.Time
		updatedAt time.Time
	)

	if err := row.Scan(
		&code,
		&name,
		&role,
		&password,
		&deleteFlg,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		Code:      code,
		Name:      name,
		Role:      employee.Role(role),
		Password:  password,
		DeleteFlg: deleteFlg,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	code := pgErrorCode(err)
	switch {
	case isConflict(code):
		return fmt.Errorf("%w: %w", employee.ErrStorageConflict, err)
	case code == checkViolationCode:
		return fmt.Errorf("%w: %w", employee.ErrInvalidInput, err)
	}

	return err
}
