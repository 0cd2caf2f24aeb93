package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/core/validation"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Service は日報に関するユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
}

// UseCase は日報ユースケースの公開インターフェースです。
type UseCase interface {
	CreateReport(ctx context.Context, in CreateReportInput, owner *employee.Employee) (*Report, error)
	GetReport(ctx context.Context, in GetReportInput) (*Report, error)
	ListReports(ctx context.Context) ([]*Report, error)
	ListReportsByEmployee(ctx context.Context, employeeCode string) ([]*Report, error)
	UpdateReport(ctx context.Context, in UpdateReportInput) (*Report, error)
	DeleteReport(ctx context.Context, in DeleteReportInput) error
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx}
}

// CreateReportInput は日報作成時の入力です。作成者は入力に含めません。
type CreateReportInput struct {
	ReportDate time.Time `json:"report_date" validate:"required"`
	Title      string    `json:"title" validate:"required,max=100"`
	Content    string    `json:"content" validate:"required"`
}

// UpdateReportInput は日報更新時の入力です。
type UpdateReportInput struct {
	ID         int64     `json:"id"`
	ReportDate time.Time `json:"report_date" validate:"required"`
	Title      string    `json:"title" validate:"required,max=100"`
	Content    string    `json:"content" validate:"required"`
}

// DeleteReportInput は日報削除時の入力です。
type DeleteReportInput struct {
	ID int64
}

// GetReportInput は日報取得時の入力です。
type GetReportInput struct {
	ID int64
}

// CreateReport は owner を作成者として日報を作成します。
// 同一社員・同一日付の日報が既に存在する場合は ErrDuplicateDate を返します。
func (s *Service) CreateReport(ctx context.Context, in CreateReportInput, owner *employee.Employee) (*Report, error) {
	if owner == nil || strings.TrimSpace(owner.Code) == "" {
		return nil, ErrOwnerRequired
	}

	if err := validation.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	reportDate := normalizeDate(in.ReportDate)

	var created *Report
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureDateAvailable(txCtx, owner.Code, reportDate); err != nil {
			return err
		}

		now := s.clock.Now()
		rep := &Report{
			ReportDate: reportDate,
			Title:      in.Title,
			Content:    in.Content,
			Employee:   owner,
			DeleteFlg:  false,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		result, err := s.repo.Create(txCtx, rep)
		if err != nil {
			return translateConflict(err)
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateReport は日報を更新します。
// 作成者・作成日時・削除フラグは保存済みの行から引き継ぎ、入力値では上書きできません。
func (s *Service) UpdateReport(ctx context.Context, in UpdateReportInput) (*Report, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	if err := validation.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var updated *Report
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		draft := &Report{
			ID:         existing.ID,
			ReportDate: normalizeDate(in.ReportDate),
			Title:      in.Title,
			Content:    in.Content,
		}
		carryForward(existing, draft)

		if !draft.ReportDate.Equal(normalizeDate(existing.ReportDate)) {
			if err := s.ensureDateAvailable(txCtx, existing.EmployeeCode(), draft.ReportDate); err != nil {
				return err
			}
		}

		draft.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, draft)
		if err != nil {
			return translateConflict(err)
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteReport は日報を論理削除します。
// 作成者や権限の確認は行いません。
func (s *Service) DeleteReport(ctx context.Context, in DeleteReportInput) error {
	if in.ID <= 0 {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}

		existing.DeleteFlg = true
		existing.UpdatedAt = s.clock.Now()

		_, err = s.repo.Update(txCtx, existing)
		return err
	})
}

// GetReport は日報を取得します。
func (s *Service) GetReport(ctx context.Context, in GetReportInput) (*Report, error) {
	if in.ID <= 0 {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Report
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListReports は全社員の日報を取得します。
func (s *Service) ListReports(ctx context.Context) ([]*Report, error) {
	return s.list(ctx, func(txCtx context.Context) ([]*Report, error) {
		return s.repo.List(txCtx)
	})
}

// ListReportsByEmployee は指定した社員の日報を取得します。
func (s *Service) ListReportsByEmployee(ctx context.Context, employeeCode string) ([]*Report, error) {
	return s.list(ctx, func(txCtx context.Context) ([]*Report, error) {
		return s.repo.ListByEmployeeCode(txCtx, employeeCode)
	})
}

func (s *Service) list(ctx context.Context, fetch func(context.Context) ([]*Report, error)) ([]*Report, error) {
	var reports []*Report
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := fetch(txCtx)
		if err != nil {
			return err
		}
		reports = found
		return nil
	}); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) ensureDateAvailable(ctx context.Context, employeeCode string, reportDate time.Time) error {
	found, err := s.repo.FindByEmployeeAndDate(ctx, employeeCode, reportDate)
	if err != nil && !errors.Is(err, ErrReportNotFound) {
		return err
	}
	if found != nil {
		return ErrDuplicateDate
	}
	return nil
}

// carryForward はサーバー管理項目を保存済みの行から引き継ぎます。
func carryForward(original, draft *Report) {
	draft.Employee = original.Employee
	draft.CreatedAt = original.CreatedAt
	draft.DeleteFlg = original.DeleteFlg
}

func translateConflict(err error) error {
	if errors.Is(err, ErrStorageConflict) {
		return fmt.Errorf("%w: %w", ErrDuplicateDate, err)
	}
	return err
}

func normalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
