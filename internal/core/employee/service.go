package employee

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

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

// PasswordPolicy は候補パスワードを検証しハッシュ値を返します。
type PasswordPolicy interface {
	Check(candidate string) (string, error)
}

// Service は社員に関するユースケースをまとめます。
type Service struct {
	repo   Repository
	policy PasswordPolicy
	clock  Clock
	tx     TransactionManager
}

// UseCase は社員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
}

// NewService は Service を生成します。
func NewService(repo Repository, policy PasswordPolicy, clock Clock, tx TransactionManager) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, policy: policy, clock: clock, tx: tx}
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	Code     string `json:"code" validate:"required,max=10"`
	Name     string `json:"name" validate:"required,max=20"`
	Role     Role   `json:"role" validate:"required,oneof=GENERAL ADMIN"`
	Password string `json:"password"`
}

// UpdateEmployeeInput は社員更新時の入力です。
// Password が空文字の場合は既存のパスワードを維持します。
type UpdateEmployeeInput struct {
	Code     string `json:"code" validate:"required,max=10"`
	Name     string `json:"name" validate:"required,max=20"`
	Role     Role   `json:"role" validate:"required,oneof=GENERAL ADMIN"`
	Password string `json:"password"`
}

// DeleteEmployeeInput は社員削除時の入力です。
type DeleteEmployeeInput struct {
	Code  string
	Actor Principal
}

// GetEmployeeInput は社員取得時の入力です。
type GetEmployeeInput struct {
	Code string
}

// CreateEmployee は新しい社員を作成します。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	if err := validation.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	digest, err := s.policy.Check(in.Password)
	if err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureCodeNotExists(txCtx, in.Code); err != nil {
			return err
		}

		now := s.clock.Now()
		emp := &Employee{
			Code:      in.Code,
			Name:      in.Name,
			Role:      in.Role,
			Password:  digest,
			DeleteFlg: false,
			CreatedAt: now,
			UpdatedAt: now,
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			if errors.Is(err, ErrStorageConflict) {
				return fmt.Errorf("%w: %w", ErrDuplicateCode, err)
			}
			return err
		}

		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// UpdateEmployee は社員情報を更新します。
// 作成日時と削除フラグは保存済みの値を引き継ぎます。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if err := validation.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByCode(txCtx, in.Code)
		if err != nil {
			return err
		}

		draft := &Employee{
			Code:     existing.Code,
			Name:     in.Name,
			Role:     in.Role,
			Password: in.Password,
		}
		carryForward(existing, draft)

		if in.Password == "" {
			draft.Password = existing.Password
		} else {
			digest, err := s.policy.Check(in.Password)
			if err != nil {
				return err
			}
			draft.Password = digest
		}

		draft.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, draft)
		if err != nil {
			return err
		}

		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteEmployee は社員を論理削除します。自分自身は削除できません。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("code: %w", ErrInvalidCode)
	}

	if in.Code == in.Actor.Code {
		return ErrSelfDelete
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByCode(txCtx, in.Code)
		if err != nil {
			return err
		}

		existing.DeleteFlg = true
		existing.UpdatedAt = s.clock.Now()

		_, err = s.repo.Update(txCtx, existing)
		return err
	})
}

// GetEmployee は社員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*Employee, error) {
	if strings.TrimSpace(in.Code) == "" {
		return nil, fmt.Errorf("code: %w", ErrInvalidCode)
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByCode(txCtx, in.Code)
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

// ListEmployees は社員の一覧を社員番号順に取得します。
func (s *Service) ListEmployees(ctx context.Context) ([]*Employee, error) {
	var employees []*Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx)
		if err != nil {
			return err
		}
		employees = found
		return nil
	}); err != nil {
		return nil, err
	}

	return employees, nil
}

func (s *Service) ensureCodeNotExists(ctx context.Context, code string) error {
	emp, err := s.repo.FindByCode(ctx, code)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if emp != nil {
		return ErrDuplicateCode
	}
	return nil
}

// carryForward はサーバー管理項目を保存済みの行から引き継ぎます。
func carryForward(original, draft *Employee) {
	draft.CreatedAt = original.CreatedAt
	draft.DeleteFlg = original.DeleteFlg
}
