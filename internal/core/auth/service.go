package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// EmployeeLookup は認証に用いる社員の参照手段です。論理削除済みの社員は見つかりません。
type EmployeeLookup interface {
	FindByCode(ctx context.Context, code string) (*employee.Employee, error)
}

// PasswordVerifier は保存済みのハッシュ値と平文パスワードを照合します。
type PasswordVerifier interface {
	Compare(digest, plain string) error
}

// Claims はアクセストークンに含まれる情報です。
type Claims struct {
	TokenID   string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenIssuer はアクセストークンの発行と検証を行います。
type TokenIssuer interface {
	Issue(subject string, now time.Time) (string, Claims, error)
	Verify(token string, now time.Time) (Claims, error)
}

// RevocationList はログアウト済みトークンの失効リストです。
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session はログイン成功時に返却されるセッション情報です。
type Session struct {
	Token     string
	ExpiresAt time.Time
	Employee  *employee.Employee
}

// Service はログイン・認証・ログアウトをまとめます。
type Service struct {
	employees EmployeeLookup
	verifier  PasswordVerifier
	tokens    TokenIssuer
	revoked   RevocationList
	clock     Clock
}

// NewService は Service を生成します。revoked が nil の場合はプロセス内の失効リストを使用します。
func NewService(employees EmployeeLookup, verifier PasswordVerifier, tokens TokenIssuer, revoked RevocationList, clock Clock) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if revoked == nil {
		revoked = NewMemoryRevocationList(clock)
	}
	return &Service{
		employees: employees,
		verifier:  verifier,
		tokens:    tokens,
		revoked:   revoked,
		clock:     clock,
	}
}

// Login は社員番号とパスワードを照合し、アクセストークンを発行します。
func (s *Service) Login(ctx context.Context, code, password string) (*Session, error) {
	if strings.TrimSpace(code) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	emp, err := s.employees.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.verifier.Compare(emp.Password, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(emp.Code, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("auth: issue token: %w", err)
	}

	return &Session{Token: token, ExpiresAt: claims.ExpiresAt, Employee: emp}, nil
}

// Authenticate はアクセストークンを検証し、現在の社員情報を返します。
// 権限の変更や論理削除はトークン発行後でも即座に反映されます。
func (s *Service) Authenticate(ctx context.Context, token string) (*employee.Employee, error) {
	claims, err := s.verify(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return nil, fmt.Errorf("auth: revocation lookup: %w", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthenticated)
	}

	emp, err := s.employees.FindByCode(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
		}
		return nil, err
	}

	return emp, nil
}

// Logout はトークンを有効期限まで失効させます。
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.verify(token)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}

	if err := s.revoked.Revoke(ctx, claims.TokenID, ttl); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

func (s *Service) verify(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, fmt.Errorf("%w: token is required", ErrUnauthenticated)
	}

	claims, err := s.tokens.Verify(token, s.clock.Now())
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	return claims, nil
}
