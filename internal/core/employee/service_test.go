package employee

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/ogurasousui/codex-daily-report/internal/core/password"
	"github.com/ogurasousui/codex-daily-report/internal/core/validation"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type prefixHasher struct{}

func (prefixHasher) Hash(plain string) (string, error) {
	return "digest:" + plain, nil
}

// fakeEmployeeRepo は論理削除済みの行も保持し、参照時のみ除外します。
type fakeEmployeeRepo struct {
	rows        map[string]*Employee
	createErr   error
	createCalls int
	updateCalls int
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{rows: make(map[string]*Employee)}
}

func (r *fakeEmployeeRepo) Create(_ context.Context, e *Employee) (*Employee, error) {
	r.createCalls++
	if r.createErr != nil {
		return nil, r.createErr
	}
	// 主キーは論理削除済みの行とも衝突する。
	if _, ok := r.rows[e.Code]; ok {
		return nil, ErrStorageConflict
	}
	r.rows[e.Code] = cloneEmployee(e)
	return cloneEmployee(e), nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, e *Employee) (*Employee, error) {
	r.updateCalls++
	existing, ok := r.rows[e.Code]
	if !ok || existing.DeleteFlg {
		return nil, ErrEmployeeNotFound
	}
	stored := cloneEmployee(e)
	stored.CreatedAt = existing.CreatedAt
	r.rows[e.Code] = stored
	return cloneEmployee(stored), nil
}

func (r *fakeEmployeeRepo) FindByCode(_ context.Context, code string) (*Employee, error) {
	emp, ok := r.rows[code]
	if !ok || emp.DeleteFlg {
		return nil, ErrEmployeeNotFound
	}
	return cloneEmployee(emp), nil
}

func (r *fakeEmployeeRepo) List(_ context.Context) ([]*Employee, error) {
	codes := make([]string, 0, len(r.rows))
	for code, emp := range r.rows {
		if !emp.DeleteFlg {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	out := make([]*Employee, 0, len(codes))
	for _, code := range codes {
		out = append(out, cloneEmployee(r.rows[code]))
	}
	return out, nil
}

// raw は論理削除済みも含めて行を直接参照します。
func (r *fakeEmployeeRepo) raw(code string) *Employee {
	return r.rows[code]
}

func cloneEmployee(emp *Employee) *Employee {
	if emp == nil {
		return nil
	}
	copy := *emp
	return &copy
}

func newTestService(repo Repository, clk Clock) *Service {
	return NewService(repo, password.NewPolicy(prefixHasher{}), clk, nil)
}

func mustCreate(t *testing.T, svc *Service, in CreateEmployeeInput) *Employee {
	t.Helper()
	created, err := svc.CreateEmployee(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	return created
}

func TestService_CreateEmployee_Success(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	svc := newTestService(repo, &stubClock{now: now})

	created := mustCreate(t, svc, CreateEmployeeInput{
		Code:     "E001",
		Name:     "山田太郎",
		Role:     RoleGeneral,
		Password: "Passw0rd",
	})

	if created.Password == "Passw0rd" {
		t.Fatalf("password must be stored as a digest")
	}
	if created.Password != "digest:Passw0rd" {
		t.Fatalf("unexpected digest: %s", created.Password)
	}
	if created.DeleteFlg {
		t.Fatalf("new employee must be live")
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("expected timestamps to use clock now")
	}
}

func TestService_CreateEmployee_DuplicateCode(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})

	original := mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Code:     "E001",
		Name:     "別人",
		Role:     RoleAdmin,
		Password: "Other123",
	})
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	stored := repo.raw("E001")
	if *stored != *original {
		t.Fatalf("original row must be unchanged, got %+v", stored)
	}
	if repo.createCalls != 1 {
		t.Fatalf("duplicate must be rejected before insert, got %d inserts", repo.createCalls)
	}
}

func TestService_CreateEmployee_PolicyRunsBeforeStorage(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})
	mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	// 重複コードかつポリシー違反の場合はポリシー違反が報告される。
	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Code: "E001", Name: "別人", Role: RoleGeneral, Password: "short1"})
	if !errors.Is(err, password.ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}

	_, err = svc.CreateEmployee(context.Background(), CreateEmployeeInput{Code: "E002", Name: "別人", Role: RoleGeneral, Password: "パスワード"})
	if !errors.Is(err, password.ErrCharset) {
		t.Fatalf("expected ErrCharset, got %v", err)
	}

	if repo.createCalls != 1 {
		t.Fatalf("storage must not be touched on policy failure")
	}
}

func TestService_CreateEmployee_InvalidFields(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEmployeeRepo(), &stubClock{now: time.Now().UTC()})

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Code:     "E0000000001",
		Name:     "",
		Role:     Role("OWNER"),
		Password: "Passw0rd",
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation details, got %v", err)
	}
	if len(verr.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %+v", verr.Violations)
	}
}

func TestService_CreateEmployee_StorageConflictMapsToDuplicate(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})

	// 論理削除済みの社員番号は参照では見えないが主キーとして衝突する。
	repo.rows["E009"] = &Employee{Code: "E009", Name: "退職者", Role: RoleGeneral, Password: "digest:x", DeleteFlg: true}

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Code: "E009", Name: "新人", Role: RoleGeneral, Password: "Passw0rd"})
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}
	if !errors.Is(err, ErrStorageConflict) {
		t.Fatalf("expected storage conflict to remain visible, got %v", err)
	}
	if !repo.raw("E009").DeleteFlg || repo.raw("E009").Name != "退職者" {
		t.Fatalf("soft-deleted row must stay untouched")
	}
}

func TestService_UpdateEmployee_EmptyPasswordKeepsDigest(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	clk := &stubClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, clk)
	created := mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	clk.now = clk.now.Add(time.Hour)

	updated, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		Code:     "E001",
		Name:     "山田花子",
		Role:     RoleAdmin,
		Password: "",
	})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}

	if updated.Password != created.Password {
		t.Fatalf("expected digest to be preserved, got %s", updated.Password)
	}
	if updated.Name != "山田花子" || updated.Role != RoleAdmin {
		t.Fatalf("expected name and role to update, got %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at must not change")
	}
	if !updated.UpdatedAt.Equal(clk.now) {
		t.Fatalf("expected updated_at to use clock")
	}
}

func TestService_UpdateEmployee_RejectedPasswordLeavesRowUnchanged(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})
	created := mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		Code:     "E001",
		Name:     "山田太郎",
		Role:     RoleGeneral,
		Password: "short1",
	})
	if !errors.Is(err, password.ErrLength) {
		t.Fatalf("expected ErrLength, got %v", err)
	}

	if repo.raw("E001").Password != created.Password {
		t.Fatalf("stored digest must be unchanged")
	}
	if repo.updateCalls != 0 {
		t.Fatalf("no write expected on policy failure")
	}
}

func TestService_UpdateEmployee_NewPasswordIsHashed(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})
	mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	updated, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{
		Code:     "E001",
		Name:     "山田太郎",
		Role:     RoleGeneral,
		Password: "NewPass99",
	})
	if err != nil {
		t.Fatalf("UpdateEmployee returned error: %v", err)
	}
	if updated.Password != "digest:NewPass99" {
		t.Fatalf("expected new digest, got %s", updated.Password)
	}
}

func TestService_UpdateEmployee_ProvenanceIsCarriedForward(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	clk := &stubClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, clk)
	created := mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	for i := 0; i < 3; i++ {
		clk.now = clk.now.Add(24 * time.Hour)
		if _, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{Code: "E001", Name: "山田太郎", Role: RoleGeneral}); err != nil {
			t.Fatalf("UpdateEmployee returned error: %v", err)
		}
	}

	stored := repo.raw("E001")
	if !stored.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at changed: %v", stored.CreatedAt)
	}
	if stored.DeleteFlg {
		t.Fatalf("delete flag must be carried forward")
	}
}

func TestService_UpdateEmployee_NotFound(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	repo.rows["E002"] = &Employee{Code: "E002", Name: "退職者", Role: RoleGeneral, DeleteFlg: true}
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})

	for _, code := range []string{"E404", "E002"} {
		_, err := svc.UpdateEmployee(context.Background(), UpdateEmployeeInput{Code: code, Name: "誰か", Role: RoleGeneral})
		if !errors.Is(err, ErrEmployeeNotFound) {
			t.Fatalf("expected ErrEmployeeNotFound for %s, got %v", code, err)
		}
	}
}

func TestService_DeleteEmployee_SoftDeletes(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	clk := &stubClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc := newTestService(repo, clk)
	mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "管理者", Role: RoleAdmin, Password: "Passw0rd"})
	created := mustCreate(t, svc, CreateEmployeeInput{Code: "E002", Name: "山田太郎", Role: RoleGeneral, Password: "Passw0rd"})

	clk.now = clk.now.Add(time.Hour)
	admin := Principal{Code: "E001", Role: RoleAdmin}
	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{Code: "E002", Actor: admin}); err != nil {
		t.Fatalf("DeleteEmployee returned error: %v", err)
	}

	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{Code: "E002"}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected deleted employee to be hidden, got %v", err)
	}

	list, err := svc.ListEmployees(context.Background())
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(list) != 1 || list[0].Code != "E001" {
		t.Fatalf("expected only E001 in list, got %+v", list)
	}

	stored := repo.raw("E002")
	if !stored.DeleteFlg {
		t.Fatalf("expected delete flag to be set")
	}
	if !stored.UpdatedAt.Equal(clk.now) || !stored.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected updated_at to advance")
	}
	if !stored.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at must not change on delete")
	}

	if err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{Code: "E002", Actor: admin}); !errors.Is(err, ErrEmployeeNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}
}

func TestService_DeleteEmployee_SelfDelete(t *testing.T) {
	t.Parallel()

	repo := newFakeEmployeeRepo()
	svc := newTestService(repo, &stubClock{now: time.Now().UTC()})
	mustCreate(t, svc, CreateEmployeeInput{Code: "E001", Name: "管理者", Role: RoleAdmin, Password: "Passw0rd"})

	err := svc.DeleteEmployee(context.Background(), DeleteEmployeeInput{
		Code:  "E001",
		Actor: Principal{Code: "E001", Role: RoleAdmin},
	})
	if !errors.Is(err, ErrSelfDelete) {
		t.Fatalf("expected ErrSelfDelete, got %v", err)
	}
	if repo.raw("E001").DeleteFlg || repo.updateCalls != 0 {
		t.Fatalf("self delete must not mutate the row")
	}
}

func TestService_GetEmployee_InvalidCode(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeEmployeeRepo(), nil)

	if _, err := svc.GetEmployee(context.Background(), GetEmployeeInput{Code: " "}); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestPrincipal(t *testing.T) {
	t.Parallel()

	emp := &Employee{Code: "E001", Name: "管理者", Role: RoleAdmin}
	p := emp.Principal()
	if p.Code != "E001" || !p.IsAdmin() {
		t.Fatalf("unexpected principal: %+v", p)
	}

	var nilEmp *Employee
	if nilEmp.Principal().IsAdmin() {
		t.Fatalf("nil employee must not be admin")
	}

	if RoleAdmin.Label() != "管理者" || RoleGeneral.Label() != "一般" {
		t.Fatalf("unexpected role labels")
	}
}
