package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/platform/metrics"
)

// EmployeeGrpcHandler は EmployeeService の gRPC 実装です。
type EmployeeGrpcHandler struct {
	svc        employee.UseCase
	rejections RejectionRecorder
}

// NewEmployeeGrpcHandler は EmployeeGrpcHandler を生成します。
func NewEmployeeGrpcHandler(svc employee.UseCase, rec RejectionRecorder) *EmployeeGrpcHandler {
	return &EmployeeGrpcHandler{svc: svc, rejections: recorderOrNoop(rec)}
}

// ListEmployees は社員の一覧を返します。
func (h *EmployeeGrpcHandler) ListEmployees(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.principal(ctx); err != nil {
		return nil, err
	}

	employees, err := h.svc.ListEmployees(ctx)
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{
		"employees": employeeList(employees),
		"count":     len(employees),
	})
}

// GetEmployee は社員を取得します。
func (h *EmployeeGrpcHandler) GetEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.principal(ctx); err != nil {
		return nil, err
	}

	found, err := h.svc.GetEmployee(ctx, employee.GetEmployeeInput{Code: codeField(req)})
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{"employee": employeeMessage(found)})
}

// CreateEmployee は社員を作成します。管理者のみ実行できます。
func (h *EmployeeGrpcHandler) CreateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}

	pw := stringField(req, "password")
	if pw == "" {
		return nil, invalidArgument("password", "password is required", h.rejections)
	}

	created, err := h.svc.CreateEmployee(ctx, employee.CreateEmployeeInput{
		Code:     codeField(req),
		Name:     stringField(req, "name"),
		Role:     employee.Role(stringField(req, "role")),
		Password: pw,
	})
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{"employee": employeeMessage(created)})
}

// UpdateEmployee は社員情報を更新します。password が空の場合は既存のパスワードを維持します。
func (h *EmployeeGrpcHandler) UpdateEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.requireAdmin(ctx); err != nil {
		return nil, err
	}

	updated, err := h.svc.UpdateEmployee(ctx, employee.UpdateEmployeeInput{
		Code:     codeField(req),
		Name:     stringField(req, "name"),
		Role:     employee.Role(stringField(req, "role")),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{"employee": employeeMessage(updated)})
}

// DeleteEmployee は社員を論理削除します。ログイン中の社員自身は削除できません。
func (h *EmployeeGrpcHandler) DeleteEmployee(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := h.requireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if err := h.svc.DeleteEmployee(ctx, employee.DeleteEmployeeInput{
		Code:  codeField(req),
		Actor: actor.Principal(),
	}); err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return &structpb.Struct{}, nil
}

func (h *EmployeeGrpcHandler) principal(ctx context.Context) (*employee.Employee, error) {
	emp, ok := PrincipalFromContext(ctx)
	if !ok {
		h.rejections.RecordRejection(metrics.ReasonUnauthenticated)
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return emp, nil
}

func (h *EmployeeGrpcHandler) requireAdmin(ctx context.Context) (*employee.Employee, error) {
	emp, err := h.principal(ctx)
	if err != nil {
		return nil, err
	}
	if !emp.Principal().IsAdmin() {
		h.rejections.RecordRejection(metrics.ReasonForbidden)
		return nil, status.Error(codes.PermissionDenied, "administrator role is required")
	}
	return emp, nil
}
