package handler

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/core/report"
	"github.com/ogurasousui/codex-daily-report/internal/platform/metrics"
)

// ReportVisibility は呼び出し元が閲覧できる日報を返します。
type ReportVisibility interface {
	VisibleReports(ctx context.Context, principal employee.Principal) ([]*report.Report, error)
}

// ReportGrpcHandler は ReportService の gRPC 実装です。
type ReportGrpcHandler struct {
	svc        report.UseCase
	visibility ReportVisibility
	rejections RejectionRecorder
}

// NewReportGrpcHandler は ReportGrpcHandler を生成します。
func NewReportGrpcHandler(svc report.UseCase, visibility ReportVisibility, rec RejectionRecorder) *ReportGrpcHandler {
	return &ReportGrpcHandler{svc: svc, visibility: visibility, rejections: recorderOrNoop(rec)}
}

// ListReports は管理者には全社員の日報を、一般社員には自分の日報を返します。
func (h *ReportGrpcHandler) ListReports(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	emp, err := h.principal(ctx)
	if err != nil {
		return nil, err
	}

	reports, err := h.visibility.VisibleReports(ctx, emp.Principal())
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{
		"reports": reportList(reports),
		"count":   len(reports),
	})
}

// GetReport は日報を取得します。
func (h *ReportGrpcHandler) GetReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.principal(ctx); err != nil {
		return nil, err
	}

	id, err := int64Field(req, "id")
	if err != nil {
		return nil, invalidArgument("id", err.Error(), h.rejections)
	}

	found, err := h.svc.GetReport(ctx, report.GetReportInput{ID: id})
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{"report": reportMessage(found)})
}

// CreateReport はログイン中の社員を作成者として日報を作成します。
func (h *ReportGrpcHandler) CreateReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	owner, err := h.principal(ctx)
	if err != nil {
		return nil, err
	}

	reportDate, err := dateField(req, "report_date")
	if err != nil {
		return nil, invalidArgument("report_date", err.Error(), h.rejections)
	}

	created, err := h.svc.CreateReport(ctx, report.CreateReportInput{
		ReportDate: reportDate,
		Title:      stringField(req, "title"),
		Content:    stringField(req, "content"),
	}, owner)
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{"report": reportMessage(created)})
}

// UpdateReport は日報を更新します。作成者は変更できません。
func (h *ReportGrpcHandler) UpdateReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.principal(ctx); err != nil {
		return nil, err
	}

	id, err := int64Field(req, "id")
	if err != nil {
		return nil, invalidArgument("id", err.Error(), h.rejections)
	}

	reportDate, err := dateField(req, "report_date")
	if err != nil {
		return nil, invalidArgument("report_date", err.Error(), h.rejections)
	}

	updated, err := h.svc.UpdateReport(ctx, report.UpdateReportInput{
		ID:         id,
		ReportDate: reportDate,
		Title:      stringField(req, "title"),
		Content:    stringField(req, "content"),
	})
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{"report": reportMessage(updated)})
}

// DeleteReport は日報を論理削除します。
func (h *ReportGrpcHandler) DeleteReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := h.principal(ctx); err != nil {
		return nil, err
	}

	id, err := int64Field(req, "id")
	if err != nil {
		return nil, invalidArgument("id", err.Error(), h.rejections)
	}

	if err := h.svc.DeleteReport(ctx, report.DeleteReportInput{ID: id}); err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return &structpb.Struct{}, nil
}

func (h *ReportGrpcHandler) principal(ctx context.Context) (*employee.Employee, error) {
	emp, ok := PrincipalFromContext(ctx)
	if !ok {
		h.rejections.RecordRejection(metrics.ReasonUnauthenticated)
		return nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return emp, nil
}
