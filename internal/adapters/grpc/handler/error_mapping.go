package handler

import (
	"errors"
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/codex-daily-report/internal/core/auth"
	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/core/password"
	"github.com/ogurasousui/codex-daily-report/internal/core/report"
	"github.com/ogurasousui/codex-daily-report/internal/core/validation"
	"github.com/ogurasousui/codex-daily-report/internal/platform/metrics"
)

// RejectionRecorder は業務ルールによる拒否を記録します。
type RejectionRecorder interface {
	RecordRejection(reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordRejection(string) {}

func recorderOrNoop(rec RejectionRecorder) RejectionRecorder {
	if rec == nil {
		return noopRecorder{}
	}
	return rec
}

type fieldViolation struct {
	field       string
	description string
}

func toStatusError(err error, rec RejectionRecorder) error {
	if err == nil {
		return nil
	}
	rec = recorderOrNoop(rec)

	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		rec.RecordRejection(metrics.ReasonValidation)
		violations := make([]fieldViolation, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			violations = append(violations, fieldViolation{field: v.Field, description: describeRule(v)})
		}
		return withViolations(codes.InvalidArgument, "入力内容に誤りがあります", violations...)
	case errors.Is(err, password.ErrCharset):
		rec.RecordRejection(metrics.ReasonPasswordPolicy)
		return withViolations(codes.InvalidArgument, "パスワードは半角英数字のみで入力してください",
			fieldViolation{field: "password", description: "半角英数字のみで入力してください"})
	case errors.Is(err, password.ErrLength):
		rec.RecordRejection(metrics.ReasonPasswordPolicy)
		return withViolations(codes.InvalidArgument, "パスワードは8文字以上16文字以下で入力してください",
			fieldViolation{field: "password", description: fmt.Sprintf("%d文字以上%d文字以下で入力してください", password.MinLength, password.MaxLength)})
	case errors.Is(err, employee.ErrDuplicateCode):
		rec.RecordRejection(metrics.ReasonDuplicateCode)
		return withViolations(codes.AlreadyExists, "既に登録されている社員番号です",
			fieldViolation{field: "code", description: "既に登録されている社員番号です"})
	case errors.Is(err, report.ErrDuplicateDate):
		rec.RecordRejection(metrics.ReasonDuplicateDate)
		return withViolations(codes.AlreadyExists, "既に登録されている日付です",
			fieldViolation{field: "report_date", description: "既に登録されている日付です"})
	case errors.Is(err, employee.ErrSelfDelete):
		rec.RecordRejection(metrics.ReasonSelfDelete)
		return status.Error(codes.FailedPrecondition, "ログイン中の社員は削除できません")
	case errors.Is(err, employee.ErrInvalidCode),
		errors.Is(err, employee.ErrInvalidInput),
		errors.Is(err, report.ErrInvalidID),
		errors.Is(err, report.ErrInvalidInput):
		rec.RecordRejection(metrics.ReasonValidation)
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, employee.ErrEmployeeNotFound), errors.Is(err, report.ErrReportNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, report.ErrOwnerNotFound):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		rec.RecordRejection(metrics.ReasonUnauthenticated)
		return status.Error(codes.Unauthenticated, "社員番号またはパスワードが正しくありません")
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, report.ErrOwnerRequired),
		errors.Is(err, report.ErrPrincipalRequired):
		rec.RecordRejection(metrics.ReasonUnauthenticated)
		return status.Error(codes.Unauthenticated, "authentication required")
	case errors.Is(err, employee.ErrStorageConflict), errors.Is(err, report.ErrStorageConflict):
		return status.Error(codes.Aborted, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func withViolations(code codes.Code, msg string, violations ...fieldViolation) error {
	st := status.New(code, msg)
	if len(violations) == 0 {
		return st.Err()
	}

	br := &errdetails.BadRequest{}
	for _, v := range violations {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       v.field,
			Description: v.description,
		})
	}

	detailed, err := st.WithDetails(br)
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

func describeRule(v validation.Violation) string {
	switch v.Rule {
	case "required":
		return "値を入力してください"
	case "max":
		return v.Param + "文字以下で入力してください"
	case "oneof":
		return "指定できない値です"
	default:
		return "値が正しくありません"
	}
}

func invalidArgument(field, msg string, rec RejectionRecorder) error {
	recorderOrNoop(rec).RecordRejection(metrics.ReasonValidation)
	return withViolations(codes.InvalidArgument, msg, fieldViolation{field: field, description: msg})
}
