package handler

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
	"github.com/ogurasousui/codex-daily-report/internal/core/report"
)

const dateLayout = "2006-01-02"

func stringField(req *structpb.Struct, name string) string {
	return req.GetFields()[name].GetStringValue()
}

// codeField は前後の空白を除いた社員番号を取り出します。
func codeField(req *structpb.Struct) string {
	return strings.TrimSpace(stringField(req, "code"))
}

// int64Field は数値または数字文字列のフィールドを整数として取り出します。未指定の場合は 0 を返します。
func int64Field(req *structpb.Struct, name string) (int64, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := kind.NumberValue
		// float64(math.MaxInt64) は 2^63 に丸められるため、その値自体も範囲外とする。
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		if strings.TrimSpace(kind.StringValue) == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(kind.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be an integer", name)
		}
		return n, nil
	case *structpb.Value_NullValue:
		return 0, nil
	default:
		return 0, fmt.Errorf("%s must be an integer", name)
	}
}

// dateField は YYYY-MM-DD 形式の日付を取り出します。未指定の場合はゼロ値を返します。
func dateField(req *structpb.Struct, name string) (time.Time, error) {
	raw := strings.TrimSpace(stringField(req, name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return t, nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// employeeMessage はパスワードを含まない社員の応答表現を返します。
func employeeMessage(e *employee.Employee) map[string]any {
	if e == nil {
		return nil
	}
	return map[string]any{
		"code":       e.Code,
		"name":       e.Name,
		"role":       string(e.Role),
		"role_label": e.Role.Label(),
		"created_at": formatTimestamp(e.CreatedAt),
		"updated_at": formatTimestamp(e.UpdatedAt),
	}
}

func reportMessage(r *report.Report) map[string]any {
	if r == nil {
		return nil
	}
	msg := map[string]any{
		"id":          r.ID,
		"report_date": r.ReportDate.Format(dateLayout),
		"title":       r.Title,
		"content":     r.Content,
		"created_at":  formatTimestamp(r.CreatedAt),
		"updated_at":  formatTimestamp(r.UpdatedAt),
	}
	if r.Employee != nil {
		msg["employee"] = employeeMessage(r.Employee)
	}
	return msg
}

func employeeList(employees []*employee.Employee) []any {
	out := make([]any, 0, len(employees))
	for _, e := range employees {
		out = append(out, employeeMessage(e))
	}
	return out
}

func reportList(reports []*report.Report) []any {
	out := make([]any, 0, len(reports))
	for _, r := range reports {
		out = append(out, reportMessage(r))
	}
	return out
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("handler: encode response: %w", err)
	}
	return resp, nil
}
