package handler

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/codex-daily-report/internal/core/auth"
)

// AuthUseCase はログインとログアウトのユースケースです。
type AuthUseCase interface {
	Login(ctx context.Context, code, password string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
}

// AuthGrpcHandler は AuthService の gRPC 実装です。
type AuthGrpcHandler struct {
	svc        AuthUseCase
	rejections RejectionRecorder
}

// NewAuthGrpcHandler は AuthGrpcHandler を生成します。
func NewAuthGrpcHandler(svc AuthUseCase, rec RejectionRecorder) *AuthGrpcHandler {
	return &AuthGrpcHandler{svc: svc, rejections: recorderOrNoop(rec)}
}

// Login は社員番号とパスワードでログインし、アクセストークンを返します。
func (h *AuthGrpcHandler) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	session, err := h.svc.Login(ctx, codeField(req), stringField(req, "password"))
	if err != nil {
		return nil, toStatusError(err, h.rejections)
	}

	return newResponse(map[string]any{
		"token":      session.Token,
		"expires_at": formatTimestamp(session.ExpiresAt),
		"employee":   employeeMessage(session.Employee),
	})
}

// Logout は呼び出しに使用したアクセストークンを失効させます。
func (h *AuthGrpcHandler) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := h.svc.Logout(ctx, tokenFromContext(ctx)); err != nil {
		return nil, toStatusError(err, h.rejections)
	}
	return &structpb.Struct{}, nil
}
