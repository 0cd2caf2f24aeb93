package handler

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/ogurasousui/codex-daily-report/internal/core/auth"
	"github.com/ogurasousui/codex-daily-report/internal/core/employee"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// Authenticator はアクセストークンから呼び出し元社員を解決します。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*employee.Employee, error)
}

type principalKey struct{}

type tokenKey struct{}

// ContextWithPrincipal は認証済みの社員とトークンをコンテキストに格納します。
func ContextWithPrincipal(ctx context.Context, emp *employee.Employee, token string) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, emp)
	return context.WithValue(ctx, tokenKey{}, token)
}

// PrincipalFromContext は認証済みの社員を返します。
func PrincipalFromContext(ctx context.Context) (*employee.Employee, bool) {
	emp, ok := ctx.Value(principalKey{}).(*employee.Employee)
	return emp, ok && emp != nil
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// AuthUnaryInterceptor は authorization メタデータの Bearer トークンを検証します。
// ログインとヘルスチェックは検証の対象外です。
func AuthUnaryInterceptor(authn Authenticator, rec RejectionRecorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if info.FullMethod == LoginMethod || strings.HasPrefix(info.FullMethod, healthServicePrefix) {
			return handler(ctx, req)
		}

		token := bearerToken(ctx)
		if token == "" {
			return nil, toStatusError(auth.ErrUnauthenticated, rec)
		}

		emp, err := authn.Authenticate(ctx, token)
		if err != nil {
			return nil, toStatusError(err, rec)
		}

		return handler(ContextWithPrincipal(ctx, emp, token), req)
	}
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, value := range md.Get("authorization") {
		scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}
