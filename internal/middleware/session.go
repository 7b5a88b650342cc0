// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/s4mp41xao/orihub/internal/model"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var identityContextKey = contextKey("identity")

// identityHolderContextKey は外側のミドルウェアが解決結果を受け取るためのキー。
var identityHolderContextKey = contextKey("identity_holder")

// identityHolder は後段で解決された認証済みユーザーを外側のミドルウェアに渡す。
type identityHolder struct {
	identity *model.Identity
}

func contextWithIdentityHolder(ctx context.Context, h *identityHolder) context.Context {
	return context.WithValue(ctx, identityHolderContextKey, h)
}

// IdentityResolver はリクエストから認証済みユーザーを解決するインターフェース。
// session.Resolverが実装する。解決できない場合はnilを返す。
type IdentityResolver interface {
	Resolve(r *http.Request) *model.Identity
}

// NewSessionMiddleware はリクエストごとに認証済みユーザーを解決し、
// コンテキストに注入するミドルウェアを返す。
// 解決できなくてもリクエストは拒否しない。拒否はRoleGateが行う。
func NewSessionMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := resolver.Resolve(r)
			if h, ok := r.Context().Value(identityHolderContextKey).(*identityHolder); ok {
				h.identity = identity
			}
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 未認証の場合はnilを返す。
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// ContextWithIdentity はコンテキストに認証済みユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// UserIDFromContext はリクエストコンテキストから認証済みユーザーのIDを取得する。
func UserIDFromContext(ctx context.Context) (string, error) {
	identity := IdentityFromContext(ctx)
	if identity == nil || identity.ID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return identity.ID, nil
}
