package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/s4mp41xao/orihub/internal/model"
)

// ゲート拒否理由のラベル
const (
	DenialUnauthenticated = "unauthenticated"
	DenialForbiddenRole   = "forbidden_role"
)

// Admit は認証済みユーザーが宣言されたロールのいずれかを持つかどうかを判定する。
// ロールが宣言されていない場合は常に許可する。ロールの比較は大文字小文字を区別しない。
func Admit(identity *model.Identity, declared []model.Role) bool {
	if len(declared) == 0 {
		return true
	}
	if identity == nil || identity.Role == "" {
		return false
	}
	for _, role := range declared {
		if strings.EqualFold(string(identity.Role), string(role)) {
			return true
		}
	}
	return false
}

// DenialRecorder はゲート拒否を記録するインターフェース。
type DenialRecorder interface {
	RecordGateDenial(reason string)
}

// RoleGate はルートごとに宣言されたロールでアクセスを制御する。
type RoleGate struct {
	recorder DenialRecorder
}

// NewRoleGate はRoleGateを生成する。recorderはnilでもよい。
func NewRoleGate(recorder DenialRecorder) *RoleGate {
	return &RoleGate{recorder: recorder}
}

// Require は宣言されたロールのいずれかを要求するミドルウェアを返す。
// 未認証の場合は401、ロール不一致の場合は403を返す。
// ロールを宣言しない場合はゲートを通過させ、認証の要否はハンドラーに委ねる。
func (g *RoleGate) Require(roles ...model.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())

			if Admit(identity, roles) {
				next.ServeHTTP(w, r)
				return
			}

			if identity == nil {
				g.record(DenialUnauthenticated)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			slog.Warn("role gate denied request",
				slog.String("user_id", identity.ID),
				slog.String("role", string(identity.Role)),
				slog.String("path", r.URL.Path),
			)
			g.record(DenialForbiddenRole)
			WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenRoleError())
		})
	}
}

func (g *RoleGate) record(reason string) {
	if g.recorder != nil {
		g.recorder.RecordGateDenial(reason)
	}
}
