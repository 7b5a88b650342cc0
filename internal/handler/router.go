package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/s4mp41xao/orihub/internal/middleware"
	"github.com/s4mp41xao/orihub/internal/model"
)

// MetricsRecorder はルーターが記録するメトリクスのインターフェース。
type MetricsRecorder interface {
	middleware.StatusRecorder
	middleware.DenialRecorder
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Resolver          middleware.IdentityResolver
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRF              *middleware.CSRFConfig // nilの場合はCSRF検証を行わない
	Metrics           MetricsRecorder        // nilの場合は記録しない

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler // nilの場合は/metricsを公開しない

	// 認証
	AuthService AuthServiceInterface
	Signer      SessionDataSigner
	AuthConfig  AuthHandlerConfig

	// 管理・閲覧
	UserCreator     UserCreator
	UserService     UserServiceInterface
	CampaignService CampaignServiceInterface
	ProfileService  ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RealIP → Logging → Metrics → Recovery → SecurityHeaders → CORS
//	  → Session → CSRF → RateLimit(Auth | General) → RoleGate
//
// セッション解決はリクエストを拒否しない。アクセス制御はルートごとのRoleGateが行う。
// /auth/signup と /auth/signin はCookie認証を伴わないためCSRF検証の対象外とする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var denials middleware.DenialRecorder
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
		denials = deps.Metrics
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware(deps.AuthConfig.CookieSecure))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	gate := middleware.NewRoleGate(denials)

	authHandler := NewAuthHandler(deps.AuthService, deps.Signer, deps.AuthConfig)
	adminHandler := NewAdminHandler(deps.UserCreator, deps.UserService, deps.CampaignService, deps.ProfileService)
	brandHandler := NewBrandHandler(deps.CampaignService, deps.ProfileService)
	influencerHandler := NewInfluencerHandler(deps.CampaignService, deps.ProfileService)

	// --- 運用エンドポイント ---
	if deps.HealthChecker != nil {
		r.Get("/health", NewHealthHandler(deps.HealthChecker))
	}
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.Resolver))

		// 認証情報の発行（CSRF検証の対象外）
		r.Group(func(r chi.Router) {
			r.Use(deps.RateLimiter.AuthMiddleware())
			r.Post("/auth/signup", authHandler.Signup)
			r.Post("/auth/signin", authHandler.Signin)
		})

		r.Group(func(r chi.Router) {
			if deps.CSRF != nil {
				r.Use(middleware.NewCSRFMiddleware(*deps.CSRF))
			}
			r.Use(deps.RateLimiter.GeneralMiddleware())

			if deps.CSRF != nil {
				r.Method(http.MethodGet, "/auth/csrf-token", middleware.NewCSRFTokenHandler(*deps.CSRF))
			}
			r.Post("/auth/signout", authHandler.Signout)
			r.Get("/auth/me", authHandler.Me)

			// 管理者
			r.Route("/admin", func(r chi.Router) {
				r.Use(gate.Require(model.RoleORI))

				r.Post("/users", adminHandler.CreateUser)
				r.Get("/users", adminHandler.ListUsers)
				r.Patch("/users/{id}/role", adminHandler.UpdateUserRole)
				r.Delete("/users/{id}", adminHandler.DeleteUser)

				r.Get("/dashboard", adminHandler.Dashboard)
				r.Get("/influencers", adminHandler.ListInfluencers)
				r.Get("/brands", adminHandler.ListBrands)

				r.Get("/campaigns", adminHandler.ListCampaigns)
				r.Post("/campaigns", adminHandler.CreateCampaign)
				r.Get("/campaigns/{id}", adminHandler.GetCampaign)
				r.Post("/campaigns/{campaignId}/assign/{influencerId}", adminHandler.AssignInfluencer)
				r.Delete("/campaigns/{campaignId}/assign/{influencerId}", adminHandler.UnassignInfluencer)
			})

			// ブランド
			r.Route("/brand", func(r chi.Router) {
				r.With(gate.Require(model.RoleORI)).Get("/profile/{id}", brandHandler.Profile)
				r.With(gate.Require(model.RoleBrand)).Get("/dashboard", brandHandler.Dashboard)
				r.With(gate.Require()).Get("/influencers", brandHandler.Influencers)
				r.With(gate.Require(model.RoleBrand, model.RoleORI)).Get("/campaigns", brandHandler.Campaigns)
				r.With(gate.Require(model.RoleBrand, model.RoleORI)).Get("/campaigns/{id}", brandHandler.CampaignDetail)
			})

			// インフルエンサー
			r.Route("/influencer", func(r chi.Router) {
				r.With(gate.Require(model.RoleORI, model.RoleBrand, model.RoleInfluencer)).Get("/profile/{id}", influencerHandler.Profile)
				r.With(gate.Require(model.RoleInfluencer)).Get("/dashboard", influencerHandler.Dashboard)
				r.With(gate.Require()).Get("/campaigns", influencerHandler.Campaigns)
			})
		})
	})

	return r
}
