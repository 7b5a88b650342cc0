package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/s4mp41xao/orihub/internal/auth"
	"github.com/s4mp41xao/orihub/internal/campaign"
	"github.com/s4mp41xao/orihub/internal/config"
	"github.com/s4mp41xao/orihub/internal/database"
	"github.com/s4mp41xao/orihub/internal/handler"
	"github.com/s4mp41xao/orihub/internal/logger"
	"github.com/s4mp41xao/orihub/internal/metrics"
	"github.com/s4mp41xao/orihub/internal/middleware"
	"github.com/s4mp41xao/orihub/internal/profile"
	"github.com/s4mp41xao/orihub/internal/repository"
	"github.com/s4mp41xao/orihub/internal/security"
	"github.com/s4mp41xao/orihub/internal/session"
	"github.com/s4mp41xao/orihub/internal/user"
	"github.com/s4mp41xao/orihub/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// .envファイルと環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. .envファイルがあれば環境変数に取り込む
	if err := config.LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定されたログレベルでロガーを再構成する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandCreateAdmin:
		return runCreateAdmin(cfg, rest)
	case CommandResetPassword:
		return runResetPassword(cfg, rest)
	default:
		return runServe(cfg)
	}
}

// repositories はPostgreSQL実装のリポジトリ一式。
type repositories struct {
	users       *repository.PostgresUserRepo
	accounts    *repository.PostgresAccountRepo
	sessions    *repository.PostgresSessionRepo
	influencers *repository.PostgresInfluencerRepo
	brands      *repository.PostgresBrandRepo
	campaigns   *repository.PostgresCampaignRepo
}

func newRepositories(db *sql.DB) *repositories {
	return &repositories{
		users:       repository.NewPostgresUserRepo(db),
		accounts:    repository.NewPostgresAccountRepo(db),
		sessions:    repository.NewPostgresSessionRepo(db),
		influencers: repository.NewPostgresInfluencerRepo(db),
		brands:      repository.NewPostgresBrandRepo(db),
		campaigns:   repository.NewPostgresCampaignRepo(db),
	}
}

// newAuthService は認証サービスを組み立てる。
// evictorとrecorderはnilでもよい（管理コマンドではキャッシュもメトリクスも持たない）。
func newAuthService(cfg *config.Config, repos *repositories, sanitizer security.TextSanitizer, evictor auth.CacheEvictor, recorder auth.SignupRecorder) *auth.Service {
	deps := auth.Deps{
		Users:       repos.users,
		Accounts:    repos.accounts,
		Sessions:    repos.sessions,
		Influencers: repos.influencers,
		Brands:      repos.brands,
		Sanitizer:   sanitizer,
		Evictor:     evictor,
		Recorder:    recorder,
		Clock:       session.SystemClock{},
	}
	return auth.NewService(deps, auth.ServiceConfig{SessionMaxAge: cfg.SessionMaxAgeDuration()})
}

// newSessionCache は設定に応じたセッションキャッシュを生成する。
// redisドライバーの場合、返されるcloseでクライアントを閉じる。
func newSessionCache(ctx context.Context, cfg *config.Config) (session.Cache, func(), error) {
	switch cfg.SessionCacheDriver {
	case config.CacheDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		slog.Info("session cache backed by redis", slog.String("addr", cfg.RedisAddr))
		cache := session.NewRedisCache(client, cfg.SessionCacheTTL, session.SystemClock{}, slog.Default())
		return cache, func() { client.Close() }, nil
	default:
		slog.Info("session cache backed by memory")
		return session.NewMemoryCache(cfg.SessionCacheTTL, session.SystemClock{}), func() {}, nil
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. DB接続
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	repos := newRepositories(db)

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 4. セッション解決チェーンの初期化
	cache, closeCache, err := newSessionCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	signer := session.NewCookieSigner(cfg.SessionSecret, cfg.SessionCacheTTL, session.SystemClock{})
	resolver := session.NewResolver(cache, slog.Default(), collector,
		session.NewSignedCookieStrategy(signer),
		session.NewStoreStrategy(repos.sessions, repos.users, session.SystemClock{}),
	)

	// 5. ドメインサービスの初期化
	sanitizer := security.NewTextSanitizer()
	authService := newAuthService(cfg, repos, sanitizer, resolver, collector)
	campaignService := campaign.NewService(campaign.Deps{
		Campaigns:   repos.campaigns,
		Users:       repos.users,
		Brands:      repos.brands,
		Influencers: repos.influencers,
		Sanitizer:   sanitizer,
	})
	profileService := profile.NewService(repos.campaigns, repos.brands, repos.influencers)
	userService := user.NewService(repos.users, repos.sessions, resolver)

	// 6. 初期管理者の作成（設定されている場合のみ）
	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
		if err != nil {
			return fmt.Errorf("failed to ensure admin user: %w", err)
		}
		if created {
			slog.Info("initial admin user created", slog.String("email", cfg.AdminEmail))
		}
	}

	// 7. ルーターの構築
	var csrf *middleware.CSRFConfig
	if cfg.CSRFEnabled {
		csrf = &middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		}
	}

	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitAuth),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:            slog.Default(),
		Resolver:          resolver,
		CORSAllowedOrigin: cfg.FrontendURL,
		RateLimiter:       rateLimiter,
		CSRF:              csrf,
		Metrics:           collector,

		HealthChecker:  db,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		Signer:      signer,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		UserCreator:     authService,
		UserService:     userService,
		CampaignService: campaignService,
		ProfileService:  profileService,
	})

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションの定期削除ジョブを実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続（ワーカーは並列度が低いため小さなプールで十分）
	db, err := database.Connect(context.Background(), cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	// 2. クリーンアップジョブの初期化
	collector := metrics.NewCollector(prometheus.NewRegistry())
	job := cleanup.NewCleanupJob(repository.NewPostgresSessionRepo(db), slog.Default(), collector, session.SystemClock{})

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	go func() {
		select {
		case <-stop:
			slog.Info("shutting down worker...")
			cancel()
		case <-ctx.Done():
		}
	}()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cfg.SessionCleanupInterval),
	)

	// クリーンアップジョブをメインgoroutineで実行（ブロッキング）
	job.Start(ctx, cfg.SessionCleanupInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runCreateAdmin はoriロールの管理者ユーザーを作成する。
// 引数は email password [name]。省略時はADMIN_EMAIL, ADMIN_PASSWORD, ADMIN_NAMEを使用する。
func runCreateAdmin(cfg *config.Config, args []string) error {
	email, password, name := cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName
	if len(args) >= 2 {
		email, password = args[0], args[1]
	}
	if len(args) >= 3 {
		name = args[2]
	}
	if email == "" || password == "" {
		return errors.New("usage: create-admin <email> <password> [name] (or set ADMIN_EMAIL and ADMIN_PASSWORD)")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	authService := newAuthService(cfg, newRepositories(db), security.NewTextSanitizer(), nil, nil)
	created, err := authService.EnsureAdmin(ctx, email, password, name)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if created {
		slog.Info("admin user created", slog.String("email", email))
	} else {
		slog.Info("admin user already exists", slog.String("email", email))
	}
	return nil
}

// runResetPassword は既存ユーザーのパスワードを再設定する。
// 引数は email password。再設定後はそのユーザーの全セッションが無効になる。
func runResetPassword(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: reset-password <email> <password>")
	}
	email, password := args[0], args[1]

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	authService := newAuthService(cfg, newRepositories(db), security.NewTextSanitizer(), nil, nil)
	if err := authService.ResetPassword(ctx, email, password); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	slog.Info("password reset completed", slog.String("email", email))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
