// Package auth はパスワード認証、ユーザー登録、セッション発行を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/repository"
	"github.com/s4mp41xao/orihub/internal/security"
	"github.com/s4mp41xao/orihub/internal/session"
)

// maxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
const maxPasswordBytes = 72

// サインアップ結果のラベル
const (
	SignupOutcomeCreated     = "created"
	SignupOutcomeRejected    = "rejected"
	SignupOutcomeCompensated = "compensated"
	SignupOutcomeNoSession   = "no_session"
)

// CacheEvictor はセッションキャッシュからトークンを削除するインターフェース。
type CacheEvictor interface {
	Evict(ctx context.Context, token string)
}

// SignupRecorder はユーザー登録の結果を記録するインターフェース。
type SignupRecorder interface {
	RecordSignup(role string, outcome string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge time.Duration // セッション有効期間
}

// Deps は認証サービスの依存関係。
type Deps struct {
	Users       repository.UserRepository
	Accounts    repository.AccountRepository
	Sessions    repository.SessionRepository
	Influencers repository.InfluencerRepository
	Brands      repository.BrandRepository
	Sanitizer   security.TextSanitizer
	Evictor     CacheEvictor   // nilの場合はキャッシュを削除しない
	Recorder    SignupRecorder // nilの場合は記録しない
	Clock       session.Clock
}

// SignupInput はユーザー登録の入力。
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     string
	Profile  ProfileInput
}

// ProfileInput は登録時に任意で指定できるプロフィール項目。
// ロールに対応しない項目は無視する。
type ProfileInput struct {
	// influencer
	Bio       string
	Instagram string
	TikTok    string
	YouTube   string
	Followers int

	// brand
	Description string
	Website     string
	Industry    string
}

// SessionMeta はセッション発行時に記録するクライアント情報。
type SessionMeta struct {
	IPAddress string
	UserAgent string
}

// SignupResult はユーザー登録の結果。
// セッション発行に失敗した場合、Sessionはnilになる。
type SignupResult struct {
	User    *model.User
	Session *model.Session
}

// SigninResult はサインインの結果。
type SigninResult struct {
	User    *model.User
	Session *model.Session
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	deps   Deps
	config ServiceConfig
}

// NewService はServiceを生成する。
func NewService(deps Deps, config ServiceConfig) *Service {
	if deps.Clock == nil {
		deps.Clock = session.SystemClock{}
	}
	if deps.Sanitizer == nil {
		deps.Sanitizer = security.NewTextSanitizer()
	}
	return &Service{
		deps:   deps,
		config: config,
	}
}

// Signup は公開エンドポイントからのユーザー登録を行う。
// oriロールは登録できない。登録後に内部サインインでセッションを発行する。
//
// 各ステップは再実行しても安全で、プロフィール作成に失敗した場合はユーザーを削除して補償する。
// セッション発行に失敗してもユーザー登録自体は成功として扱う。
func (s *Service) Signup(ctx context.Context, in SignupInput, meta SessionMeta) (*SignupResult, error) {
	role, err := s.validate(in, false)
	if err != nil {
		s.record(roleLabel(in.Role), SignupOutcomeRejected)
		return nil, err
	}

	user, err := s.register(ctx, in, role)
	if err != nil {
		return nil, err
	}

	// 5. 内部サインインでセッションを発行
	result := &SignupResult{User: user}
	signin, err := s.Signin(ctx, in.Email, in.Password, meta)
	if err == nil {
		result.Session = signin.Session
		s.record(string(role), SignupOutcomeCreated)
		return result, nil
	}

	slog.Warn("internal signin after signup failed, falling back to direct session",
		slog.String("user_id", user.ID),
		slog.String("error", err.Error()),
	)

	// 5'. フォールバック: トークンを生成してセッションを直接作成
	sess, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		slog.Error("failed to create session after signup",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		s.record(string(role), SignupOutcomeNoSession)
		return result, nil
	}

	result.Session = sess
	s.record(string(role), SignupOutcomeCreated)
	return result, nil
}

// CreateUser は管理者によるユーザー作成を行う。任意のロールを指定でき、セッションは発行しない。
func (s *Service) CreateUser(ctx context.Context, in SignupInput) (*model.User, error) {
	role, err := s.validate(in, true)
	if err != nil {
		s.record(roleLabel(in.Role), SignupOutcomeRejected)
		return nil, err
	}

	user, err := s.register(ctx, in, role)
	if err != nil {
		return nil, err
	}

	s.record(string(role), SignupOutcomeCreated)
	return user, nil
}

// Signin はメールアドレスとパスワードで認証し、新しいセッションを発行する。
func (s *Service) Signin(ctx context.Context, email, password string, meta SessionMeta) (*SigninResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	account, err := s.deps.Accounts.FindCredentialByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	if account == nil || !CheckPassword(account.PasswordHash, password) {
		return nil, model.NewInvalidCredentialsError()
	}

	sess, err := s.createSession(ctx, user.ID, meta)
	if err != nil {
		return nil, err
	}

	slog.Info("user signed in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return &SigninResult{User: user, Session: sess}, nil
}

// Signout はセッションを破棄し、キャッシュからも削除する。
func (s *Service) Signout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if s.deps.Evictor != nil {
		s.deps.Evictor.Evict(ctx, token)
	}

	if err := s.deps.Sessions.DeleteByToken(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user signed out")
	return nil
}

// EnsureAdmin は指定メールアドレスのoriユーザーが存在することを保証する。
// 既に存在する場合はロールのみ確認し、パスワードは変更しない。作成した場合はtrueを返す。
func (s *Service) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	existing, err := s.deps.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("failed to find user: %w", err)
	}

	if existing != nil {
		if existing.Role != model.RoleORI {
			if _, err := s.deps.Users.UpdateRole(ctx, existing.ID, model.RoleORI); err != nil {
				return false, fmt.Errorf("failed to promote user: %w", err)
			}
			slog.Info("existing user promoted to ori", slog.String("user_id", existing.ID))
		}
		return false, nil
	}

	if name == "" {
		name = "ORI Admin"
	}
	if _, err := s.CreateUser(ctx, SignupInput{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     string(model.RoleORI),
	}); err != nil {
		return false, err
	}
	return true, nil
}

// ResetPassword はユーザーのパスワードを再設定し、既存セッションを全て破棄する。
func (s *Service) ResetPassword(ctx context.Context, email, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	user, err := s.deps.Users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	now := s.deps.Clock.Now()
	if err := s.deps.Accounts.ReplaceCredential(ctx, &model.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		AccountID:    user.Email,
		ProviderID:   model.CredentialProvider,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		return fmt.Errorf("failed to replace credential: %w", err)
	}

	tokens, err := s.deps.Sessions.DeleteByUserID(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if s.deps.Evictor != nil {
		for _, token := range tokens {
			s.deps.Evictor.Evict(ctx, token)
		}
	}

	slog.Info("password reset", slog.String("user_id", user.ID))
	return nil
}

// register はユーザー登録のステップ2から4を実行する。
func (s *Service) register(ctx context.Context, in SignupInput, role model.Role) (*model.User, error) {
	email := normalizeEmail(in.Email)

	// 1. 重複確認
	existing, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if existing != nil {
		s.record(string(role), SignupOutcomeRejected)
		return nil, model.NewEmailTakenError()
	}

	// 2. ユーザーと資格情報を同一トランザクションで作成
	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.deps.Clock.Now()
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      s.deps.Sanitizer.Sanitize(in.Name),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &model.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		AccountID:    email,
		ProviderID:   model.CredentialProvider,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.deps.Users.CreateWithAccount(ctx, user, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.record(string(role), SignupOutcomeRejected)
			return nil, model.NewEmailTakenError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user created",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	// 3. ロールの確定
	if err := s.ensureRole(ctx, user.ID, role); err != nil {
		s.compensate(ctx, user, "ensure_role", err)
		return nil, fmt.Errorf("failed to ensure role: %w", err)
	}

	// 4. プロフィールの作成
	if err := s.ensureProfile(ctx, user, in.Profile); err != nil {
		s.compensate(ctx, user, "ensure_profile", err)
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	return user, nil
}

// ensureRole は保存済みのロールを読み直し、異なる場合は更新する。
func (s *Service) ensureRole(ctx context.Context, userID string, role model.Role) error {
	stored, err := s.deps.Users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("user %s disappeared after creation", userID)
	}
	if stored.Role == role {
		return nil
	}

	slog.Warn("stored role differs from requested role, updating",
		slog.String("user_id", userID),
		slog.String("stored", string(stored.Role)),
		slog.String("requested", string(role)),
	)
	updated, err := s.deps.Users.UpdateRole(ctx, userID, role)
	if err != nil {
		return err
	}
	if !updated {
		return fmt.Errorf("user %s not found while updating role", userID)
	}
	return nil
}

// ensureProfile はロールに対応するプロフィールが無ければ作成する。oriにはプロフィールは無い。
// 自由記述とSNSハンドルはタグを除去し、WebサイトはhttpまたはhttpsのURLのみ保存する。
func (s *Service) ensureProfile(ctx context.Context, user *model.User, in ProfileInput) error {
	now := s.deps.Clock.Now()

	switch user.Role {
	case model.RoleInfluencer:
		existing, err := s.deps.Influencers.FindByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		return s.deps.Influencers.Create(ctx, &model.InfluencerProfile{
			ID:        uuid.New().String(),
			UserID:    user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Bio:       s.deps.Sanitizer.Sanitize(in.Bio),
			Instagram: s.deps.Sanitizer.Sanitize(in.Instagram),
			TikTok:    s.deps.Sanitizer.Sanitize(in.TikTok),
			YouTube:   s.deps.Sanitizer.Sanitize(in.YouTube),
			Followers: in.Followers,
			Active:    true,
			CreatedAt: now,
			UpdatedAt: now,
		})

	case model.RoleBrand:
		existing, err := s.deps.Brands.FindByUserID(ctx, user.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return nil
		}
		return s.deps.Brands.Create(ctx, &model.BrandProfile{
			ID:          uuid.New().String(),
			UserID:      user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Description: s.deps.Sanitizer.Sanitize(in.Description),
			Website:     s.deps.Sanitizer.SanitizeURL(in.Website),
			Industry:    s.deps.Sanitizer.Sanitize(in.Industry),
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	return nil
}

// compensate は途中で失敗した登録のユーザーを削除する。
// 資格情報、セッション、プロフィールはCASCADE削除される。
func (s *Service) compensate(ctx context.Context, user *model.User, step string, cause error) {
	s.record(string(user.Role), SignupOutcomeCompensated)

	if err := s.deps.Users.DeleteByID(ctx, user.ID); err != nil {
		slog.Error("signup compensation failed, orphaned user remains",
			slog.String("user_id", user.ID),
			slog.String("step", step),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}

	slog.Warn("signup compensated by deleting user",
		slog.String("user_id", user.ID),
		slog.String("step", step),
		slog.String("cause", cause.Error()),
	)
}

// createSession はトークンを生成してセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string, meta SessionMeta) (*model.Session, error) {
	token, err := session.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.deps.Clock.Now()
	sess := &model.Session{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.config.SessionMaxAge),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		CreatedAt: now,
	}

	if err := s.deps.Sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

// validate は登録入力を検証し、ロールを返す。
// allowORIがfalseの場合、oriロールの指定を拒否する。
func (s *Service) validate(in SignupInput, allowORI bool) (model.Role, error) {
	if s.deps.Sanitizer.Sanitize(in.Name) == "" {
		return "", model.NewValidationError("名前は必須です")
	}
	if err := validateEmail(in.Email); err != nil {
		return "", err
	}
	if err := validatePassword(in.Password); err != nil {
		return "", err
	}

	role, ok := model.ParseRole(in.Role)
	if !ok {
		return "", model.NewInvalidRoleError(in.Role)
	}
	if role == model.RoleORI && !allowORI {
		return "", model.NewORISignupForbiddenError()
	}

	if in.Profile.Followers < 0 {
		return "", model.NewValidationError("フォロワー数は0以上で入力してください")
	}
	if w := strings.TrimSpace(in.Profile.Website); w != "" && s.deps.Sanitizer.SanitizeURL(w) == "" {
		return "", model.NewValidationError("WebサイトにはhttpまたはhttpsのURLを入力してください")
	}
	return role, nil
}

func (s *Service) record(role, outcome string) {
	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordSignup(role, outcome)
	}
}

// roleLabel はメトリクスのラベルに使うロール名を返す。未知の値は"unknown"にまとめる。
func roleLabel(raw string) string {
	if role, ok := model.ParseRole(raw); ok {
		return string(role)
	}
	return "unknown"
}

// validateEmail はメールアドレスの形式を検証する。表示名付きの形式は受け付けない。
func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return model.NewValidationError("メールアドレスは必須です")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(addr.Address, "@") {
		return model.NewValidationError("メールアドレスの形式が正しくありません")
	}
	return nil
}

// validatePassword はパスワードの長さを検証する。
func validatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return model.NewValidationError(fmt.Sprintf("パスワードは%d文字以上で入力してください", MinPasswordLength))
	}
	if len(password) > maxPasswordBytes {
		return model.NewValidationError("パスワードが長すぎます")
	}
	return nil
}

// normalizeEmail はメールアドレスを比較用に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
