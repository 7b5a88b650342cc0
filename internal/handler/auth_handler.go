package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/s4mp41xao/orihub/internal/auth"
	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/session"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, in auth.SignupInput, meta auth.SessionMeta) (*auth.SignupResult, error)
	Signin(ctx context.Context, email, password string, meta auth.SessionMeta) (*auth.SigninResult, error)
	Signout(ctx context.Context, token string) error
}

// SessionDataSigner は署名済みセッション情報Cookieの値を生成するインターフェース。
type SessionDataSigner interface {
	Sign(token string, identity *model.Identity) (string, error)
	MaxAge() time.Duration
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はメールアドレスとパスワードによる認証のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	signer  SessionDataSigner // nilの場合はsession_data Cookieを発行しない
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, signer SessionDataSigner, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		signer:  signer,
		config:  config,
	}
}

// signupRequest はユーザー登録のリクエストボディ。
// プロフィール項目は任意で、ロールに対応するものだけが保存される。
type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`

	Bio       string `json:"bio"`
	Instagram string `json:"instagram"`
	TikTok    string `json:"tiktok"`
	YouTube   string `json:"youtube"`
	Followers int    `json:"followers"`

	Description string `json:"description"`
	Website     string `json:"website"`
	Industry    string `json:"industry"`
}

func (req signupRequest) toInput() auth.SignupInput {
	return auth.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     req.Role,
		Profile: auth.ProfileInput{
			Bio:         req.Bio,
			Instagram:   req.Instagram,
			TikTok:      req.TikTok,
			YouTube:     req.YouTube,
			Followers:   req.Followers,
			Description: req.Description,
			Website:     req.Website,
			Industry:    req.Industry,
		},
	}
}

// signinRequest はサインインのリクエストボディ。
type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse はユーザー登録とサインインのレスポンス。
// セッションを発行できなかった場合、Tokenはnullになる。
type authResponse struct {
	User  userResponse `json:"user"`
	Token *string      `json:"token"`
}

// Signup はユーザーを登録し、セッションを発行する。
// POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Signup(r.Context(), req.toInput(), sessionMeta(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := authResponse{User: toUserResponse(result.User)}
	if result.Session != nil {
		h.setSessionCookies(w, result.Session.Token, result.User.Identity())
		resp.Token = &result.Session.Token
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Signin はメールアドレスとパスワードで認証し、セッションを発行する。
// POST /auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.service.Signin(r.Context(), req.Email, req.Password, sessionMeta(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setSessionCookies(w, result.Session.Token, result.User.Identity())
	writeJSON(w, http.StatusOK, authResponse{
		User:  toUserResponse(result.User),
		Token: &result.Session.Token,
	})
}

// Signout はセッションを破棄する。
// POST /auth/signout
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	if token := session.ExtractToken(r); token != "" {
		if err := h.service.Signout(r.Context(), token); err != nil {
			slog.Error("failed to sign out", slog.String("error", err.Error()))
			// 失敗してもCookieはクリアする
		}
	}

	h.clearSessionCookies(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me は現在のログインユーザー情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

// setSessionCookies はセッショントークンと署名済みセッション情報のCookieを設定する。
func (h *AuthHandler) setSessionCookies(w http.ResponseWriter, token string, identity *model.Identity) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	if h.signer == nil {
		return
	}
	data, err := h.signer.Sign(token, identity)
	if err != nil {
		// session_dataは省略可能なキャッシュのため、失敗してもトークンだけで認証できる
		slog.Warn("failed to sign session data", slog.String("error", err.Error()))
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     session.DataCookieName,
		Value:    data,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(h.signer.MaxAge().Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies はセッション関連のCookieを削除する。
func (h *AuthHandler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{session.TokenCookieName, session.DataCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   h.config.CookieDomain,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.config.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// sessionMeta はセッションに記録するクライアント情報をリクエストから取り出す。
// RemoteAddrはRealIPミドルウェアで書き換え済みのものを使う。
func sessionMeta(r *http.Request) auth.SessionMeta {
	return auth.SessionMeta{
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
}
