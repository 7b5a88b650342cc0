package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/s4mp41xao/orihub/internal/model"
)

// Strategy はIdentityの解決手段の1つ。
// 解決できない場合は(nil, nil)を返し、障害時のみエラーを返す。
type Strategy interface {
	// Name はメトリクスとログで使う識別名を返す。
	Name() string
	// Resolve はリクエストとトークンからIdentityを解決する。
	Resolve(ctx context.Context, r *http.Request, token string) (*model.Identity, error)
}

// SignedCookieStrategy は署名済みセッション情報Cookieを検証してIdentityを解決する。
type SignedCookieStrategy struct {
	signer *CookieSigner
}

// NewSignedCookieStrategy はSignedCookieStrategyを生成する。
func NewSignedCookieStrategy(signer *CookieSigner) *SignedCookieStrategy {
	return &SignedCookieStrategy{signer: signer}
}

// Name は識別名を返す。
func (s *SignedCookieStrategy) Name() string { return "signed_cookie" }

// Resolve はsession_data Cookieを検証する。Cookieが無い、または期限切れの場合は未解決とする。
func (s *SignedCookieStrategy) Resolve(_ context.Context, r *http.Request, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}

	c, err := r.Cookie(DataCookieName)
	if err != nil || c.Value == "" {
		return nil, nil
	}

	identity, err := s.signer.Verify(c.Value, token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

// SessionFinder はトークンでセッションを検索するインターフェース。
type SessionFinder interface {
	// FindByToken はトークンでセッションを取得する。期限切れの場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
}

// UserFinder はIDでユーザーを検索するインターフェース。
type UserFinder interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// StoreStrategy はデータストアのセッションとユーザーを直接参照してIdentityを解決する。
type StoreStrategy struct {
	sessions SessionFinder
	users    UserFinder
	clock    Clock
}

// NewStoreStrategy はStoreStrategyを生成する。
func NewStoreStrategy(sessions SessionFinder, users UserFinder, clock Clock) *StoreStrategy {
	return &StoreStrategy{
		sessions: sessions,
		users:    users,
		clock:    clock,
	}
}

// Name は識別名を返す。
func (s *StoreStrategy) Name() string { return "store" }

// Resolve はトークンに一致する有効なセッションを検索し、所有ユーザーを返す。
func (s *StoreStrategy) Resolve(ctx context.Context, _ *http.Request, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}

	// 1. セッションを検索
	sess, err := s.sessions.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if sess == nil || !sess.ExpiresAt.After(s.clock.Now()) {
		return nil, nil
	}

	// 2. 所有ユーザーを検索
	user, err := s.users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session owner: %w", err)
	}
	if user == nil {
		return nil, nil
	}

	return user.Identity(), nil
}

// compile-time interface check
var (
	_ Strategy = (*SignedCookieStrategy)(nil)
	_ Strategy = (*StoreStrategy)(nil)
)
