package session

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/s4mp41xao/orihub/internal/model"
)

// DefaultSignedCookieMaxAge は署名済みセッション情報Cookieの有効期間。
const DefaultSignedCookieMaxAge = 5 * time.Minute

// ErrInvalidSessionData は署名済みセッション情報の検証失敗を表す。
var ErrInvalidSessionData = errors.New("invalid session data")

// sessionClaims は署名済みセッション情報のJWTクレーム。
// sidにはセッショントークンのハッシュを入れ、別トークンへの流用を防ぐ。
type sessionClaims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieSigner はセッション情報をHS256で署名・検証する。
// データストアに問い合わせずにIdentityを復元するための短期キャッシュとして使う。
type CookieSigner struct {
	secret []byte
	maxAge time.Duration
	clock  Clock
}

// NewCookieSigner はCookieSignerを生成する。
func NewCookieSigner(secret string, maxAge time.Duration, clock Clock) *CookieSigner {
	return &CookieSigner{
		secret: []byte(secret),
		maxAge: maxAge,
		clock:  clock,
	}
}

// MaxAge は署名Cookieの有効期間を返す。
func (s *CookieSigner) MaxAge() time.Duration {
	return s.maxAge
}

// Sign はトークンに紐付いたIdentityの署名済み表現を返す。
func (s *CookieSigner) Sign(token string, identity *model.Identity) (string, error) {
	now := s.clock.Now()
	claims := sessionClaims{
		Email:     identity.Email,
		Name:      identity.Name,
		Role:      string(identity.Role),
		SessionID: HashToken(token),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.maxAge)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session data: %w", err)
	}
	return signed, nil
}

// Verify は署名済み表現を検証し、トークンに紐付いたIdentityを返す。
// 期限切れの場合はjwt.ErrTokenExpiredを含むエラーを返す。
func (s *CookieSigner) Verify(raw, token string) (*model.Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSessionData, err)
	}

	if subtle.ConstantTimeCompare([]byte(claims.SessionID), []byte(HashToken(token))) != 1 {
		return nil, fmt.Errorf("%w: session mismatch", ErrInvalidSessionData)
	}

	role, ok := model.ParseRole(claims.Role)
	if !ok || claims.Subject == "" {
		return nil, fmt.Errorf("%w: incomplete claims", ErrInvalidSessionData)
	}

	return &model.Identity{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}
