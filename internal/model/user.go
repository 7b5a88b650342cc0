// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Role はユーザーのロールを表す。
type Role string

const (
	// RoleInfluencer はインフルエンサーを示す。
	RoleInfluencer Role = "influencer"
	// RoleBrand はブランド（広告主）を示す。
	RoleBrand Role = "brand"
	// RoleORI はプラットフォーム管理者を示す。
	RoleORI Role = "ori"
)

// ParseRole は文字列をRoleに変換する。大文字小文字は区別しない。
// 未知のロールの場合はfalseを返す。
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleInfluencer:
		return RoleInfluencer, true
	case RoleBrand:
		return RoleBrand, true
	case RoleORI:
		return RoleORI, true
	default:
		return "", false
	}
}

// User はサービス利用ユーザーを表す。
// ロールは作成時に決定し、本人は変更できない（管理者のみ変更可能）。
type User struct {
	ID            string
	Email         string
	Name          string
	Role          Role
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Identity はリクエスト単位で解決された認証済みユーザーを表す。
// セッションキャッシュに格納されるため、永続化層の型とは分離している。
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Identity はUserから認証済みユーザー情報を生成する。
func (u *User) Identity() *Identity {
	return &Identity{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// Account はパスワード認証用の資格情報を表す。
// AccountIDにはメールアドレスを格納する。
type Account struct {
	ID           string
	UserID       string
	AccountID    string
	ProviderID   string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CredentialProvider はパスワード認証のprovider_id。
const CredentialProvider = "credential"

// Session はユーザーのログインセッションを表す。
// Tokenを保持していることがそのまま認証の根拠となる。
type Session struct {
	ID        string
	Token     string
	UserID    string
	ExpiresAt time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}
