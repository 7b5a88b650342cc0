// Package repository はデータ永続化のインターフェースを定義する。
//
// 検索系メソッドは対象が存在しない場合にエラーではなくnil（一覧の場合は空スライス）を返す。
// 存在しないことをユーザー向けの「見つからない」とするかどうかは呼び出し側が判断する。
package repository

import (
	"context"
	"time"

	"github.com/s4mp41xao/orihub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindAll は全ユーザーを作成日時順で返す。
	FindAll(ctx context.Context) ([]model.User, error)

	// CreateWithAccount はユーザーとパスワード資格情報を同一トランザクションで作成する。
	CreateWithAccount(ctx context.Context, user *model.User, account *model.Account) error

	// UpdateRole はユーザーのロールを更新する。対象が存在しない場合はfalseを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (bool, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するaccounts、sessions、プロフィールはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// AccountRepository はパスワード資格情報の永続化インターフェース。
type AccountRepository interface {
	// FindCredentialByUserID はユーザーのパスワード資格情報を取得する。見つからない場合はnilを返す。
	FindCredentialByUserID(ctx context.Context, userID string) (*model.Account, error)

	// ReplaceCredential は既存の資格情報を削除し、新しい資格情報を挿入する。
	ReplaceCredential(ctx context.Context, account *model.Account) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByToken はトークンでセッションを取得する。期限切れの場合はnilを返す。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
	// DeleteByToken は指定トークンのセッションを削除する。
	DeleteByToken(ctx context.Context, token string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除し、削除したトークンを返す。
	DeleteByUserID(ctx context.Context, userID string) ([]string, error)
	// DeleteExpired は指定時刻以前に期限切れとなったセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}

// InfluencerRepository はインフルエンサープロフィールの永続化インターフェース。
type InfluencerRepository interface {
	// FindByID はプロフィールIDで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.InfluencerProfile, error)
	// FindByUserID は所有ユーザーIDで取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.InfluencerProfile, error)
	// FindByUserIDs は所有ユーザーIDの集合に一致するプロフィールを返す。
	FindByUserIDs(ctx context.Context, userIDs []string) ([]model.InfluencerProfile, error)
	// FindAll は全プロフィールを返す。
	FindAll(ctx context.Context) ([]model.InfluencerProfile, error)
	// Count はプロフィール数を返す。
	Count(ctx context.Context) (int, error)
	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.InfluencerProfile) error
	// Update はプロフィール全体を更新する。
	Update(ctx context.Context, profile *model.InfluencerProfile) error
	// DeleteByUserID は所有ユーザーIDでプロフィールを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// BrandRepository はブランドプロフィールの永続化インターフェース。
type BrandRepository interface {
	// FindByID はプロフィールIDで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BrandProfile, error)
	// FindByUserID は所有ユーザーIDで取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.BrandProfile, error)
	// FindByUserIDs は所有ユーザーIDの集合に一致するプロフィールを返す。
	FindByUserIDs(ctx context.Context, userIDs []string) ([]model.BrandProfile, error)
	// FindAll は全プロフィールを返す。
	FindAll(ctx context.Context) ([]model.BrandProfile, error)
	// Count はプロフィール数を返す。
	Count(ctx context.Context) (int, error)
	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.BrandProfile) error
	// Update はプロフィール全体を更新する。
	Update(ctx context.Context, profile *model.BrandProfile) error
	// DeleteByUserID は所有ユーザーIDでプロフィールを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// CampaignRepository はキャンペーンの永続化インターフェース。
type CampaignRepository interface {
	// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Campaign, error)
	// FindAll は全キャンペーンを返す。
	FindAll(ctx context.Context) ([]model.Campaign, error)
	// FindActive はステータスがactiveのキャンペーンを返す。
	FindActive(ctx context.Context) ([]model.Campaign, error)
	// FindByBrandID は指定ブランドユーザーが所有するキャンペーンを返す。
	FindByBrandID(ctx context.Context, brandID string) ([]model.Campaign, error)
	// FindByInfluencer は指定インフルエンサーユーザーがアサインされたキャンペーンを返す。
	FindByInfluencer(ctx context.Context, influencerID string) ([]model.Campaign, error)
	// CountActive はactiveなキャンペーン数を返す。
	CountActive(ctx context.Context) (int, error)
	// Create はキャンペーンを作成する。
	Create(ctx context.Context, campaign *model.Campaign) error
	// Update はキャンペーン全体を更新する。アサイン集合は変更しない。
	Update(ctx context.Context, campaign *model.Campaign) error
	// Delete は指定IDのキャンペーンを削除する。
	Delete(ctx context.Context, id string) error
	// AddInfluencer はアサイン集合にインフルエンサーを追加し、更新後のキャンペーンを返す。
	// 既に含まれている場合は何もしない。キャンペーンが存在しない場合はnilを返す。
	AddInfluencer(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error)
	// RemoveInfluencer はアサイン集合からインフルエンサーを除去し、更新後のキャンペーンを返す。
	// キャンペーンが存在しない場合はnilを返す。
	RemoveInfluencer(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error)
}
