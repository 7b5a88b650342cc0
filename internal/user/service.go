// Package user は管理者によるユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/repository"
)

// CacheEvictor はセッションキャッシュからトークンを削除するインターフェース。
type CacheEvictor interface {
	Evict(ctx context.Context, token string)
}

// Service はユーザー管理のサービス層。
// 一覧取得、ロール変更、削除のビジネスロジックを提供する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	evictor     CacheEvictor
}

// NewService はServiceの新しいインスタンスを生成する。
// evictorがnilの場合、削除したセッションのキャッシュはTTL経過まで残る。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	evictor CacheEvictor,
) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		evictor:     evictor,
	}
}

// List は全ユーザーを作成日時順で返す。
func (s *Service) List(ctx context.Context) ([]model.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// UpdateRole はユーザーのロールを変更し、更新後のユーザーを返す。
// 既存セッションは維持されるため、キャッシュ済みの認証情報はTTL経過後に新しいロールへ切り替わる。
func (s *Service) UpdateRole(ctx context.Context, userID string, rawRole string) (*model.User, error) {
	role, ok := model.ParseRole(rawRole)
	if !ok {
		return nil, model.NewInvalidRoleError(rawRole)
	}

	updated, err := s.userRepo.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("ロールの更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewUserNotFoundError()
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("ユーザーのロールを変更しました",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
	)
	return user, nil
}

// Delete はユーザーを削除する。
// 削除順序: sessions → user（+ CASCADE: accounts, influencers, brands）
// キャンペーンのアサイン集合に残ったIDは参照時に無視される。
func (s *Service) Delete(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("ユーザー削除を開始します",
		slog.String("user_id", userID),
		slog.String("role", string(user.Role)),
	)

	// 1. セッションを削除し、キャッシュからも破棄
	if s.sessionRepo != nil {
		tokens, err := s.sessionRepo.DeleteByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
		if s.evictor != nil {
			for _, token := range tokens {
				s.evictor.Evict(ctx, token)
			}
		}
	}

	// 2. ユーザーを削除（accounts, プロフィールはCASCADE削除）
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("ユーザー削除が完了しました",
		slog.String("user_id", userID),
	)
	return nil
}
