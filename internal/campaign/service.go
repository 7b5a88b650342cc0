// Package campaign はキャンペーン管理と閲覧のドメインロジックを提供する。
//
// キャンペーンのBrandIDとアサイン集合の要素はいずれもユーザーIDであり、プロフィールIDではない。
// ブランドはプロフィールIDで指定されることがあるため、必要に応じて所有ユーザーIDへ変換する。
package campaign

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/repository"
	"github.com/s4mp41xao/orihub/internal/security"
	"github.com/s4mp41xao/orihub/internal/session"
)

// maxNameLength はキャンペーン名の最大文字数。
const maxNameLength = 200

// CreateInput はキャンペーン作成の入力。
type CreateInput struct {
	Name        string
	BrandID     string // ブランドユーザーのID
	Description string
	Status      string // 空の場合はactive
	Budget      *float64
	StartDate   *time.Time
	EndDate     *time.Time
}

// Summary は一覧表示用のキャンペーン情報。
type Summary struct {
	model.Campaign
	InfluencersCount int `json:"influencersCount"`
}

// Detail はキャンペーンとアサイン済みインフルエンサーのプロフィール。
type Detail struct {
	Campaign    model.Campaign            `json:"campaign"`
	Influencers []model.InfluencerProfile `json:"influencers"`
}

// Assigned はインフルエンサー向けのキャンペーン情報。
// BrandNameはブランドプロフィールが存在しない場合は空文字列になる。
type Assigned struct {
	model.Campaign
	BrandName string `json:"brandName"`
}

// Deps はキャンペーンサービスの依存関係。
type Deps struct {
	Campaigns   repository.CampaignRepository
	Users       repository.UserRepository
	Brands      repository.BrandRepository
	Influencers repository.InfluencerRepository
	Sanitizer   security.TextSanitizer
	Clock       session.Clock
}

// Service はキャンペーンのサービス層。
type Service struct {
	deps Deps
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(deps Deps) *Service {
	if deps.Clock == nil {
		deps.Clock = session.SystemClock{}
	}
	return &Service{deps: deps}
}

// Create はキャンペーンを作成する。
// BrandIDはbrandロールの既存ユーザーでなければならない。
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Campaign, error) {
	// 1. 入力検証
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, model.NewValidationError("キャンペーン名は必須です")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, model.NewValidationError(fmt.Sprintf("キャンペーン名は%d文字以内で入力してください", maxNameLength))
	}

	status := model.CampaignStatusActive
	if in.Status != "" {
		status = model.CampaignStatus(strings.ToLower(strings.TrimSpace(in.Status)))
		if !status.Valid() {
			return nil, model.NewInvalidCampaignStatusError(in.Status)
		}
	}

	if in.Budget != nil && *in.Budget < 0 {
		return nil, model.NewValidationError("予算は0以上で指定してください")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return nil, model.NewValidationError("終了日は開始日以降を指定してください")
	}

	// 2. ブランドユーザーの存在確認
	if strings.TrimSpace(in.BrandID) == "" {
		return nil, model.NewValidationError("brandIdは必須です")
	}
	owner, err := s.deps.Users.FindByID(ctx, in.BrandID)
	if err != nil {
		return nil, fmt.Errorf("ブランドユーザーの取得に失敗しました: %w", err)
	}
	if owner == nil || owner.Role != model.RoleBrand {
		return nil, model.NewBrandNotFoundError(in.BrandID)
	}

	// 3. 作成
	now := s.deps.Clock.Now()
	c := &model.Campaign{
		ID:                  uuid.NewString(),
		Name:                name,
		BrandID:             owner.ID,
		Description:         s.sanitize(in.Description),
		Status:              status,
		Budget:              in.Budget,
		StartDate:           in.StartDate,
		EndDate:             in.EndDate,
		AssignedInfluencers: []string{},
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.deps.Campaigns.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("キャンペーンの作成に失敗しました: %w", err)
	}

	slog.Info("キャンペーンを作成しました",
		slog.String("campaign_id", c.ID),
		slog.String("brand_id", c.BrandID),
		slog.String("status", string(c.Status)),
	)
	return c, nil
}

// ListActive はactiveなキャンペーンを返す。
func (s *Service) ListActive(ctx context.Context) ([]model.Campaign, error) {
	campaigns, err := s.deps.Campaigns.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}
	return nonNil(campaigns), nil
}

// Get は指定IDのキャンペーンを返す。
func (s *Service) Get(ctx context.Context, campaignID string) (*model.Campaign, error) {
	c, err := s.deps.Campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーンの取得に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCampaignNotFoundError(campaignID)
	}
	return c, nil
}

// Assign はインフルエンサーユーザーをキャンペーンにアサインする。
// 既にアサイン済みの場合は何もしない。
func (s *Service) Assign(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	// 1. インフルエンサーユーザーの存在確認
	u, err := s.deps.Users.FindByID(ctx, influencerID)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサーユーザーの取得に失敗しました: %w", err)
	}
	if u == nil || u.Role != model.RoleInfluencer {
		return nil, model.NewInfluencerNotFoundError(influencerID)
	}

	// 2. アサイン集合に追加
	c, err := s.deps.Campaigns.AddInfluencer(ctx, campaignID, u.ID)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサーのアサインに失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCampaignNotFoundError(campaignID)
	}

	slog.Info("インフルエンサーをアサインしました",
		slog.String("campaign_id", c.ID),
		slog.String("influencer_id", u.ID),
	)
	return c, nil
}

// Unassign はキャンペーンのアサイン集合からインフルエンサーを除去する。
// アサインされていない場合は何もしない。
func (s *Service) Unassign(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	c, err := s.deps.Campaigns.RemoveInfluencer(ctx, campaignID, influencerID)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサーのアサイン解除に失敗しました: %w", err)
	}
	if c == nil {
		return nil, model.NewCampaignNotFoundError(campaignID)
	}

	slog.Info("インフルエンサーのアサインを解除しました",
		slog.String("campaign_id", c.ID),
		slog.String("influencer_id", influencerID),
	)
	return c, nil
}

// ListForViewer は閲覧者のロールに応じたキャンペーン一覧を返す。
// brandは自身のキャンペーンのみ、oriは全件またはbrandProfileIDで指定したブランドのキャンペーンを参照する。
// 対象のブランドプロフィールが存在しない場合は空の一覧を返す。
func (s *Service) ListForViewer(ctx context.Context, viewer *model.Identity, brandProfileID string) ([]Summary, error) {
	var (
		campaigns []model.Campaign
		err       error
	)

	switch {
	case viewer.Role == model.RoleORI && brandProfileID != "":
		brand, ferr := s.deps.Brands.FindByID(ctx, brandProfileID)
		if ferr != nil {
			return nil, fmt.Errorf("ブランドプロフィールの取得に失敗しました: %w", ferr)
		}
		if brand == nil {
			return []Summary{}, nil
		}
		campaigns, err = s.deps.Campaigns.FindByBrandID(ctx, brand.UserID)
	case viewer.Role == model.RoleORI:
		campaigns, err = s.deps.Campaigns.FindAll(ctx)
	default:
		brand, ferr := s.deps.Brands.FindByUserID(ctx, viewer.ID)
		if ferr != nil {
			return nil, fmt.Errorf("ブランドプロフィールの取得に失敗しました: %w", ferr)
		}
		if brand == nil {
			return []Summary{}, nil
		}
		campaigns, err = s.deps.Campaigns.FindByBrandID(ctx, viewer.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}

	results := make([]Summary, len(campaigns))
	for i, c := range campaigns {
		results[i] = Summary{
			Campaign:         c,
			InfluencersCount: len(c.AssignedInfluencers),
		}
	}
	return results, nil
}

// DetailForViewer はキャンペーンとアサイン済みインフルエンサーのプロフィールを返す。
// brandは自身が所有するキャンペーンのみ参照できる。
func (s *Service) DetailForViewer(ctx context.Context, viewer *model.Identity, campaignID string) (*Detail, error) {
	c, err := s.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if viewer.Role == model.RoleBrand && c.BrandID != viewer.ID {
		return nil, model.NewForbiddenError("このキャンペーンは他のブランドが所有しています")
	}

	detail := &Detail{Campaign: *c, Influencers: []model.InfluencerProfile{}}
	if len(c.AssignedInfluencers) == 0 {
		return detail, nil
	}

	profiles, err := s.deps.Influencers.FindByUserIDs(ctx, c.AssignedInfluencers)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサープロフィールの取得に失敗しました: %w", err)
	}
	if profiles != nil {
		detail.Influencers = profiles
	}
	return detail, nil
}

// ListForInfluencer はインフルエンサーユーザーがアサインされたキャンペーンをブランド名付きで返す。
// インフルエンサープロフィールが存在しない場合は空の一覧を返す。
func (s *Service) ListForInfluencer(ctx context.Context, influencerID string) ([]Assigned, error) {
	// 1. プロフィール確認
	profile, err := s.deps.Influencers.FindByUserID(ctx, influencerID)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサープロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return []Assigned{}, nil
	}

	// 2. アサイン済みキャンペーン取得
	campaigns, err := s.deps.Campaigns.FindByInfluencer(ctx, influencerID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}
	if len(campaigns) == 0 {
		return []Assigned{}, nil
	}

	// 3. ブランド名をまとめて解決
	brandIDs := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		brandIDs = append(brandIDs, c.BrandID)
	}
	brands, err := s.deps.Brands.FindByUserIDs(ctx, brandIDs)
	if err != nil {
		return nil, fmt.Errorf("ブランドプロフィールの取得に失敗しました: %w", err)
	}
	names := make(map[string]string, len(brands))
	for _, b := range brands {
		names[b.UserID] = b.Name
	}

	results := make([]Assigned, len(campaigns))
	for i, c := range campaigns {
		results[i] = Assigned{Campaign: c, BrandName: names[c.BrandID]}
	}
	return results, nil
}

func (s *Service) sanitize(raw string) string {
	if s.deps.Sanitizer == nil {
		return strings.TrimSpace(raw)
	}
	return s.deps.Sanitizer.Sanitize(raw)
}

func nonNil(campaigns []model.Campaign) []model.Campaign {
	if campaigns == nil {
		return []model.Campaign{}
	}
	return campaigns
}
