// Package profile はブランド、インフルエンサー、管理者向けの集計ビューを提供する。
package profile

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/repository"
)

// CampaignBrief はダッシュボードに表示するキャンペーンの要約。
type CampaignBrief struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Status              model.CampaignStatus `json:"status"`
	Budget              *float64             `json:"budget,omitempty"`
	StartDate           *time.Time           `json:"startDate,omitempty"`
	EndDate             *time.Time           `json:"endDate,omitempty"`
	AssignedInfluencers int                  `json:"assignedInfluencers"`
}

// CampaignRef はインフルエンサーに紐付くキャンペーンの名前とステータス。
type CampaignRef struct {
	Name   string               `json:"name"`
	Status model.CampaignStatus `json:"status"`
}

// ConnectedInfluencer はブランドのキャンペーンにアサインされたインフルエンサー。
type ConnectedInfluencer struct {
	model.InfluencerProfile
	Campaigns []CampaignRef `json:"campaigns"`
}

// BrandStats はブランドの集計値。
type BrandStats struct {
	TotalCampaigns       int `json:"totalCampaigns"`
	ActiveCampaigns      int `json:"activeCampaigns"`
	ConnectedInfluencers int `json:"connectedInfluencers"`
}

// BrandOverview はブランドのプロフィール、集計値、キャンペーン、接続済みインフルエンサー。
// プロフィールが存在しない場合はProfileがnilで、その他は空になる。
type BrandOverview struct {
	Profile     *model.BrandProfile   `json:"profile"`
	Stats       BrandStats            `json:"stats"`
	Campaigns   []CampaignBrief       `json:"campaigns"`
	Influencers []ConnectedInfluencer `json:"influencers"`
}

// AssignedCampaign はインフルエンサーのプロフィールに表示するキャンペーン。
type AssignedCampaign struct {
	Name      string               `json:"name"`
	Budget    *float64             `json:"budget,omitempty"`
	StartDate *time.Time           `json:"startDate,omitempty"`
	EndDate   *time.Time           `json:"endDate,omitempty"`
	Status    model.CampaignStatus `json:"status"`
}

// InfluencerStats はインフルエンサーの集計値。
// Campaignsはプロフィール表示時のみ設定される。
type InfluencerStats struct {
	AssignedCampaigns int                `json:"assignedCampaigns"`
	Campaigns         []AssignedCampaign `json:"campaigns,omitempty"`
}

// InfluencerOverview はインフルエンサーのプロフィールと集計値。
type InfluencerOverview struct {
	Profile *model.InfluencerProfile `json:"profile"`
	Stats   InfluencerStats          `json:"stats"`
}

// PlatformStats は管理者ダッシュボードの集計値。
type PlatformStats struct {
	ActiveCampaigns  int `json:"activeCampaigns"`
	TotalInfluencers int `json:"totalInfluencers"`
	TotalBrands      int `json:"totalBrands"`
}

// Service はプロフィールと集計のサービス層。
type Service struct {
	campaigns   repository.CampaignRepository
	brands      repository.BrandRepository
	influencers repository.InfluencerRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	campaigns repository.CampaignRepository,
	brands repository.BrandRepository,
	influencers repository.InfluencerRepository,
) *Service {
	return &Service{
		campaigns:   campaigns,
		brands:      brands,
		influencers: influencers,
	}
}

// BrandDashboard はブランドユーザー自身のダッシュボードを返す。
// ブランドプロフィールが存在しない場合は空のダッシュボードを返す。
func (s *Service) BrandDashboard(ctx context.Context, brandUserID string) (*BrandOverview, error) {
	brand, err := s.brands.FindByUserID(ctx, brandUserID)
	if err != nil {
		return nil, fmt.Errorf("ブランドプロフィールの取得に失敗しました: %w", err)
	}
	if brand == nil {
		return emptyBrandOverview(), nil
	}
	return s.brandOverview(ctx, brand)
}

// BrandProfile はプロフィールIDで指定したブランドの概要を返す。
func (s *Service) BrandProfile(ctx context.Context, brandProfileID string) (*BrandOverview, error) {
	brand, err := s.brands.FindByID(ctx, brandProfileID)
	if err != nil {
		return nil, fmt.Errorf("ブランドプロフィールの取得に失敗しました: %w", err)
	}
	if brand == nil {
		return nil, model.NewBrandNotFoundError(brandProfileID)
	}
	return s.brandOverview(ctx, brand)
}

// BrandInfluencers はブランドのキャンペーンにアサインされたインフルエンサーのプロフィールを返す。
func (s *Service) BrandInfluencers(ctx context.Context, brandUserID string) ([]model.InfluencerProfile, error) {
	brand, err := s.brands.FindByUserID(ctx, brandUserID)
	if err != nil {
		return nil, fmt.Errorf("ブランドプロフィールの取得に失敗しました: %w", err)
	}
	if brand == nil {
		return []model.InfluencerProfile{}, nil
	}

	campaigns, err := s.campaigns.FindByBrandID(ctx, brandUserID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}
	ids := assignedIDs(campaigns)
	if len(ids) == 0 {
		return []model.InfluencerProfile{}, nil
	}

	profiles, err := s.influencers.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサープロフィールの取得に失敗しました: %w", err)
	}
	if profiles == nil {
		profiles = []model.InfluencerProfile{}
	}
	return profiles, nil
}

// InfluencerProfile はプロフィールIDで指定したインフルエンサーの概要を返す。
// influencerロールの閲覧者は自身のプロフィールのみ参照できる。
func (s *Service) InfluencerProfile(ctx context.Context, viewer *model.Identity, profileID string) (*InfluencerOverview, error) {
	p, err := s.influencers.FindByID(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサープロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return nil, model.NewInfluencerNotFoundError(profileID)
	}

	if viewer.Role == model.RoleInfluencer && p.UserID != viewer.ID {
		return nil, model.NewForbiddenError("他のインフルエンサーのプロフィールは参照できません")
	}

	campaigns, err := s.campaigns.FindByInfluencer(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}

	assigned := make([]AssignedCampaign, len(campaigns))
	for i, c := range campaigns {
		assigned[i] = AssignedCampaign{
			Name:      c.Name,
			Budget:    c.Budget,
			StartDate: c.StartDate,
			EndDate:   c.EndDate,
			Status:    c.Status,
		}
	}

	return &InfluencerOverview{
		Profile: p,
		Stats: InfluencerStats{
			AssignedCampaigns: len(campaigns),
			Campaigns:         assigned,
		},
	}, nil
}

// InfluencerDashboard はインフルエンサーユーザー自身のダッシュボードを返す。
// プロフィールが存在しない場合はProfileがnilで件数は0になる。
func (s *Service) InfluencerDashboard(ctx context.Context, influencerUserID string) (*InfluencerOverview, error) {
	p, err := s.influencers.FindByUserID(ctx, influencerUserID)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサープロフィールの取得に失敗しました: %w", err)
	}
	if p == nil {
		return &InfluencerOverview{}, nil
	}

	campaigns, err := s.campaigns.FindByInfluencer(ctx, influencerUserID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}

	return &InfluencerOverview{
		Profile: p,
		Stats:   InfluencerStats{AssignedCampaigns: len(campaigns)},
	}, nil
}

// PlatformStats はactiveなキャンペーン数、インフルエンサー数、ブランド数を並行して集計する。
func (s *Service) PlatformStats(ctx context.Context) (*PlatformStats, error) {
	var stats PlatformStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.campaigns.CountActive(gctx)
		if err != nil {
			return fmt.Errorf("キャンペーン数の集計に失敗しました: %w", err)
		}
		stats.ActiveCampaigns = n
		return nil
	})
	g.Go(func() error {
		n, err := s.influencers.Count(gctx)
		if err != nil {
			return fmt.Errorf("インフルエンサー数の集計に失敗しました: %w", err)
		}
		stats.TotalInfluencers = n
		return nil
	})
	g.Go(func() error {
		n, err := s.brands.Count(gctx)
		if err != nil {
			return fmt.Errorf("ブランド数の集計に失敗しました: %w", err)
		}
		stats.TotalBrands = n
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListInfluencers は全インフルエンサープロフィールを返す。
func (s *Service) ListInfluencers(ctx context.Context) ([]model.InfluencerProfile, error) {
	profiles, err := s.influencers.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("インフルエンサー一覧の取得に失敗しました: %w", err)
	}
	if profiles == nil {
		profiles = []model.InfluencerProfile{}
	}
	return profiles, nil
}

// ListBrands は全ブランドプロフィールを返す。
func (s *Service) ListBrands(ctx context.Context) ([]model.BrandProfile, error) {
	profiles, err := s.brands.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ブランド一覧の取得に失敗しました: %w", err)
	}
	if profiles == nil {
		profiles = []model.BrandProfile{}
	}
	return profiles, nil
}

// brandOverview はブランドのキャンペーンとアサイン済みインフルエンサーを集計する。
func (s *Service) brandOverview(ctx context.Context, brand *model.BrandProfile) (*BrandOverview, error) {
	// 1. ブランドのキャンペーンを取得
	campaigns, err := s.campaigns.FindByBrandID(ctx, brand.UserID)
	if err != nil {
		return nil, fmt.Errorf("キャンペーン一覧の取得に失敗しました: %w", err)
	}

	// 2. アサイン済みインフルエンサーのプロフィールを取得
	var profiles []model.InfluencerProfile
	if ids := assignedIDs(campaigns); len(ids) > 0 {
		profiles, err = s.influencers.FindByUserIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("インフルエンサープロフィールの取得に失敗しました: %w", err)
		}
	}

	// 3. 集計
	overview := &BrandOverview{
		Profile:     brand,
		Campaigns:   make([]CampaignBrief, len(campaigns)),
		Influencers: make([]ConnectedInfluencer, len(profiles)),
	}
	for i, c := range campaigns {
		if c.Status == model.CampaignStatusActive {
			overview.Stats.ActiveCampaigns++
		}
		overview.Campaigns[i] = CampaignBrief{
			ID:                  c.ID,
			Name:                c.Name,
			Status:              c.Status,
			Budget:              c.Budget,
			StartDate:           c.StartDate,
			EndDate:             c.EndDate,
			AssignedInfluencers: len(c.AssignedInfluencers),
		}
	}
	for i, p := range profiles {
		refs := []CampaignRef{}
		for _, c := range campaigns {
			if c.HasInfluencer(p.UserID) {
				refs = append(refs, CampaignRef{Name: c.Name, Status: c.Status})
			}
		}
		overview.Influencers[i] = ConnectedInfluencer{InfluencerProfile: p, Campaigns: refs}
	}
	overview.Stats.TotalCampaigns = len(campaigns)
	overview.Stats.ConnectedInfluencers = len(profiles)

	return overview, nil
}

func emptyBrandOverview() *BrandOverview {
	return &BrandOverview{
		Campaigns:   []CampaignBrief{},
		Influencers: []ConnectedInfluencer{},
	}
}

// assignedIDs はキャンペーン群にアサインされたユーザーIDを重複なく返す。
func assignedIDs(campaigns []model.Campaign) []string {
	seen := make(map[string]struct{})
	ids := []string{}
	for _, c := range campaigns {
		for _, id := range c.AssignedInfluencers {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
