package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/s4mp41xao/orihub/internal/model"
)

// PostgresCampaignRepo はPostgreSQLを使用したキャンペーンリポジトリ。
// アサイン集合はTEXT[]列で保持し、追加・除去は単一行のUPDATEで原子的に行う。
type PostgresCampaignRepo struct {
	db *sql.DB
}

// NewPostgresCampaignRepo はPostgresCampaignRepoを生成する。
func NewPostgresCampaignRepo(db *sql.DB) *PostgresCampaignRepo {
	return &PostgresCampaignRepo{db: db}
}

const campaignColumns = `id, name, brand_id, description, status, budget, start_date, end_date, assigned_influencers, created_at, updated_at`

func scanCampaign(s interface{ Scan(...any) error }) (*model.Campaign, error) {
	c := &model.Campaign{}
	var (
		status    string
		budget    sql.NullFloat64
		startDate sql.NullTime
		endDate   sql.NullTime
		assigned  []string
	)
	err := s.Scan(&c.ID, &c.Name, &c.BrandID, &c.Description, &status, &budget,
		&startDate, &endDate, pq.Array(&assigned), &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.Status = model.CampaignStatus(status)
	if budget.Valid {
		c.Budget = &budget.Float64
	}
	if startDate.Valid {
		c.StartDate = &startDate.Time
	}
	if endDate.Valid {
		c.EndDate = &endDate.Time
	}
	if assigned == nil {
		assigned = []string{}
	}
	c.AssignedInfluencers = assigned

	return c, nil
}

func (r *PostgresCampaignRepo) findMany(ctx context.Context, query string, args ...any) ([]model.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}
	return campaigns, nil
}

// FindByID は指定IDのキャンペーンを取得する。見つからない場合はnilを返す。
func (r *PostgresCampaignRepo) FindByID(ctx context.Context, id string) (*model.Campaign, error) {
	if !isUUID(id) {
		return nil, nil
	}

	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}
	return c, nil
}

// FindAll は全キャンペーンを作成日時の新しい順で返す。
func (r *PostgresCampaignRepo) FindAll(ctx context.Context) ([]model.Campaign, error) {
	return r.findMany(ctx, `SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
}

// FindActive はステータスがactiveのキャンペーンを返す。
func (r *PostgresCampaignRepo) FindActive(ctx context.Context) ([]model.Campaign, error) {
	return r.findMany(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE status = $1 ORDER BY created_at DESC`,
		string(model.CampaignStatusActive),
	)
}

// FindByBrandID は指定ブランドユーザーが所有するキャンペーンを返す。
func (r *PostgresCampaignRepo) FindByBrandID(ctx context.Context, brandID string) ([]model.Campaign, error) {
	if !isUUID(brandID) {
		return []model.Campaign{}, nil
	}
	return r.findMany(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE brand_id = $1 ORDER BY created_at DESC`,
		brandID,
	)
}

// FindByInfluencer は指定インフルエンサーユーザーがアサインされたキャンペーンを返す。
func (r *PostgresCampaignRepo) FindByInfluencer(ctx context.Context, influencerID string) ([]model.Campaign, error) {
	return r.findMany(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE $1::text = ANY(assigned_influencers) ORDER BY created_at DESC`,
		influencerID,
	)
}

// CountActive はactiveなキャンペーン数を返す。
func (r *PostgresCampaignRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM campaigns WHERE status = $1`,
		string(model.CampaignStatusActive),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active campaigns: %w", err)
	}
	return n, nil
}

// Create はキャンペーンを作成する。
func (r *PostgresCampaignRepo) Create(ctx context.Context, c *model.Campaign) error {
	if c.AssignedInfluencers == nil {
		c.AssignedInfluencers = []string{}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (`+campaignColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		c.ID, c.Name, c.BrandID, c.Description, string(c.Status), c.Budget,
		c.StartDate, c.EndDate, pq.Array(c.AssignedInfluencers), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", translateError(err))
	}
	return nil
}

// Update はキャンペーン全体を更新する。アサイン集合は変更しない。
// UUID形式でないIDは存在しないものとして扱い、何も更新しない。
func (r *PostgresCampaignRepo) Update(ctx context.Context, c *model.Campaign) error {
	if !isUUID(c.ID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns
		 SET name = $2, brand_id = $3, description = $4, status = $5, budget = $6,
		     start_date = $7, end_date = $8, updated_at = $9
		 WHERE id = $1`,
		c.ID, c.Name, c.BrandID, c.Description, string(c.Status), c.Budget,
		c.StartDate, c.EndDate, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	return nil
}

// Delete は指定IDのキャンペーンを削除する。
func (r *PostgresCampaignRepo) Delete(ctx context.Context, id string) error {
	if !isUUID(id) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	return nil
}

// AddInfluencer はアサイン集合にインフルエンサーを追加する。
// 既に含まれている場合はWHERE句で弾かれるため更新されない（冪等）。
func (r *PostgresCampaignRepo) AddInfluencer(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	if !isUUID(campaignID) {
		return nil, nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns
		 SET assigned_influencers = array_append(assigned_influencers, $2::text), updated_at = now()
		 WHERE id = $1 AND NOT ($2::text = ANY(assigned_influencers))`,
		campaignID, influencerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add influencer to campaign: %w", err)
	}

	return r.FindByID(ctx, campaignID)
}

// RemoveInfluencer はアサイン集合からインフルエンサーを除去する。
func (r *PostgresCampaignRepo) RemoveInfluencer(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	if !isUUID(campaignID) {
		return nil, nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE campaigns
		 SET assigned_influencers = array_remove(assigned_influencers, $2::text), updated_at = now()
		 WHERE id = $1 AND $2::text = ANY(assigned_influencers)`,
		campaignID, influencerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to remove influencer from campaign: %w", err)
	}

	return r.FindByID(ctx, campaignID)
}

// compile-time interface check
var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
