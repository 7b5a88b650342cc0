package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/s4mp41xao/orihub/internal/model"
)

// PostgresInfluencerRepo はPostgreSQLを使用したインフルエンサープロフィールリポジトリ。
type PostgresInfluencerRepo struct {
	db *sql.DB
}

// NewPostgresInfluencerRepo はPostgresInfluencerRepoを生成する。
func NewPostgresInfluencerRepo(db *sql.DB) *PostgresInfluencerRepo {
	return &PostgresInfluencerRepo{db: db}
}

const influencerColumns = `id, user_id, name, email, bio, instagram, tiktok, youtube, followers, active, created_at, updated_at`

func scanInfluencer(s interface{ Scan(...any) error }) (*model.InfluencerProfile, error) {
	p := &model.InfluencerProfile{}
	err := s.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Bio, &p.Instagram, &p.TikTok,
		&p.YouTube, &p.Followers, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresInfluencerRepo) findOne(ctx context.Context, where string, arg any) (*model.InfluencerProfile, error) {
	p, err := scanInfluencer(r.db.QueryRowContext(ctx,
		`SELECT `+influencerColumns+` FROM influencers WHERE `+where,
		arg,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find influencer: %w", err)
	}
	return p, nil
}

func (r *PostgresInfluencerRepo) findMany(ctx context.Context, query string, args ...any) ([]model.InfluencerProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list influencers: %w", err)
	}
	defer rows.Close()

	profiles := []model.InfluencerProfile{}
	for rows.Next() {
		p, err := scanInfluencer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan influencer: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate influencers: %w", err)
	}
	return profiles, nil
}

// FindByID はプロフィールIDで取得する。見つからない場合はnilを返す。
func (r *PostgresInfluencerRepo) FindByID(ctx context.Context, id string) (*model.InfluencerProfile, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.findOne(ctx, `id = $1`, id)
}

// FindByUserID は所有ユーザーIDで取得する。見つからない場合はnilを返す。
func (r *PostgresInfluencerRepo) FindByUserID(ctx context.Context, userID string) (*model.InfluencerProfile, error) {
	if !isUUID(userID) {
		return nil, nil
	}
	return r.findOne(ctx, `user_id = $1`, userID)
}

// FindByUserIDs は所有ユーザーIDの集合に一致するプロフィールを名前順で返す。
func (r *PostgresInfluencerRepo) FindByUserIDs(ctx context.Context, userIDs []string) ([]model.InfluencerProfile, error) {
	ids := uuidsOnly(userIDs)
	if len(ids) == 0 {
		return []model.InfluencerProfile{}, nil
	}
	return r.findMany(ctx,
		`SELECT `+influencerColumns+` FROM influencers WHERE user_id::text = ANY($1) ORDER BY name ASC`,
		pq.Array(ids),
	)
}

// FindAll は全プロフィールを名前順で返す。
func (r *PostgresInfluencerRepo) FindAll(ctx context.Context) ([]model.InfluencerProfile, error) {
	return r.findMany(ctx, `SELECT `+influencerColumns+` FROM influencers ORDER BY name ASC`)
}

// Count はプロフィール数を返す。
func (r *PostgresInfluencerRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM influencers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count influencers: %w", err)
	}
	return n, nil
}

// Create はプロフィールを作成する。
func (r *PostgresInfluencerRepo) Create(ctx context.Context, p *model.InfluencerProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO influencers (`+influencerColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.UserID, p.Name, p.Email, p.Bio, p.Instagram, p.TikTok, p.YouTube,
		p.Followers, p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create influencer: %w", translateError(err))
	}
	return nil
}

// Update はプロフィール全体を更新する。
// UUID形式でないIDは存在しないものとして扱い、何も更新しない。
func (r *PostgresInfluencerRepo) Update(ctx context.Context, p *model.InfluencerProfile) error {
	if !isUUID(p.ID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE influencers
		 SET name = $2, email = $3, bio = $4, instagram = $5, tiktok = $6, youtube = $7,
		     followers = $8, active = $9, updated_at = $10
		 WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Bio, p.Instagram, p.TikTok, p.YouTube, p.Followers, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update influencer: %w", translateError(err))
	}
	return nil
}

// DeleteByUserID は所有ユーザーIDでプロフィールを削除する。
func (r *PostgresInfluencerRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if !isUUID(userID) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM influencers WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete influencer: %w", err)
	}
	return nil
}

// compile-time interface check
var _ InfluencerRepository = (*PostgresInfluencerRepo)(nil)
