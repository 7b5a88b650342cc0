package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/s4mp41xao/orihub/internal/model"
)

// PostgresBrandRepo はPostgreSQLを使用したブランドプロフィールリポジトリ。
type PostgresBrandRepo struct {
	db *sql.DB
}

// NewPostgresBrandRepo はPostgresBrandRepoを生成する。
func NewPostgresBrandRepo(db *sql.DB) *PostgresBrandRepo {
	return &PostgresBrandRepo{db: db}
}

const brandColumns = `id, user_id, name, email, description, website, industry, active, created_at, updated_at`

func scanBrand(s interface{ Scan(...any) error }) (*model.BrandProfile, error) {
	p := &model.BrandProfile{}
	err := s.Scan(&p.ID, &p.UserID, &p.Name, &p.Email, &p.Description, &p.Website,
		&p.Industry, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PostgresBrandRepo) findOne(ctx context.Context, where string, arg any) (*model.BrandProfile, error) {
	p, err := scanBrand(r.db.QueryRowContext(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE `+where,
		arg,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find brand: %w", err)
	}
	return p, nil
}

func (r *PostgresBrandRepo) findMany(ctx context.Context, query string, args ...any) ([]model.BrandProfile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer rows.Close()

	profiles := []model.BrandProfile{}
	for rows.Next() {
		p, err := scanBrand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brands: %w", err)
	}
	return profiles, nil
}

// FindByID はプロフィールIDで取得する。見つからない場合はnilを返す。
func (r *PostgresBrandRepo) FindByID(ctx context.Context, id string) (*model.BrandProfile, error) {
	if !isUUID(id) {
		return nil, nil
	}
	return r.findOne(ctx, `id = $1`, id)
}

// FindByUserID は所有ユーザーIDで取得する。見つからない場合はnilを返す。
func (r *PostgresBrandRepo) FindByUserID(ctx context.Context, userID string) (*model.BrandProfile, error) {
	if !isUUID(userID) {
		return nil, nil
	}
	return r.findOne(ctx, `user_id = $1`, userID)
}

// FindByUserIDs は所有ユーザーIDの集合に一致するプロフィールを返す。
func (r *PostgresBrandRepo) FindByUserIDs(ctx context.Context, userIDs []string) ([]model.BrandProfile, error) {
	ids := uuidsOnly(userIDs)
	if len(ids) == 0 {
		return []model.BrandProfile{}, nil
	}
	return r.findMany(ctx,
		`SELECT `+brandColumns+` FROM brands WHERE user_id::text = ANY($1) ORDER BY name ASC`,
		pq.Array(ids),
	)
}

// FindAll は全プロフィールを名前順で返す。
func (r *PostgresBrandRepo) FindAll(ctx context.Context) ([]model.BrandProfile, error) {
	return r.findMany(ctx, `SELECT `+brandColumns+` FROM brands ORDER BY name ASC`)
}

// Count はプロフィール数を返す。
func (r *PostgresBrandRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM brands`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count brands: %w", err)
	}
	return n, nil
}

// Create はプロフィールを作成する。
func (r *PostgresBrandRepo) Create(ctx context.Context, p *model.BrandProfile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO brands (`+brandColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.UserID, p.Name, p.Email, p.Description, p.Website, p.Industry,
		p.Active, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create brand: %w", translateError(err))
	}
	return nil
}

// Update はプロフィール全体を更新する。
// UUID形式でないIDは存在しないものとして扱い、何も更新しない。
func (r *PostgresBrandRepo) Update(ctx context.Context, p *model.BrandProfile) error {
	if !isUUID(p.ID) {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE brands
		 SET name = $2, email = $3, description = $4, website = $5, industry = $6,
		     active = $7, updated_at = $8
		 WHERE id = $1`,
		p.ID, p.Name, p.Email, p.Description, p.Website, p.Industry, p.Active, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update brand: %w", translateError(err))
	}
	return nil
}

// DeleteByUserID は所有ユーザーIDでプロフィールを削除する。
func (r *PostgresBrandRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if !isUUID(userID) {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM brands WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}
	return nil
}

// compile-time interface check
var _ BrandRepository = (*PostgresBrandRepo)(nil)
