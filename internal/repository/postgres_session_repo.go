package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/s4mp41xao/orihub/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, token, user_id, expires_at, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		session.ID, session.Token, session.UserID, session.ExpiresAt,
		session.IPAddress, session.UserAgent, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", translateError(err))
	}
	return nil
}

// FindByToken はトークンでセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, token, user_id, expires_at, ip_address, user_agent, created_at
		 FROM sessions
		 WHERE token = $1 AND expires_at > now()`,
		token,
	).Scan(&session.ID, &session.Token, &session.UserID, &session.ExpiresAt,
		&session.IPAddress, &session.UserAgent, &session.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	return session, nil
}

// DeleteByToken は指定トークンのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE token = $1`,
		token,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除し、削除したトークンを返す。
// 呼び出し側はトークンを使ってセッションキャッシュを破棄する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) ([]string, error) {
	if !isUUID(userID) {
		return []string{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1 RETURNING token`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to delete user sessions: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan deleted session token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deleted sessions: %w", err)
	}
	return tokens, nil
}

// DeleteExpired は指定時刻以前に期限切れとなったセッションを削除し、削除件数を返す。
func (r *PostgresSessionRepo) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	return int(n), nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
