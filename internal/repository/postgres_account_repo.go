package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/s4mp41xao/orihub/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用した資格情報リポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindCredentialByUserID はユーザーのパスワード資格情報を取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindCredentialByUserID(ctx context.Context, userID string) (*model.Account, error) {
	if !isUUID(userID) {
		return nil, nil
	}

	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, account_id, provider_id, password_hash, created_at, updated_at
		 FROM accounts
		 WHERE user_id = $1 AND provider_id = $2`,
		userID, model.CredentialProvider,
	).Scan(&account.ID, &account.UserID, &account.AccountID, &account.ProviderID,
		&account.PasswordHash, &account.CreatedAt, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}

	return account, nil
}

// ReplaceCredential は既存のパスワード資格情報を削除してから新しい資格情報を挿入する。
// 削除と挿入は同一トランザクションで行う。
func (r *PostgresAccountRepo) ReplaceCredential(ctx context.Context, account *model.Account) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM accounts WHERE user_id = $1 AND provider_id = $2`,
		account.UserID, model.CredentialProvider,
	); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, account_id, provider_id, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		account.ID, account.UserID, strings.ToLower(account.AccountID), model.CredentialProvider,
		account.PasswordHash, account.CreatedAt, account.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert credential: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
