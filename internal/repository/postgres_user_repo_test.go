package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/s4mp41xao/orihub/internal/database"
	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/testutil/pgtest"
)

// 各リポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ AccountRepository = (*PostgresAccountRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ InfluencerRepository = (*PostgresInfluencerRepo)(nil)
	var _ BrandRepository = (*PostgresBrandRepo)(nil)
	var _ CampaignRepository = (*PostgresCampaignRepo)(nil)
}

func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresAccountRepo(nil) == nil {
		t.Error("expected non-nil account repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Error("expected non-nil session repo")
	}
	if NewPostgresInfluencerRepo(nil) == nil {
		t.Error("expected non-nil influencer repo")
	}
	if NewPostgresBrandRepo(nil) == nil {
		t.Error("expected non-nil brand repo")
	}
	if NewPostgresCampaignRepo(nil) == nil {
		t.Error("expected non-nil campaign repo")
	}
}

// UUID形式でないIDはDBに問い合わせずに「存在しない」として扱われることを検証
func TestFindByID_MalformedID_ReturnsNilWithoutQuery(t *testing.T) {
	ctx := context.Background()

	// dbがnilでもクエリが発行されなければpanicしない
	user, err := NewPostgresUserRepo(nil).FindByID(ctx, "not-a-uuid")
	if err != nil || user != nil {
		t.Errorf("FindByID = (%v, %v), want (nil, nil)", user, err)
	}

	campaign, err := NewPostgresCampaignRepo(nil).FindByID(ctx, "507f1f77bcf86cd799439011")
	if err != nil || campaign != nil {
		t.Errorf("FindByID = (%v, %v), want (nil, nil)", campaign, err)
	}

	profiles, err := NewPostgresInfluencerRepo(nil).FindByUserIDs(ctx, []string{"x", "y"})
	if err != nil {
		t.Fatalf("FindByUserIDs error: %v", err)
	}
	if len(profiles) != 0 {
		t.Errorf("len(profiles) = %d, want 0", len(profiles))
	}
}

// UUID形式でないIDの更新はDBに問い合わせずエラーなしで何もしないことを検証
func TestUpdate_MalformedID_NoopWithoutQuery(t *testing.T) {
	ctx := context.Background()

	// dbがnilでもクエリが発行されなければpanicしない
	if err := NewPostgresCampaignRepo(nil).Update(ctx, &model.Campaign{ID: "507f1f77bcf86cd799439011", Name: "x"}); err != nil {
		t.Errorf("campaign Update error: %v", err)
	}
	if err := NewPostgresInfluencerRepo(nil).Update(ctx, &model.InfluencerProfile{ID: "not-a-uuid"}); err != nil {
		t.Errorf("influencer Update error: %v", err)
	}
	if err := NewPostgresBrandRepo(nil).Update(ctx, &model.BrandProfile{ID: ""}); err != nil {
		t.Errorf("brand Update error: %v", err)
	}
}

// --- 統合テスト（PostgreSQLが利用できない場合はスキップ） ---

// setupTestDB はスキーマを初期化したテスト用DBを返す。
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := pgtest.DSN(t)
	if err := database.ResetSchema(dsn); err != nil {
		t.Fatalf("スキーマ初期化に失敗: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser はテスト用のユーザーと資格情報を作成する。
func createTestUser(t *testing.T, db *sql.DB, email string, role model.Role) *model.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	user := &model.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      "Test " + string(role),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	account := &model.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		AccountID:    email,
		ProviderID:   model.CredentialProvider,
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := NewPostgresUserRepo(db).CreateWithAccount(context.Background(), user, account); err != nil {
		t.Fatalf("ユーザー作成に失敗: %v", err)
	}
	return user
}

func TestPostgresUserRepo_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgresUserRepo(db)

	created := createTestUser(t, db, "Brand@Example.com", model.RoleBrand)

	got, err := repo.FindByEmail(ctx, "brand@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got == nil {
		t.Fatal("expected user, got nil")
	}
	if got.ID != created.ID {
		t.Errorf("ID = %q, want %q", got.ID, created.ID)
	}
	if got.Role != model.RoleBrand {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleBrand)
	}

	cred, err := NewPostgresAccountRepo(db).FindCredentialByUserID(ctx, created.ID)
	if err != nil {
		t.Fatalf("FindCredentialByUserID error: %v", err)
	}
	if cred == nil || cred.AccountID != "brand@example.com" {
		t.Errorf("credential = %+v, want account_id brand@example.com", cred)
	}
}

func TestPostgresUserRepo_DuplicateEmail_ReturnsErrDuplicate(t *testing.T) {
	db := setupTestDB(t)
	createTestUser(t, db, "dup@example.com", model.RoleInfluencer)

	now := time.Now()
	user := &model.User{ID: uuid.New().String(), Email: "dup@example.com", Name: "Dup", Role: model.RoleBrand, CreatedAt: now, UpdatedAt: now}
	account := &model.Account{ID: uuid.New().String(), UserID: user.ID, AccountID: user.Email, ProviderID: model.CredentialProvider, PasswordHash: "h", CreatedAt: now, UpdatedAt: now}

	err := NewPostgresUserRepo(db).CreateWithAccount(context.Background(), user, account)
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}
}

func TestPostgresUserRepo_UpdateRoleAndDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	repo := NewPostgresUserRepo(db)
	user := createTestUser(t, db, "role@example.com", model.RoleInfluencer)

	ok, err := repo.UpdateRole(ctx, user.ID, model.RoleORI)
	if err != nil || !ok {
		t.Fatalf("UpdateRole = (%v, %v), want (true, nil)", ok, err)
	}
	got, _ := repo.FindByID(ctx, user.ID)
	if got.Role != model.RoleORI {
		t.Errorf("Role = %q, want ori", got.Role)
	}

	if err := repo.DeleteByID(ctx, user.ID); err != nil {
		t.Fatalf("DeleteByID error: %v", err)
	}
	got, err = repo.FindByID(ctx, user.ID)
	if err != nil || got != nil {
		t.Errorf("FindByID after delete = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestPostgresAccountRepo_ReplaceCredential(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "reset@example.com", model.RoleORI)
	repo := NewPostgresAccountRepo(db)

	now := time.Now()
	err := repo.ReplaceCredential(ctx, &model.Account{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		AccountID:    user.Email,
		PasswordHash: "new-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("ReplaceCredential error: %v", err)
	}

	cred, err := repo.FindCredentialByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindCredentialByUserID error: %v", err)
	}
	if cred.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want new-hash", cred.PasswordHash)
	}

	var count int
	if err := db.QueryRow(`SELECT count(*) FROM accounts WHERE user_id = $1`, user.ID).Scan(&count); err != nil {
		t.Fatalf("count error: %v", err)
	}
	if count != 1 {
		t.Errorf("account rows = %d, want 1", count)
	}
}

func TestPostgresSessionRepo_ExpiredSessionIsAbsent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "sess@example.com", model.RoleBrand)
	repo := NewPostgresSessionRepo(db)

	now := time.Now()
	valid := &model.Session{ID: uuid.New().String(), Token: "valid-token", UserID: user.ID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
	expired := &model.Session{ID: uuid.New().String(), Token: "expired-token", UserID: user.ID, ExpiresAt: now.Add(-time.Hour), CreatedAt: now}
	for _, s := range []*model.Session{valid, expired} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	got, err := repo.FindByToken(ctx, "valid-token")
	if err != nil || got == nil || got.UserID != user.ID {
		t.Errorf("FindByToken(valid) = (%+v, %v)", got, err)
	}

	got, err = repo.FindByToken(ctx, "expired-token")
	if err != nil || got != nil {
		t.Errorf("FindByToken(expired) = (%+v, %v), want (nil, nil)", got, err)
	}

	if err := repo.DeleteByToken(ctx, "valid-token"); err != nil {
		t.Fatalf("DeleteByToken error: %v", err)
	}
	got, _ = repo.FindByToken(ctx, "valid-token")
	if got != nil {
		t.Error("expected session to be deleted")
	}
}

func TestPostgresSessionRepo_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "purge@example.com", model.RoleInfluencer)
	repo := NewPostgresSessionRepo(db)

	now := time.Now()
	for i, offset := range []time.Duration{-2 * time.Hour, -time.Minute, time.Hour} {
		s := &model.Session{
			ID:        uuid.New().String(),
			Token:     fmt.Sprintf("purge-token-%d", i),
			UserID:    user.ID,
			ExpiresAt: now.Add(offset),
			CreatedAt: now,
		}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	n, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpired error: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if got, _ := repo.FindByToken(ctx, "purge-token-2"); got == nil {
		t.Error("unexpired session should remain")
	}
}

// 指定ユーザーのセッションだけが削除され、削除したトークンが返ることを検証
func TestPostgresSessionRepo_DeleteByUserID_ReturnsTokens(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	owner := createTestUser(t, db, "owner@example.com", model.RoleInfluencer)
	other := createTestUser(t, db, "other@example.com", model.RoleBrand)
	repo := NewPostgresSessionRepo(db)

	now := time.Now()
	for token, userID := range map[string]string{"owner-1": owner.ID, "owner-2": owner.ID, "other-1": other.ID} {
		s := &model.Session{ID: uuid.New().String(), Token: token, UserID: userID, ExpiresAt: now.Add(time.Hour), CreatedAt: now}
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}

	tokens, err := repo.DeleteByUserID(ctx, owner.ID)
	if err != nil {
		t.Fatalf("DeleteByUserID error: %v", err)
	}
	got := map[string]bool{}
	for _, tok := range tokens {
		got[tok] = true
	}
	if len(tokens) != 2 || !got["owner-1"] || !got["owner-2"] {
		t.Errorf("tokens = %v, want owner-1 and owner-2", tokens)
	}
	if s, _ := repo.FindByToken(ctx, "other-1"); s == nil {
		t.Error("other user's session should remain")
	}

	tokens, err = repo.DeleteByUserID(ctx, "not-a-uuid")
	if err != nil || len(tokens) != 0 {
		t.Errorf("DeleteByUserID(malformed) = (%v, %v), want empty", tokens, err)
	}
}
