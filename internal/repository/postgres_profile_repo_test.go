package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/s4mp41xao/orihub/internal/model"
)

// プロフィールを作成して所有ユーザーIDで取得すると、全フィールドが一致することを検証
func TestPostgresInfluencerRepo_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "inf@example.com", model.RoleInfluencer)
	repo := NewPostgresInfluencerRepo(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	want := &model.InfluencerProfile{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      "Influencer One",
		Email:     "inf@example.com",
		Bio:       "travel and food",
		Instagram: "@inf",
		TikTok:    "@inf.tt",
		YouTube:   "inf-channel",
		Followers: 12000,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := repo.FindByUserID(ctx, user.ID)
	if err != nil {
		t.Fatalf("FindByUserID error: %v", err)
	}
	if got == nil {
		t.Fatal("expected profile, got nil")
	}

	got.CreatedAt, got.UpdatedAt = want.CreatedAt, want.UpdatedAt
	if *got != *want {
		t.Errorf("profile = %+v, want %+v", *got, *want)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 1 {
		t.Errorf("Count = (%d, %v), want (1, nil)", n, err)
	}
}

func TestPostgresBrandRepo_RoundTripAndUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "brand@example.com", model.RoleBrand)
	repo := NewPostgresBrandRepo(db)

	now := time.Now().UTC().Truncate(time.Microsecond)
	profile := &model.BrandProfile{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		Name:        "Acme",
		Email:       "brand@example.com",
		Description: "shoes",
		Website:     "https://acme.example.com",
		Industry:    "fashion",
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, profile); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	profile.Industry = "sports"
	profile.Active = false
	if err := repo.Update(ctx, profile); err != nil {
		t.Fatalf("Update error: %v", err)
	}

	got, err := repo.FindByID(ctx, profile.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID = (%v, %v)", got, err)
	}
	if got.Industry != "sports" || got.Active {
		t.Errorf("updated profile = %+v", got)
	}

	list, err := repo.FindByUserIDs(ctx, []string{user.ID, uuid.New().String()})
	if err != nil {
		t.Fatalf("FindByUserIDs error: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("len(FindByUserIDs) = %d, want 1", len(list))
	}
}

func TestPostgresInfluencerRepo_FindByUserID_Absent(t *testing.T) {
	db := setupTestDB(t)

	got, err := NewPostgresInfluencerRepo(db).FindByUserID(context.Background(), uuid.New().String())
	if err != nil || got != nil {
		t.Errorf("FindByUserID = (%v, %v), want (nil, nil)", got, err)
	}
}
