package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/s4mp41xao/orihub/internal/auth"
	"github.com/s4mp41xao/orihub/internal/campaign"
	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/profile"
)

// UserCreator は管理者によるユーザー作成のインターフェース。
type UserCreator interface {
	CreateUser(ctx context.Context, in auth.SignupInput) (*model.User, error)
}

// UserServiceInterface はユーザー管理のサービスインターフェース。
type UserServiceInterface interface {
	List(ctx context.Context) ([]model.User, error)
	UpdateRole(ctx context.Context, userID string, role string) (*model.User, error)
	Delete(ctx context.Context, userID string) error
}

// CampaignServiceInterface はキャンペーンのサービスインターフェース。
type CampaignServiceInterface interface {
	Create(ctx context.Context, in campaign.CreateInput) (*model.Campaign, error)
	ListActive(ctx context.Context) ([]model.Campaign, error)
	Get(ctx context.Context, campaignID string) (*model.Campaign, error)
	Assign(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error)
	Unassign(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error)
	ListForViewer(ctx context.Context, viewer *model.Identity, brandProfileID string) ([]campaign.Summary, error)
	DetailForViewer(ctx context.Context, viewer *model.Identity, campaignID string) (*campaign.Detail, error)
	ListForInfluencer(ctx context.Context, influencerID string) ([]campaign.Assigned, error)
}

// ProfileServiceInterface はプロフィールと集計のサービスインターフェース。
type ProfileServiceInterface interface {
	BrandDashboard(ctx context.Context, brandUserID string) (*profile.BrandOverview, error)
	BrandProfile(ctx context.Context, brandProfileID string) (*profile.BrandOverview, error)
	BrandInfluencers(ctx context.Context, brandUserID string) ([]model.InfluencerProfile, error)
	InfluencerProfile(ctx context.Context, viewer *model.Identity, profileID string) (*profile.InfluencerOverview, error)
	InfluencerDashboard(ctx context.Context, influencerUserID string) (*profile.InfluencerOverview, error)
	PlatformStats(ctx context.Context) (*profile.PlatformStats, error)
	ListInfluencers(ctx context.Context) ([]model.InfluencerProfile, error)
	ListBrands(ctx context.Context) ([]model.BrandProfile, error)
}

// AdminHandler は管理者（ori）向けのHTTPハンドラー。
type AdminHandler struct {
	creator   UserCreator
	users     UserServiceInterface
	campaigns CampaignServiceInterface
	profiles  ProfileServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(
	creator UserCreator,
	users UserServiceInterface,
	campaigns CampaignServiceInterface,
	profiles ProfileServiceInterface,
) *AdminHandler {
	return &AdminHandler{
		creator:   creator,
		users:     users,
		campaigns: campaigns,
		profiles:  profiles,
	}
}

// updateRoleRequest はロール変更のリクエストボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// createCampaignRequest はキャンペーン作成のリクエストボディ。
// 日付はRFC3339または YYYY-MM-DD 形式で受け付ける。
type createCampaignRequest struct {
	Name        string   `json:"name"`
	BrandID     string   `json:"brandId"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Budget      *float64 `json:"budget"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
}

// CreateUser は任意のロールのユーザーを作成する。セッションは発行しない。
// POST /admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.creator.CreateUser(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dataResponse[userResponse]{Data: toUserResponse(user)})
}

// ListUsers は全ユーザーを返す。
// GET /admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]userResponse, len(users))
	for i := range users {
		items[i] = toUserResponse(&users[i])
	}
	writeJSON(w, http.StatusOK, newListResponse(items))
}

// UpdateUserRole はユーザーのロールを変更する。
// PATCH /admin/users/{id}/role
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse[userResponse]{Data: toUserResponse(user)})
}

// DeleteUser はユーザーを削除する。自分自身は削除できない。
// DELETE /admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	userID := chi.URLParam(r, "id")
	if userID == identity.ID {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("自分自身のアカウントは削除できません"))
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Dashboard はプラットフォーム全体の集計値を返す。
// GET /admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profiles.PlatformStats(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// ListInfluencers は全インフルエンサープロフィールを返す。
// GET /admin/influencers
func (h *AdminHandler) ListInfluencers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.ListInfluencers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(profiles))
}

// ListBrands は全ブランドプロフィールを返す。
// GET /admin/brands
func (h *AdminHandler) ListBrands(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.ListBrands(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(profiles))
}

// ListCampaigns はactiveなキャンペーンを返す。
// GET /admin/campaigns
func (h *AdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaigns.ListActive(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(campaigns))
}

// GetCampaign はキャンペーンの詳細を返す。
// GET /admin/campaigns/{id}
func (h *AdminHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse[*model.Campaign]{Data: c})
}

// CreateCampaign はキャンペーンを作成する。
// POST /admin/campaigns
func (h *AdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	startDate, err := parseDate("startDate", req.StartDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	endDate, err := parseDate("endDate", req.EndDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.campaigns.Create(r.Context(), campaign.CreateInput{
		Name:        req.Name,
		BrandID:     req.BrandID,
		Description: req.Description,
		Status:      req.Status,
		Budget:      req.Budget,
		StartDate:   startDate,
		EndDate:     endDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dataResponse[*model.Campaign]{Data: c})
}

// AssignInfluencer はインフルエンサーをキャンペーンにアサインする。
// POST /admin/campaigns/{campaignId}/assign/{influencerId}
func (h *AdminHandler) AssignInfluencer(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Assign(r.Context(), chi.URLParam(r, "campaignId"), chi.URLParam(r, "influencerId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse[*model.Campaign]{Data: c})
}

// UnassignInfluencer はインフルエンサーのアサインを解除する。
// DELETE /admin/campaigns/{campaignId}/assign/{influencerId}
func (h *AdminHandler) UnassignInfluencer(w http.ResponseWriter, r *http.Request) {
	c, err := h.campaigns.Unassign(r.Context(), chi.URLParam(r, "campaignId"), chi.URLParam(r, "influencerId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse[*model.Campaign]{Data: c})
}
