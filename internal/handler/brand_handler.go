package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/s4mp41xao/orihub/internal/campaign"
)

// BrandHandler はブランド向けのHTTPハンドラー。
type BrandHandler struct {
	campaigns CampaignServiceInterface
	profiles  ProfileServiceInterface
}

// NewBrandHandler はBrandHandlerを生成する。
func NewBrandHandler(campaigns CampaignServiceInterface, profiles ProfileServiceInterface) *BrandHandler {
	return &BrandHandler{
		campaigns: campaigns,
		profiles:  profiles,
	}
}

// Profile はプロフィールIDで指定したブランドの概要を返す。
// GET /brand/profile/{id}
func (h *BrandHandler) Profile(w http.ResponseWriter, r *http.Request) {
	overview, err := h.profiles.BrandProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Dashboard はログイン中のブランドのダッシュボードを返す。
// GET /brand/dashboard
func (h *BrandHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	overview, err := h.profiles.BrandDashboard(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Influencers はログイン中のブランドのキャンペーンにアサインされたインフルエンサーを返す。
// GET /brand/influencers
func (h *BrandHandler) Influencers(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	profiles, err := h.profiles.BrandInfluencers(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(profiles))
}

// Campaigns はキャンペーン一覧を返す。
// oriはクエリパラメータbrandId（ブランドプロフィールID）で絞り込める。
// GET /brand/campaigns
func (h *BrandHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	list, err := h.campaigns.ListForViewer(r.Context(), identity, r.URL.Query().Get("brandId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(list))
}

// CampaignDetail はキャンペーンとアサイン済みインフルエンサーを返す。
// GET /brand/campaigns/{id}
func (h *BrandHandler) CampaignDetail(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	detail, err := h.campaigns.DetailForViewer(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse[*campaign.Detail]{Data: detail})
}
