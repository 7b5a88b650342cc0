package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// InfluencerHandler はインフルエンサー向けのHTTPハンドラー。
type InfluencerHandler struct {
	campaigns CampaignServiceInterface
	profiles  ProfileServiceInterface
}

// NewInfluencerHandler はInfluencerHandlerを生成する。
func NewInfluencerHandler(campaigns CampaignServiceInterface, profiles ProfileServiceInterface) *InfluencerHandler {
	return &InfluencerHandler{
		campaigns: campaigns,
		profiles:  profiles,
	}
}

// Profile はプロフィールIDで指定したインフルエンサーの概要を返す。
// GET /influencer/profile/{id}
func (h *InfluencerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	overview, err := h.profiles.InfluencerProfile(r.Context(), identity, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Dashboard はログイン中のインフルエンサーのダッシュボードを返す。
// GET /influencer/dashboard
func (h *InfluencerHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	overview, err := h.profiles.InfluencerDashboard(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Campaigns はログイン中のインフルエンサーがアサインされたキャンペーンを返す。
// GET /influencer/campaigns
func (h *InfluencerHandler) Campaigns(w http.ResponseWriter, r *http.Request) {
	identity := requireIdentity(w, r)
	if identity == nil {
		return
	}

	list, err := h.campaigns.ListForInfluencer(r.Context(), identity.ID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newListResponse(list))
}
