package model

import (
	"slices"
	"time"
)

// CampaignStatus はキャンペーンの状態を表す。
type CampaignStatus string

const (
	// CampaignStatusActive は実施中のキャンペーン。
	CampaignStatusActive CampaignStatus = "active"
	// CampaignStatusInactive は停止中のキャンペーン。
	CampaignStatusInactive CampaignStatus = "inactive"
	// CampaignStatusCompleted は終了したキャンペーン。
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Valid は定義済みのステータスかどうかを返す。
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusInactive, CampaignStatusCompleted:
		return true
	default:
		return false
	}
}

// Campaign はブランドが所有するマーケティングキャンペーンを表す。
// BrandIDはブランドユーザーのID、AssignedInfluencersはインフルエンサーユーザーIDの集合。
type Campaign struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	BrandID             string         `json:"brandId"`
	Description         string         `json:"description,omitempty"`
	Status              CampaignStatus `json:"status"`
	Budget              *float64       `json:"budget,omitempty"`
	StartDate           *time.Time     `json:"startDate,omitempty"`
	EndDate             *time.Time     `json:"endDate,omitempty"`
	AssignedInfluencers []string       `json:"assignedInfluencers"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// HasInfluencer は指定ユーザーがアサイン済みかどうかを返す。
func (c *Campaign) HasInfluencer(userID string) bool {
	return slices.Contains(c.AssignedInfluencers, userID)
}
