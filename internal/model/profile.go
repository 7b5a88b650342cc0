package model

import "time"

// InfluencerProfile はインフルエンサーのプロフィールを表す。
// UserIDでinfluencerロールのユーザーと1対1に紐付く。
type InfluencerProfile struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio,omitempty"`
	Instagram string    `json:"instagram,omitempty"`
	TikTok    string    `json:"tiktok,omitempty"`
	YouTube   string    `json:"youtube,omitempty"`
	Followers int       `json:"followers"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BrandProfile はブランドのプロフィールを表す。
// UserIDでbrandロールのユーザーと1対1に紐付く。
type BrandProfile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Description string    `json:"description,omitempty"`
	Website     string    `json:"website,omitempty"`
	Industry    string    `json:"industry,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
