// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/s4mp41xao/orihub/internal/middleware"
	"github.com/s4mp41xao/orihub/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの最大サイズ。
const maxRequestBodyBytes = 1 << 20

// listResponse は一覧系エンドポイントの共通レスポンス。
type listResponse[T any] struct {
	Total int `json:"total"`
	Data  []T `json:"data"`
}

// dataResponse は単一リソースを返すエンドポイントの共通レスポンス。
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// userResponse はユーザーのJSONレスポンス。
type userResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          model.Role `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func newListResponse[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Total: len(items), Data: items}
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一フォーマットでAPIエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// decodeJSON はリクエストボディをJSONとして解析する。
// 解析に失敗した場合はINVALID_REQUESTを書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if !errors.Is(err, io.EOF) {
			slog.Debug("invalid request body", slog.String("error", err.Error()))
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// requireIdentity はコンテキストから認証済みユーザーを取り出す。
// 未認証の場合は401を書き込んでnilを返す。
func requireIdentity(w http.ResponseWriter, r *http.Request) *model.Identity {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return nil
	}
	return identity
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbiddenRole, model.ErrCodeForbidden, model.ErrCodeORISignupForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest, model.ErrCodeValidation, model.ErrCodeInvalidRole, model.ErrCodeInvalidCampaignState:
		return http.StatusBadRequest
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeUserNotFound, model.ErrCodeInfluencerNotFound, model.ErrCodeBrandNotFound, model.ErrCodeCampaignNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// parseDate はRFC3339または YYYY-MM-DD 形式の日付を解析する。空文字列はnilを返す。
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, model.NewValidationError(fmt.Sprintf("%sの日付形式が正しくありません", field))
}
