package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, profile, campaign, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbiddenRole        = "FORBIDDEN_ROLE"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeValidation           = "VALIDATION_FAILED"
	ErrCodeEmailTaken           = "EMAIL_TAKEN"
	ErrCodeORISignupForbidden   = "ORI_SIGNUP_FORBIDDEN"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeInfluencerNotFound   = "INFLUENCER_NOT_FOUND"
	ErrCodeBrandNotFound        = "BRAND_NOT_FOUND"
	ErrCodeCampaignNotFound     = "CAMPAIGN_NOT_FOUND"
	ErrCodeInvalidRole          = "INVALID_ROLE"
	ErrCodeInvalidCampaignState = "INVALID_CAMPAIGN_STATUS"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenRoleError はロール不一致による拒否エラーを生成する。
func NewForbiddenRoleError() *APIError {
	return &APIError{
		Code:     ErrCodeForbiddenRole,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "権限のあるアカウントでログインしてください。",
	}
}

// NewForbiddenError はリソースへのアクセス拒否エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  fmt.Sprintf("アクセスが拒否されました: %s", reason),
		Category: "auth",
		Action:   "自分が所有するリソースのみ参照できます。",
	}
}

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewORISignupForbiddenError は公開サインアップでのoriロール指定エラーを生成する。
func NewORISignupForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeORISignupForbidden,
		Message:  "管理者アカウントはサインアップで作成できません。",
		Category: "auth",
		Action:   "管理者アカウントは既存の管理者に作成を依頼してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewInfluencerNotFoundError はインフルエンサー未検出エラーを生成する。
func NewInfluencerNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeInfluencerNotFound,
		Message:  fmt.Sprintf("指定されたインフルエンサーが見つかりません: %s", id),
		Category: "profile",
		Action:   "インフルエンサーIDを確認してください。",
	}
}

// NewBrandNotFoundError はブランド未検出エラーを生成する。
func NewBrandNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeBrandNotFound,
		Message:  fmt.Sprintf("指定されたブランドが見つかりません: %s", id),
		Category: "profile",
		Action:   "ブランドIDを確認してください。",
	}
}

// NewCampaignNotFoundError はキャンペーン未検出エラーを生成する。
func NewCampaignNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeCampaignNotFound,
		Message:  fmt.Sprintf("指定されたキャンペーンが見つかりません: %s", id),
		Category: "campaign",
		Action:   "キャンペーンIDを確認してください。",
	}
}

// NewInvalidRoleError は無効なロール指定エラーを生成する。
func NewInvalidRoleError(role string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRole,
		Message:  fmt.Sprintf("無効なロールです: %s", role),
		Category: "validation",
		Action:   "ロールには influencer、brand、ori のいずれかを指定してください。",
	}
}

// NewInvalidCampaignStatusError は無効なキャンペーンステータスエラーを生成する。
func NewInvalidCampaignStatusError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCampaignState,
		Message:  fmt.Sprintf("無効なキャンペーンステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには active、inactive、completed のいずれかを指定してください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログにのみ記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
