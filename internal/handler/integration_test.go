package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/s4mp41xao/orihub/internal/auth"
	"github.com/s4mp41xao/orihub/internal/campaign"
	"github.com/s4mp41xao/orihub/internal/middleware"
	"github.com/s4mp41xao/orihub/internal/profile"
	"github.com/s4mp41xao/orihub/internal/security"
	"github.com/s4mp41xao/orihub/internal/session"
	"github.com/s4mp41xao/orihub/internal/testutil/memrepo"
	"github.com/s4mp41xao/orihub/internal/user"
)

// integrationEnv はインメモリリポジトリ上に実サービスを組み立てたテスト環境。
type integrationEnv struct {
	t      *testing.T
	store  *memrepo.Store
	auth   *auth.Service
	server *httptest.Server
}

func newIntegrationEnv(t *testing.T) *integrationEnv {
	t.Helper()

	store := memrepo.New()
	clock := session.SystemClock{}
	sanitizer := security.NewTextSanitizer()

	signer := session.NewCookieSigner("integration-test-secret-0123456789", 5*time.Minute, clock)
	resolver := session.NewResolver(
		session.NewMemoryCache(time.Minute, clock),
		slog.Default(),
		nil,
		session.NewSignedCookieStrategy(signer),
		session.NewStoreStrategy(store.Sessions(), store.Users(), clock),
	)

	authService := auth.NewService(auth.Deps{
		Users:       store.Users(),
		Accounts:    store.Accounts(),
		Sessions:    store.Sessions(),
		Influencers: store.Influencers(),
		Brands:      store.Brands(),
		Sanitizer:   sanitizer,
		Evictor:     resolver,
		Clock:       clock,
	}, auth.ServiceConfig{SessionMaxAge: time.Hour})

	campaignService := campaign.NewService(campaign.Deps{
		Campaigns:   store.Campaigns(),
		Users:       store.Users(),
		Brands:      store.Brands(),
		Influencers: store.Influencers(),
		Sanitizer:   sanitizer,
		Clock:       clock,
	})

	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000, 1000))
	t.Cleanup(limiter.Stop)

	router := NewRouter(&RouterDeps{
		Resolver:          resolver,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       limiter,
		CSRF:              &middleware.CSRFConfig{},
		AuthService:       authService,
		Signer:            signer,
		AuthConfig:        AuthHandlerConfig{SessionMaxAge: 3600},
		UserCreator:       authService,
		UserService:       user.NewService(store.Users(), store.Sessions(), resolver),
		CampaignService:   campaignService,
		ProfileService:    profile.NewService(store.Campaigns(), store.Brands(), store.Influencers()),
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &integrationEnv{t: t, store: store, auth: authService, server: server}
}

// do はBearerトークン付きでJSONリクエストを送信し、ステータスとボディを返す。
func (e *integrationEnv) do(method, path, token, body string) (int, map[string]any) {
	e.t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, e.server.URL+path, strings.NewReader(body))
	if err != nil {
		e.t.Fatalf("failed to build request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			e.t.Fatalf("%s %s: failed to decode body: %v", method, path, err)
		}
	}
	return resp.StatusCode, decoded
}

// signup は公開エンドポイントでユーザーを登録し、ユーザーIDとトークンを返す。
func (e *integrationEnv) signup(email, name, role string) (string, string) {
	e.t.Helper()

	status, body := e.do(http.MethodPost, "/auth/signup", "",
		`{"email":"`+email+`","password":"password123","name":"`+name+`","role":"`+role+`"}`)
	if status != http.StatusCreated {
		e.t.Fatalf("signup %s: status = %d, body = %v", email, status, body)
	}
	u := body["user"].(map[string]any)
	token, _ := body["token"].(string)
	if token == "" {
		e.t.Fatalf("signup %s: token missing", email)
	}
	return u["id"].(string), token
}

// signinAdmin は管理者を作成してサインインし、トークンを返す。
func (e *integrationEnv) signinAdmin() string {
	e.t.Helper()

	if _, err := e.auth.EnsureAdmin(context.Background(), "admin@orihub.test", "password123", "Admin"); err != nil {
		e.t.Fatalf("EnsureAdmin() error = %v", err)
	}
	status, body := e.do(http.MethodPost, "/auth/signin", "", `{"email":"admin@orihub.test","password":"password123"}`)
	if status != http.StatusOK {
		e.t.Fatalf("admin signin: status = %d, body = %v", status, body)
	}
	return body["token"].(string)
}

func firstItem(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].([]any)
	if !ok || len(data) == 0 {
		t.Fatalf("data is empty: %v", body)
	}
	return data[0].(map[string]any)
}

// TestIntegration_CampaignLifecycle は登録からキャンペーンのアサインと解除までを通しで検証する。
func TestIntegration_CampaignLifecycle(t *testing.T) {
	env := newIntegrationEnv(t)

	// 1. ブランドとインフルエンサーが登録する
	brandID, brandToken := env.signup("brand@acme.test", "Acme", "brand")
	influencerID, influencerToken := env.signup("ana@creator.test", "Ana", "influencer")

	status, dashboard := env.do(http.MethodGet, "/brand/dashboard", brandToken, "")
	if status != http.StatusOK {
		t.Fatalf("brand dashboard: status = %d", status)
	}
	if dashboard["profile"] == nil {
		t.Fatal("brand profile should be created on signup")
	}

	// 2. ブランドは管理者APIを利用できない
	if status, _ := env.do(http.MethodGet, "/admin/users", brandToken, ""); status != http.StatusForbidden {
		t.Errorf("brand on /admin/users: status = %d, want %d", status, http.StatusForbidden)
	}

	// 3. 管理者がキャンペーンを作成してインフルエンサーをアサインする
	adminToken := env.signinAdmin()
	status, created := env.do(http.MethodPost, "/admin/campaigns", adminToken,
		`{"name":"Summer Launch","brandId":"`+brandID+`","description":"<b>Hot</b> season","budget":5000,"startDate":"2026-06-01","endDate":"2026-08-31"}`)
	if status != http.StatusCreated {
		t.Fatalf("create campaign: status = %d, body = %v", status, created)
	}
	c := created["data"].(map[string]any)
	campaignID := c["id"].(string)
	if c["description"] != "Hot season" {
		t.Errorf("description = %v, want sanitized text", c["description"])
	}

	status, _ = env.do(http.MethodPost, "/admin/campaigns/"+campaignID+"/assign/"+influencerID, adminToken, "")
	if status != http.StatusOK {
		t.Fatalf("assign: status = %d", status)
	}

	// 4. ブランドのキャンペーン一覧にインフルエンサー数が反映される
	_, list := env.do(http.MethodGet, "/brand/campaigns", brandToken, "")
	if got := firstItem(t, list)["influencersCount"]; got != float64(1) {
		t.Errorf("influencersCount = %v, want 1", got)
	}

	// 5. インフルエンサーのキャンペーン一覧にブランド名が含まれる
	_, assigned := env.do(http.MethodGet, "/influencer/campaigns", influencerToken, "")
	if got := firstItem(t, assigned)["brandName"]; got != "Acme" {
		t.Errorf("brandName = %v, want Acme", got)
	}

	_, infDashboard := env.do(http.MethodGet, "/influencer/dashboard", influencerToken, "")
	stats := infDashboard["stats"].(map[string]any)
	if stats["assignedCampaigns"] != float64(1) {
		t.Errorf("assignedCampaigns = %v, want 1", stats["assignedCampaigns"])
	}

	// 6. 管理者ダッシュボードの集計
	_, adminDashboard := env.do(http.MethodGet, "/admin/dashboard", adminToken, "")
	platform := adminDashboard["stats"].(map[string]any)
	if platform["activeCampaigns"] != float64(1) || platform["totalInfluencers"] != float64(1) || platform["totalBrands"] != float64(1) {
		t.Errorf("platform stats = %v", platform)
	}

	// 7. アサイン解除でインフルエンサー数が0に戻る
	status, _ = env.do(http.MethodDelete, "/admin/campaigns/"+campaignID+"/assign/"+influencerID, adminToken, "")
	if status != http.StatusOK {
		t.Fatalf("unassign: status = %d", status)
	}
	_, list = env.do(http.MethodGet, "/brand/campaigns", brandToken, "")
	if got := firstItem(t, list)["influencersCount"]; got != float64(0) {
		t.Errorf("influencersCount after unassign = %v, want 0", got)
	}
}

// TestIntegration_ORISignupOnlyThroughAdmin は公開登録ではoriを作成できず、管理者APIでは作成できることを検証する。
func TestIntegration_ORISignupOnlyThroughAdmin(t *testing.T) {
	env := newIntegrationEnv(t)

	status, body := env.do(http.MethodPost, "/auth/signup", "",
		`{"email":"evil@orihub.test","password":"password123","name":"Evil","role":"ori"}`)
	if status != http.StatusForbidden {
		t.Fatalf("public ori signup: status = %d, want %d", status, http.StatusForbidden)
	}
	if body["code"] != "ORI_SIGNUP_FORBIDDEN" {
		t.Errorf("code = %v, want ORI_SIGNUP_FORBIDDEN", body["code"])
	}

	adminToken := env.signinAdmin()
	status, body = env.do(http.MethodPost, "/admin/users", adminToken,
		`{"email":"ops@orihub.test","password":"password123","name":"Ops","role":"ori"}`)
	if status != http.StatusCreated {
		t.Fatalf("admin create ori: status = %d, body = %v", status, body)
	}

	// 作成されたoriは管理者APIを利用できる
	status, signin := env.do(http.MethodPost, "/auth/signin", "", `{"email":"ops@orihub.test","password":"password123"}`)
	if status != http.StatusOK {
		t.Fatalf("ops signin: status = %d", status)
	}
	if status, _ := env.do(http.MethodGet, "/admin/users", signin["token"].(string), ""); status != http.StatusOK {
		t.Errorf("ops on /admin/users: status = %d, want %d", status, http.StatusOK)
	}
}

// TestIntegration_SignoutRevokesSession はサインアウト後にトークンが無効になることを検証する。
func TestIntegration_SignoutRevokesSession(t *testing.T) {
	env := newIntegrationEnv(t)

	_, token := env.signup("ana@creator.test", "Ana", "influencer")

	if status, me := env.do(http.MethodGet, "/auth/me", token, ""); status != http.StatusOK || me["role"] != "influencer" {
		t.Fatalf("me before signout: status = %d, body = %v", status, me)
	}

	if status, _ := env.do(http.MethodPost, "/auth/signout", token, ""); status != http.StatusOK {
		t.Fatalf("signout: status = %d", status)
	}
	if env.store.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d, want 0", env.store.SessionCount())
	}

	if status, _ := env.do(http.MethodGet, "/auth/me", token, ""); status != http.StatusUnauthorized {
		t.Errorf("me after signout: status = %d, want %d", status, http.StatusUnauthorized)
	}
}

// TestIntegration_DeleteUserCascades は管理者によるユーザー削除でセッションとプロフィールが消え、
// キャッシュ済みのセッションも無効になることを検証する。
func TestIntegration_DeleteUserCascades(t *testing.T) {
	env := newIntegrationEnv(t)

	influencerID, influencerToken := env.signup("ana@creator.test", "Ana", "influencer")
	adminToken := env.signinAdmin()

	// 削除前に解決結果をキャッシュさせる
	if status, _ := env.do(http.MethodGet, "/auth/me", influencerToken, ""); status != http.StatusOK {
		t.Fatalf("me before delete: status = %d, want %d", status, http.StatusOK)
	}

	if status, _ := env.do(http.MethodDelete, "/admin/users/"+influencerID, adminToken, ""); status != http.StatusNoContent {
		t.Fatalf("delete user: status = %d, want %d", status, http.StatusNoContent)
	}

	_, influencers := env.do(http.MethodGet, "/admin/influencers", adminToken, "")
	if influencers["total"] != float64(0) {
		t.Errorf("influencers total = %v, want 0", influencers["total"])
	}
	if status, _ := env.do(http.MethodGet, "/auth/me", influencerToken, ""); status != http.StatusUnauthorized {
		t.Errorf("me after delete: status = %d, want %d", status, http.StatusUnauthorized)
	}
}

// TestIntegration_SignupProfileFieldsRoundTrip は登録時のプロフィール項目がダッシュボードで読み戻せることを検証する。
func TestIntegration_SignupProfileFieldsRoundTrip(t *testing.T) {
	env := newIntegrationEnv(t)

	status, body := env.do(http.MethodPost, "/auth/signup", "", `{
		"email":"ana@orihub.test","password":"password123","name":"Ana","role":"influencer",
		"bio":"Travel <script>alert(1)</script>creator","instagram":"@ana","tiktok":"@ana.tt",
		"youtube":"AnaChannel","followers":12000}`)
	if status != http.StatusCreated {
		t.Fatalf("influencer signup: status = %d, body = %v", status, body)
	}
	influencerToken := body["token"].(string)

	status, body = env.do(http.MethodPost, "/auth/signup", "", `{
		"email":"acme@orihub.test","password":"password123","name":"Acme","role":"brand",
		"description":"&lt;b&gt;Outdoor&lt;/b&gt; gear","website":"https://acme.example.com","industry":"Retail"}`)
	if status != http.StatusCreated {
		t.Fatalf("brand signup: status = %d, body = %v", status, body)
	}
	brandToken := body["token"].(string)

	status, infDashboard := env.do(http.MethodGet, "/influencer/dashboard", influencerToken, "")
	if status != http.StatusOK {
		t.Fatalf("influencer dashboard: status = %d", status)
	}
	inf := infDashboard["profile"].(map[string]any)
	wantInfluencer := map[string]any{
		"name":      "Ana",
		"bio":       "Travel creator",
		"instagram": "@ana",
		"tiktok":    "@ana.tt",
		"youtube":   "AnaChannel",
		"followers": float64(12000),
	}
	for key, want := range wantInfluencer {
		if inf[key] != want {
			t.Errorf("influencer profile %s = %v, want %v", key, inf[key], want)
		}
	}

	status, brandDashboard := env.do(http.MethodGet, "/brand/dashboard", brandToken, "")
	if status != http.StatusOK {
		t.Fatalf("brand dashboard: status = %d", status)
	}
	brand := brandDashboard["profile"].(map[string]any)
	wantBrand := map[string]any{
		"name":        "Acme",
		"description": "Outdoor gear",
		"website":     "https://acme.example.com",
		"industry":    "Retail",
	}
	for key, want := range wantBrand {
		if brand[key] != want {
			t.Errorf("brand profile %s = %v, want %v", key, brand[key], want)
		}
	}
}

// TestIntegration_SignupRejectsNonHTTPWebsite はhttp(s)以外のWebサイトを登録時に拒否することを検証する。
func TestIntegration_SignupRejectsNonHTTPWebsite(t *testing.T) {
	env := newIntegrationEnv(t)

	status, body := env.do(http.MethodPost, "/auth/signup", "",
		`{"email":"bad@orihub.test","password":"password123","name":"Bad","role":"brand","website":"javascript:alert(1)"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body = %v)", status, http.StatusBadRequest, body)
	}
	if body["code"] != "VALIDATION_FAILED" {
		t.Errorf("code = %v, want VALIDATION_FAILED", body["code"])
	}
}
