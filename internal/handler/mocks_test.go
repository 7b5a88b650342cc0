package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/s4mp41xao/orihub/internal/auth"
	"github.com/s4mp41xao/orihub/internal/campaign"
	"github.com/s4mp41xao/orihub/internal/middleware"
	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/profile"
)

// --- モック定義 ---

type mockAuthService struct {
	signupFn  func(ctx context.Context, in auth.SignupInput, meta auth.SessionMeta) (*auth.SignupResult, error)
	signinFn  func(ctx context.Context, email, password string, meta auth.SessionMeta) (*auth.SigninResult, error)
	signoutFn func(ctx context.Context, token string) error
}

func (m *mockAuthService) Signup(ctx context.Context, in auth.SignupInput, meta auth.SessionMeta) (*auth.SignupResult, error) {
	if m.signupFn != nil {
		return m.signupFn(ctx, in, meta)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAuthService) Signin(ctx context.Context, email, password string, meta auth.SessionMeta) (*auth.SigninResult, error) {
	if m.signinFn != nil {
		return m.signinFn(ctx, email, password, meta)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) Signout(ctx context.Context, token string) error {
	if m.signoutFn != nil {
		return m.signoutFn(ctx, token)
	}
	return nil
}

type mockSigner struct {
	err error
}

func (m *mockSigner) Sign(token string, identity *model.Identity) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "signed." + token + "." + string(identity.Role), nil
}

func (m *mockSigner) MaxAge() time.Duration { return 5 * time.Minute }

type mockUserCreator struct {
	createUserFn func(ctx context.Context, in auth.SignupInput) (*model.User, error)
}

func (m *mockUserCreator) CreateUser(ctx context.Context, in auth.SignupInput) (*model.User, error) {
	return m.createUserFn(ctx, in)
}

type mockUserService struct {
	listFn       func(ctx context.Context) ([]model.User, error)
	updateRoleFn func(ctx context.Context, userID, role string) (*model.User, error)
	deleteFn     func(ctx context.Context, userID string) error
}

func (m *mockUserService) List(ctx context.Context) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserService) UpdateRole(ctx context.Context, userID, role string) (*model.User, error) {
	return m.updateRoleFn(ctx, userID, role)
}

func (m *mockUserService) Delete(ctx context.Context, userID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

type mockCampaignService struct {
	createFn            func(ctx context.Context, in campaign.CreateInput) (*model.Campaign, error)
	listActiveFn        func(ctx context.Context) ([]model.Campaign, error)
	getFn               func(ctx context.Context, id string) (*model.Campaign, error)
	assignFn            func(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error)
	unassignFn          func(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error)
	listForViewerFn     func(ctx context.Context, viewer *model.Identity, brandProfileID string) ([]campaign.Summary, error)
	detailForViewerFn   func(ctx context.Context, viewer *model.Identity, id string) (*campaign.Detail, error)
	listForInfluencerFn func(ctx context.Context, influencerID string) ([]campaign.Assigned, error)
}

func (m *mockCampaignService) Create(ctx context.Context, in campaign.CreateInput) (*model.Campaign, error) {
	return m.createFn(ctx, in)
}

func (m *mockCampaignService) ListActive(ctx context.Context) ([]model.Campaign, error) {
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}

func (m *mockCampaignService) Get(ctx context.Context, id string) (*model.Campaign, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewCampaignNotFoundError(id)
}

func (m *mockCampaignService) Assign(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	return m.assignFn(ctx, campaignID, influencerID)
}

func (m *mockCampaignService) Unassign(ctx context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	return m.unassignFn(ctx, campaignID, influencerID)
}

func (m *mockCampaignService) ListForViewer(ctx context.Context, viewer *model.Identity, brandProfileID string) ([]campaign.Summary, error) {
	if m.listForViewerFn != nil {
		return m.listForViewerFn(ctx, viewer, brandProfileID)
	}
	return nil, nil
}

func (m *mockCampaignService) DetailForViewer(ctx context.Context, viewer *model.Identity, id string) (*campaign.Detail, error) {
	return m.detailForViewerFn(ctx, viewer, id)
}

func (m *mockCampaignService) ListForInfluencer(ctx context.Context, influencerID string) ([]campaign.Assigned, error) {
	if m.listForInfluencerFn != nil {
		return m.listForInfluencerFn(ctx, influencerID)
	}
	return nil, nil
}

type mockProfileService struct {
	brandDashboardFn      func(ctx context.Context, brandUserID string) (*profile.BrandOverview, error)
	brandProfileFn        func(ctx context.Context, id string) (*profile.BrandOverview, error)
	brandInfluencersFn    func(ctx context.Context, brandUserID string) ([]model.InfluencerProfile, error)
	influencerProfileFn   func(ctx context.Context, viewer *model.Identity, id string) (*profile.InfluencerOverview, error)
	influencerDashboardFn func(ctx context.Context, userID string) (*profile.InfluencerOverview, error)
	platformStatsFn       func(ctx context.Context) (*profile.PlatformStats, error)
}

func (m *mockProfileService) BrandDashboard(ctx context.Context, brandUserID string) (*profile.BrandOverview, error) {
	if m.brandDashboardFn != nil {
		return m.brandDashboardFn(ctx, brandUserID)
	}
	return &profile.BrandOverview{}, nil
}

func (m *mockProfileService) BrandProfile(ctx context.Context, id string) (*profile.BrandOverview, error) {
	if m.brandProfileFn != nil {
		return m.brandProfileFn(ctx, id)
	}
	return nil, model.NewBrandNotFoundError(id)
}

func (m *mockProfileService) BrandInfluencers(ctx context.Context, brandUserID string) ([]model.InfluencerProfile, error) {
	if m.brandInfluencersFn != nil {
		return m.brandInfluencersFn(ctx, brandUserID)
	}
	return nil, nil
}

func (m *mockProfileService) InfluencerProfile(ctx context.Context, viewer *model.Identity, id string) (*profile.InfluencerOverview, error) {
	if m.influencerProfileFn != nil {
		return m.influencerProfileFn(ctx, viewer, id)
	}
	return nil, model.NewInfluencerNotFoundError(id)
}

func (m *mockProfileService) InfluencerDashboard(ctx context.Context, userID string) (*profile.InfluencerOverview, error) {
	if m.influencerDashboardFn != nil {
		return m.influencerDashboardFn(ctx, userID)
	}
	return &profile.InfluencerOverview{}, nil
}

func (m *mockProfileService) PlatformStats(ctx context.Context) (*profile.PlatformStats, error) {
	if m.platformStatsFn != nil {
		return m.platformStatsFn(ctx)
	}
	return &profile.PlatformStats{}, nil
}

func (m *mockProfileService) ListInfluencers(context.Context) ([]model.InfluencerProfile, error) {
	return []model.InfluencerProfile{{ID: "p1", UserID: "u1", Name: "Ana"}}, nil
}

func (m *mockProfileService) ListBrands(context.Context) ([]model.BrandProfile, error) {
	return nil, nil
}

// --- ヘルパー ---

var (
	oriIdentity        = &model.Identity{ID: "ori-1", Email: "ori@example.com", Name: "Admin", Role: model.RoleORI}
	brandIdentity      = &model.Identity{ID: "brand-1", Email: "brand@example.com", Name: "Acme", Role: model.RoleBrand}
	influencerIdentity = &model.Identity{ID: "inf-1", Email: "inf@example.com", Name: "Ana", Role: model.RoleInfluencer}
)

// newRequest はJSONボディ付きのリクエストを生成する。identityがnilでなければコンテキストに注入する。
func newRequest(method, target, body string, identity *model.Identity) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != nil {
		req = req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
	}
	return req
}

// decodeBody はレスポンスボディをJSONとして解析する。
func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body %q: %v", w.Body.String(), err)
	}
}

// errorCode はエラーレスポンスのcodeを返す。
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body middleware.ErrorResponseBody
	decodeBody(t, w, &body)
	return body.Code
}

// findCookie はレスポンスから指定名のCookieを探す。
func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// withChiURLParams はテスト用にchiのURLパラメータを注入するヘルパー。
// キーと値を交互に指定する。
func withChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(context.Context) error { return m.err }

// staticResolver はヘッダーX-Test-Roleに応じたユーザーを返すテスト用のIdentityResolver。
type staticResolver struct{}

func (staticResolver) Resolve(r *http.Request) *model.Identity {
	switch model.Role(r.Header.Get("X-Test-Role")) {
	case model.RoleORI:
		return oriIdentity
	case model.RoleBrand:
		return brandIdentity
	case model.RoleInfluencer:
		return influencerIdentity
	default:
		return nil
	}
}

// mockRecorder はメトリクスの記録内容を保持する。
type mockRecorder struct {
	statuses []int
	denials  []string
}

func (m *mockRecorder) RecordHTTPStatus(status int) {
	m.statuses = append(m.statuses, status)
}

func (m *mockRecorder) RecordRequestLatency(string, time.Duration) {}

func (m *mockRecorder) RecordGateDenial(reason string) {
	m.denials = append(m.denials, reason)
}
