package auth

import (
	"context"
	"time"

	"github.com/s4mp41xao/orihub/internal/model"
)

// --- モック定義 ---

// memUserRepo はメモリ上でユーザーと資格情報を保持するモック。
type memUserRepo struct {
	users    map[string]*model.User
	accounts map[string]*model.Account

	createErr     error
	deleteErr     error
	findByIDFn    func(ctx context.Context, id string) (*model.User, error)
	updateRoleErr error

	updateRoleCalls int
	deletedIDs      []string
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:    make(map[string]*model.User),
		accounts: make(map[string]*model.Account),
	}
}

func (m *memUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) FindAll(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserRepo) CreateWithAccount(_ context.Context, user *model.User, account *model.Account) error {
	if m.createErr != nil {
		return m.createErr
	}
	copied := *user
	m.users[user.ID] = &copied
	acc := *account
	m.accounts[user.ID] = &acc
	return nil
}

func (m *memUserRepo) UpdateRole(_ context.Context, id string, role model.Role) (bool, error) {
	m.updateRoleCalls++
	if m.updateRoleErr != nil {
		return false, m.updateRoleErr
	}
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	return true, nil
}

func (m *memUserRepo) DeleteByID(_ context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.users, id)
	delete(m.accounts, id)
	return nil
}

// accountsView はmemUserRepoの資格情報をAccountRepositoryとして公開する。
type accountsView struct {
	repo       *memUserRepo
	replaceErr error
}

func (a *accountsView) FindCredentialByUserID(_ context.Context, userID string) (*model.Account, error) {
	if acc, ok := a.repo.accounts[userID]; ok {
		copied := *acc
		return &copied, nil
	}
	return nil, nil
}

func (a *accountsView) ReplaceCredential(_ context.Context, account *model.Account) error {
	if a.replaceErr != nil {
		return a.replaceErr
	}
	copied := *account
	a.repo.accounts[account.UserID] = &copied
	return nil
}

type mockSessionRepo struct {
	createFn           func(ctx context.Context, session *model.Session) error
	created            []*model.Session
	deletedTokens      []string
	deletedUserIDs     []string
	deleteByTokenErr   error
	deleteExpiredCount int
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		if err := m.createFn(ctx, session); err != nil {
			return err
		}
	}
	m.created = append(m.created, session)
	return nil
}

func (m *mockSessionRepo) FindByToken(_ context.Context, token string) (*model.Session, error) {
	for _, s := range m.created {
		if s.Token == token {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByToken(_ context.Context, token string) error {
	m.deletedTokens = append(m.deletedTokens, token)
	return m.deleteByTokenErr
}

func (m *mockSessionRepo) DeleteByUserID(_ context.Context, userID string) ([]string, error) {
	m.deletedUserIDs = append(m.deletedUserIDs, userID)
	tokens := []string{}
	for _, s := range m.created {
		if s.UserID == userID {
			tokens = append(tokens, s.Token)
		}
	}
	return tokens, nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, _ time.Time) (int, error) {
	return m.deleteExpiredCount, nil
}

type mockInfluencerRepo struct {
	profiles  map[string]*model.InfluencerProfile
	createErr error
}

func (m *mockInfluencerRepo) FindByID(context.Context, string) (*model.InfluencerProfile, error) {
	return nil, nil
}

func (m *mockInfluencerRepo) FindByUserID(_ context.Context, userID string) (*model.InfluencerProfile, error) {
	return m.profiles[userID], nil
}

func (m *mockInfluencerRepo) FindByUserIDs(context.Context, []string) ([]model.InfluencerProfile, error) {
	return nil, nil
}

func (m *mockInfluencerRepo) FindAll(context.Context) ([]model.InfluencerProfile, error) {
	return nil, nil
}

func (m *mockInfluencerRepo) Count(context.Context) (int, error) { return len(m.profiles), nil }

func (m *mockInfluencerRepo) Create(_ context.Context, p *model.InfluencerProfile) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.profiles == nil {
		m.profiles = make(map[string]*model.InfluencerProfile)
	}
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockInfluencerRepo) Update(context.Context, *model.InfluencerProfile) error { return nil }

func (m *mockInfluencerRepo) DeleteByUserID(context.Context, string) error { return nil }

type mockBrandRepo struct {
	profiles  map[string]*model.BrandProfile
	createErr error
}

func (m *mockBrandRepo) FindByID(context.Context, string) (*model.BrandProfile, error) {
	return nil, nil
}

func (m *mockBrandRepo) FindByUserID(_ context.Context, userID string) (*model.BrandProfile, error) {
	return m.profiles[userID], nil
}

func (m *mockBrandRepo) FindByUserIDs(context.Context, []string) ([]model.BrandProfile, error) {
	return nil, nil
}

func (m *mockBrandRepo) FindAll(context.Context) ([]model.BrandProfile, error) { return nil, nil }

func (m *mockBrandRepo) Count(context.Context) (int, error) { return len(m.profiles), nil }

func (m *mockBrandRepo) Create(_ context.Context, p *model.BrandProfile) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.profiles == nil {
		m.profiles = make(map[string]*model.BrandProfile)
	}
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockBrandRepo) Update(context.Context, *model.BrandProfile) error { return nil }

func (m *mockBrandRepo) DeleteByUserID(context.Context, string) error { return nil }

type mockEvictor struct {
	evicted []string
}

func (m *mockEvictor) Evict(_ context.Context, token string) {
	m.evicted = append(m.evicted, token)
}

type mockSignupRecorder struct {
	outcomes []string
}

func (m *mockSignupRecorder) RecordSignup(role, outcome string) {
	m.outcomes = append(m.outcomes, role+"/"+outcome)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }
