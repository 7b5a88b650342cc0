// Package memrepo はテスト用のインメモリリポジトリを提供する。
//
// PostgreSQL実装と同じ「見つからない場合はnil」の規約に従う。
// 各メソッドにはErrフィールドで失敗を注入できる。
package memrepo

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/s4mp41xao/orihub/internal/model"
	"github.com/s4mp41xao/orihub/internal/repository"
)

// Store はユーザー、プロフィール、キャンペーンを保持するインメモリストア。
type Store struct {
	mu          sync.Mutex
	users       map[string]model.User
	influencers map[string]model.InfluencerProfile // key: profile ID
	brands      map[string]model.BrandProfile      // key: profile ID
	campaigns   map[string]model.Campaign
	accounts    map[string]model.Account // key: user ID
	sessions    map[string]model.Session // key: token

	// Err が設定されている場合、全ての操作がこのエラーを返す。
	Err error
}

// New は空のStoreを生成する。
func New() *Store {
	return &Store{
		users:       make(map[string]model.User),
		influencers: make(map[string]model.InfluencerProfile),
		brands:      make(map[string]model.BrandProfile),
		campaigns:   make(map[string]model.Campaign),
		accounts:    make(map[string]model.Account),
		sessions:    make(map[string]model.Session),
	}
}

// PutUser はユーザーを登録する。
func (s *Store) PutUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

// PutInfluencer はインフルエンサープロフィールを登録する。
func (s *Store) PutInfluencer(p model.InfluencerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.influencers[p.ID] = p
}

// PutBrand はブランドプロフィールを登録する。
func (s *Store) PutBrand(p model.BrandProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brands[p.ID] = p
}

// PutCampaign はキャンペーンを登録する。
func (s *Store) PutCampaign(c model.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.AssignedInfluencers == nil {
		c.AssignedInfluencers = []string{}
	}
	s.campaigns[c.ID] = c
}

// Users はUserRepositoryとしてのビューを返す。
func (s *Store) Users() *Users { return &Users{s: s} }

// Influencers はInfluencerRepositoryとしてのビューを返す。
func (s *Store) Influencers() *Influencers { return &Influencers{s: s} }

// Brands はBrandRepositoryとしてのビューを返す。
func (s *Store) Brands() *Brands { return &Brands{s: s} }

// Campaigns はCampaignRepositoryとしてのビューを返す。
func (s *Store) Campaigns() *Campaigns { return &Campaigns{s: s} }

// Accounts はAccountRepositoryとしてのビューを返す。
func (s *Store) Accounts() *Accounts { return &Accounts{s: s} }

// Sessions はSessionRepositoryとしてのビューを返す。
func (s *Store) Sessions() *Sessions { return &Sessions{s: s} }

// --- users ---

// Users はUserRepositoryのインメモリ実装。
type Users struct{ s *Store }

func (r *Users) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if u, ok := r.s.users[id]; ok {
		return &u, nil
	}
	return nil, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (r *Users) FindAll(_ context.Context) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *Users) CreateWithAccount(_ context.Context, user *model.User, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *user
	if account != nil {
		r.s.accounts[user.ID] = *account
	}
	return nil
}

func (r *Users) UpdateRole(_ context.Context, id string, role model.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return false, r.s.Err
	}
	u, ok := r.s.users[id]
	if !ok {
		return false, nil
	}
	u.Role = role
	r.s.users[id] = u
	return true, nil
}

// DeleteByID はユーザーと所有する資格情報、セッション、プロフィールを削除する。
func (r *Users) DeleteByID(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	delete(r.s.users, id)
	delete(r.s.accounts, id)
	for token, sess := range r.s.sessions {
		if sess.UserID == id {
			delete(r.s.sessions, token)
		}
	}
	for pid, p := range r.s.influencers {
		if p.UserID == id {
			delete(r.s.influencers, pid)
		}
	}
	for pid, p := range r.s.brands {
		if p.UserID == id {
			delete(r.s.brands, pid)
		}
	}
	return nil
}

// --- influencers ---

// Influencers はInfluencerRepositoryのインメモリ実装。
type Influencers struct{ s *Store }

func (r *Influencers) FindByID(_ context.Context, id string) (*model.InfluencerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if p, ok := r.s.influencers[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *Influencers) FindByUserID(_ context.Context, userID string) (*model.InfluencerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, p := range r.s.influencers {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *Influencers) FindByUserIDs(_ context.Context, userIDs []string) ([]model.InfluencerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.InfluencerProfile{}
	for _, p := range r.s.influencers {
		if slices.Contains(userIDs, p.UserID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Influencers) FindAll(_ context.Context) ([]model.InfluencerProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]model.InfluencerProfile, 0, len(r.s.influencers))
	for _, p := range r.s.influencers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Influencers) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return len(r.s.influencers), nil
}

func (r *Influencers) Create(_ context.Context, p *model.InfluencerProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	r.s.influencers[p.ID] = *p
	return nil
}

func (r *Influencers) Update(ctx context.Context, p *model.InfluencerProfile) error {
	return r.Create(ctx, p)
}

func (r *Influencers) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for id, p := range r.s.influencers {
		if p.UserID == userID {
			delete(r.s.influencers, id)
		}
	}
	return nil
}

// --- brands ---

// Brands はBrandRepositoryのインメモリ実装。
type Brands struct{ s *Store }

func (r *Brands) FindByID(_ context.Context, id string) (*model.BrandProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if p, ok := r.s.brands[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (r *Brands) FindByUserID(_ context.Context, userID string) (*model.BrandProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, p := range r.s.brands {
		if p.UserID == userID {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *Brands) FindByUserIDs(_ context.Context, userIDs []string) ([]model.BrandProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.BrandProfile{}
	for _, p := range r.s.brands {
		if slices.Contains(userIDs, p.UserID) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Brands) FindAll(_ context.Context) ([]model.BrandProfile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := make([]model.BrandProfile, 0, len(r.s.brands))
	for _, p := range r.s.brands {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *Brands) Count(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	return len(r.s.brands), nil
}

func (r *Brands) Create(_ context.Context, p *model.BrandProfile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	r.s.brands[p.ID] = *p
	return nil
}

func (r *Brands) Update(ctx context.Context, p *model.BrandProfile) error {
	return r.Create(ctx, p)
}

func (r *Brands) DeleteByUserID(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	for id, p := range r.s.brands {
		if p.UserID == userID {
			delete(r.s.brands, id)
		}
	}
	return nil
}

// --- campaigns ---

// Campaigns はCampaignRepositoryのインメモリ実装。
// 返却するキャンペーンはアサイン集合を複製したコピー。
type Campaigns struct{ s *Store }

func cloneCampaign(c model.Campaign) model.Campaign {
	c.AssignedInfluencers = slices.Clone(c.AssignedInfluencers)
	if c.AssignedInfluencers == nil {
		c.AssignedInfluencers = []string{}
	}
	return c
}

func (r *Campaigns) filter(match func(model.Campaign) bool) ([]model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	out := []model.Campaign{}
	for _, c := range r.s.campaigns {
		if match(c) {
			out = append(out, cloneCampaign(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *Campaigns) FindByID(_ context.Context, id string) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if c, ok := r.s.campaigns[id]; ok {
		copied := cloneCampaign(c)
		return &copied, nil
	}
	return nil, nil
}

func (r *Campaigns) FindAll(_ context.Context) ([]model.Campaign, error) {
	return r.filter(func(model.Campaign) bool { return true })
}

func (r *Campaigns) FindActive(_ context.Context) ([]model.Campaign, error) {
	return r.filter(func(c model.Campaign) bool { return c.Status == model.CampaignStatusActive })
}

func (r *Campaigns) FindByBrandID(_ context.Context, brandID string) ([]model.Campaign, error) {
	return r.filter(func(c model.Campaign) bool { return c.BrandID == brandID })
}

func (r *Campaigns) FindByInfluencer(_ context.Context, influencerID string) ([]model.Campaign, error) {
	return r.filter(func(c model.Campaign) bool { return c.HasInfluencer(influencerID) })
}

func (r *Campaigns) CountActive(ctx context.Context) (int, error) {
	active, err := r.FindActive(ctx)
	return len(active), err
}

func (r *Campaigns) Create(_ context.Context, c *model.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	r.s.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (r *Campaigns) Update(_ context.Context, c *model.Campaign) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	existing, ok := r.s.campaigns[c.ID]
	if !ok {
		return nil
	}
	updated := cloneCampaign(*c)
	updated.AssignedInfluencers = existing.AssignedInfluencers
	r.s.campaigns[c.ID] = updated
	return nil
}

func (r *Campaigns) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	delete(r.s.campaigns, id)
	return nil
}

func (r *Campaigns) AddInfluencer(_ context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	return r.mutate(campaignID, func(c *model.Campaign) {
		if !c.HasInfluencer(influencerID) {
			c.AssignedInfluencers = append(c.AssignedInfluencers, influencerID)
		}
	})
}

func (r *Campaigns) RemoveInfluencer(_ context.Context, campaignID, influencerID string) (*model.Campaign, error) {
	return r.mutate(campaignID, func(c *model.Campaign) {
		c.AssignedInfluencers = slices.DeleteFunc(c.AssignedInfluencers, func(id string) bool {
			return id == influencerID
		})
	})
}

func (r *Campaigns) mutate(campaignID string, fn func(*model.Campaign)) (*model.Campaign, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	c, ok := r.s.campaigns[campaignID]
	if !ok {
		return nil, nil
	}
	c = cloneCampaign(c)
	fn(&c)
	c.UpdatedAt = time.Now()
	r.s.campaigns[campaignID] = c
	copied := cloneCampaign(c)
	return &copied, nil
}

// --- accounts ---

// Accounts はAccountRepositoryのインメモリ実装。
type Accounts struct{ s *Store }

func (r *Accounts) FindCredentialByUserID(_ context.Context, userID string) (*model.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if a, ok := r.s.accounts[userID]; ok {
		return &a, nil
	}
	return nil, nil
}

func (r *Accounts) ReplaceCredential(_ context.Context, account *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	r.s.accounts[account.UserID] = *account
	return nil
}

// --- sessions ---

// Sessions はSessionRepositoryのインメモリ実装。
// FindByTokenは期限切れのセッションも返す。期限の判定は呼び出し側が行う。
type Sessions struct{ s *Store }

func (r *Sessions) Create(_ context.Context, sess *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	if _, ok := r.s.sessions[sess.Token]; ok {
		return repository.ErrDuplicate
	}
	r.s.sessions[sess.Token] = *sess
	return nil
}

func (r *Sessions) FindByToken(_ context.Context, token string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	if sess, ok := r.s.sessions[token]; ok {
		return &sess, nil
	}
	return nil, nil
}

func (r *Sessions) DeleteByToken(_ context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return r.s.Err
	}
	delete(r.s.sessions, token)
	return nil
}

func (r *Sessions) DeleteByUserID(_ context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return nil, r.s.Err
	}
	tokens := []string{}
	for token, sess := range r.s.sessions {
		if sess.UserID == userID {
			delete(r.s.sessions, token)
			tokens = append(tokens, token)
		}
	}
	return tokens, nil
}

func (r *Sessions) DeleteExpired(_ context.Context, before time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.Err != nil {
		return 0, r.s.Err
	}
	n := 0
	for token, sess := range r.s.sessions {
		if !sess.ExpiresAt.After(before) {
			delete(r.s.sessions, token)
			n++
		}
	}
	return n, nil
}

// SessionCount は保持しているセッション数を返す。
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// compile-time interface checks
var (
	_ repository.UserRepository       = (*Users)(nil)
	_ repository.InfluencerRepository = (*Influencers)(nil)
	_ repository.BrandRepository      = (*Brands)(nil)
	_ repository.CampaignRepository   = (*Campaigns)(nil)
	_ repository.AccountRepository    = (*Accounts)(nil)
	_ repository.SessionRepository    = (*Sessions)(nil)
)
