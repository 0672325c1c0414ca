package service

import (
	"context"
	"sync"
	"time"

	"zenithmedia_bot/internal/cryptopay"
	"zenithmedia_bot/internal/domain"
	"zenithmedia_bot/internal/repository"
)

// memStore is an in-memory stand-in for the pgx repositories. It mirrors
// their conditional-update semantics: status guards, balance guards and the
// commission applied together with the guarded flip.
type memStore struct {
	mu       sync.Mutex
	creators map[int64]*domain.Creator
	videos   map[int64]*domain.Video
	payouts  map[int64]*domain.PayoutRequest
	bySpend  map[string]int64

	nextPayoutID int64

	// commissions counts how many times a referral commission was applied
	commissions int
}

func newMemStore() *memStore {
	return &memStore{
		creators: make(map[int64]*domain.Creator),
		videos:   make(map[int64]*domain.Video),
		payouts:  make(map[int64]*domain.PayoutRequest),
		bySpend:  make(map[string]int64),
	}
}

func (m *memStore) addCreator(c *domain.Creator) *domain.Creator {
	m.creators[c.ID] = c
	return c
}

func (m *memStore) addVideo(v *domain.Video) *domain.Video {
	if v.Status == "" {
		v.Status = domain.VideoStatusPending
	}
	m.videos[v.ID] = v
	return v
}

// CreatorStore

func (m *memStore) GetByID(ctx context.Context, id int64) (*domain.Creator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetByTgID(ctx context.Context, tgID int64) (*domain.Creator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.creators {
		if c.TgID == tgID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) Create(ctx context.Context, c *domain.Creator) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.creators {
		if existing.TgID == c.TgID {
			return repository.ErrDuplicate
		}
	}
	c.ID = int64(len(m.creators) + 1)
	c.Tier = domain.TierBronze
	cp := *c
	m.creators[c.ID] = &cp
	return nil
}

func (m *memStore) SetTier(ctx context.Context, id int64, from, to domain.Tier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creators[id]
	if !ok || c.Tier != from {
		return repository.ErrAlreadyProcessed
	}
	c.Tier = to
	return nil
}

func (m *memStore) NextPayoutSeq(ctx context.Context, id int64) (int64, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creators[id]
	if !ok {
		return 0, 0, repository.ErrNotFound
	}
	c.PayoutSeq++
	return c.PayoutSeq, c.Balance, nil
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.creators)), nil
}

// VideoStore

func (m *memStore) GetVideoByID(ctx context.Context, id int64) (*domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	vp := *v
	return &vp, nil
}

func (m *memStore) Approve(ctx context.Context, id, earnings int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok || v.Status != domain.VideoStatusPending {
		return repository.ErrAlreadyProcessed
	}
	v.Status = domain.VideoStatusApproved
	v.Earnings = earnings
	return nil
}

func (m *memStore) Reject(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.videos[id]
	if !ok {
		return repository.ErrNotFound
	}
	if v.Status != domain.VideoStatusPending {
		return repository.ErrAlreadyProcessed
	}
	v.Status = domain.VideoStatusRejected
	return nil
}

// LedgerStore

func (m *memStore) CreditVideoEarnings(ctx context.Context, videoID, creatorID, amount, commission int64) (repository.CreditOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out repository.CreditOutcome
	v, ok := m.videos[videoID]
	if !ok || v.Status != domain.VideoStatusPending {
		return out, repository.ErrAlreadyProcessed
	}
	c, ok := m.creators[creatorID]
	if !ok {
		return out, repository.ErrNotFound
	}

	v.Status = domain.VideoStatusApproved
	v.Earnings = amount
	v.Credited = true

	c.Balance += amount
	out.NewBalance = c.Balance

	if c.ReferrerID > 0 && commission > 0 {
		m.creditReferrer(c.ReferrerID, commission)
		out.ReferrerID = c.ReferrerID
		out.CommissionApplied = commission
	}
	return out, nil
}

func (m *memStore) Debit(ctx context.Context, creatorID, amount int64, kind string, refID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.debit(creatorID, amount)
}

func (m *memStore) SetBalance(ctx context.Context, creatorID, amount int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creators[creatorID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	old := c.Balance
	c.Balance = amount
	return old, nil
}

func (m *memStore) debit(creatorID, amount int64) (int64, error) {
	c, ok := m.creators[creatorID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	if c.Balance < amount {
		return 0, repository.ErrInsufficientBalance
	}
	c.Balance -= amount
	c.TotalWithdrawn += amount
	return c.Balance, nil
}

func (m *memStore) creditReferrer(referrerID, commission int64) {
	if ref, ok := m.creators[referrerID]; ok {
		ref.Balance += commission
		ref.ReferralEarnings += commission
		m.commissions++
	}
}

// PayoutStore

func (m *memStore) CreateOrGet(ctx context.Context, p *domain.PayoutRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.bySpend[p.SpendKey]; ok {
		*p = *m.payouts[id]
		return true, nil
	}
	// Mirrors uq_payouts_open_balance: a second open balance request for the
	// same creator lands on the existing one.
	if p.VideoID == 0 {
		for _, q := range m.payouts {
			if q.CreatorID == p.CreatorID && q.VideoID == 0 && q.Status == domain.PayoutStatusPending {
				*p = *q
				return true, nil
			}
		}
	}
	m.nextPayoutID++
	p.ID = m.nextPayoutID
	p.Status = domain.PayoutStatusPending
	p.CreatedAt = time.Now()
	cp := *p
	m.payouts[p.ID] = &cp
	m.bySpend[p.SpendKey] = p.ID
	return false, nil
}

func (m *memStore) GetPayoutByID(ctx context.Context, id int64) (*domain.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	pp := *p
	return &pp, nil
}

func (m *memStore) GetBySpendKey(ctx context.Context, key string) (*domain.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySpend[key]
	if !ok {
		return nil, repository.ErrNotFound
	}
	pp := *m.payouts[id]
	return &pp, nil
}

func (m *memStore) GetPendingBalancePayout(ctx context.Context, creatorID int64) (*domain.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payouts {
		if p.CreatorID == creatorID && p.VideoID == 0 && p.Status == domain.PayoutStatusPending {
			pp := *p
			return &pp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) ListPending(ctx context.Context, limit int) ([]domain.PayoutRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PayoutRequest
	for _, p := range m.payouts {
		if p.Status == domain.PayoutStatusPending && len(out) < limit {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memStore) MarkPaidAndDebit(ctx context.Context, payoutID int64, transferRef string, amountUSDT float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[payoutID]
	if !ok || p.Status != domain.PayoutStatusPending {
		return repository.ErrAlreadyProcessed
	}
	if _, err := m.debit(p.CreatorID, p.AmountKop); err != nil {
		return err
	}
	p.Status = domain.PayoutStatusPaid
	p.TransferRef = transferRef
	p.AmountUSDT = amountUSDT
	now := time.Now()
	p.PaidAt = &now
	return nil
}

func (m *memStore) MarkPaidDirect(ctx context.Context, payoutID int64, transferRef string, amountUSDT float64, commission int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[payoutID]
	if !ok || p.Status != domain.PayoutStatusPending {
		return repository.ErrAlreadyProcessed
	}
	p.Status = domain.PayoutStatusPaid
	p.TransferRef = transferRef
	p.AmountUSDT = amountUSDT
	now := time.Now()
	p.PaidAt = &now

	if v, ok := m.videos[p.VideoID]; ok && v.Status == domain.VideoStatusApproved {
		v.Status = domain.VideoStatusPaidOut
	}
	c, ok := m.creators[p.CreatorID]
	if !ok {
		return repository.ErrNotFound
	}
	c.TotalWithdrawn += p.AmountKop
	if c.ReferrerID > 0 && commission > 0 {
		m.creditReferrer(c.ReferrerID, commission)
	}
	return nil
}

func (m *memStore) MarkFailed(ctx context.Context, id int64, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok || p.Status != domain.PayoutStatusPending {
		return repository.ErrAlreadyProcessed
	}
	p.Status = domain.PayoutStatusFailed
	p.Note = note
	return nil
}

func (m *memStore) MarkRejected(ctx context.Context, id, adminID int64, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok || p.Status != domain.PayoutStatusPending {
		return repository.ErrAlreadyProcessed
	}
	p.Status = domain.PayoutStatusRejected
	p.AdminID = adminID
	p.Note = note
	return nil
}

func (m *memStore) RecordAttempt(ctx context.Context, id int64, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Note = note
	now := time.Now()
	p.LastAttempt = &now
	return nil
}

// memVideos and memPayouts disambiguate the GetByID methods so one memStore
// can back every store interface at once.
type memVideos struct{ *memStore }

func (m memVideos) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	return m.GetVideoByID(ctx, id)
}

func (m memVideos) Create(ctx context.Context, v *domain.Video) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.videos {
		if existing.URL == v.URL {
			return repository.ErrDuplicate
		}
	}
	v.ID = int64(len(m.videos) + 1)
	v.Status = domain.VideoStatusPending
	cp := *v
	m.videos[v.ID] = &cp
	return nil
}

func (m memVideos) URLExists(ctx context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.videos {
		if v.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (m memVideos) ListByCreator(ctx context.Context, creatorID int64, limit int) ([]domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Video
	for _, v := range m.videos {
		if v.CreatorID == creatorID && len(out) < limit {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m memVideos) ListPendingModeration(ctx context.Context, limit int) ([]domain.Video, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Video
	for _, v := range m.videos {
		if v.Status == domain.VideoStatusPending && len(out) < limit {
			out = append(out, *v)
		}
	}
	return out, nil
}

type memPayouts struct{ *memStore }

func (m memPayouts) GetByID(ctx context.Context, id int64) (*domain.PayoutRequest, error) {
	return m.GetPayoutByID(ctx, id)
}

// fakeRail counts transfer submissions per spend key. Errors are consumed
// from the queue one per call; once the queue is empty calls succeed.
type fakeRail struct {
	mu      sync.Mutex
	calls   map[string]int
	errs    []error
	balance map[string]float64
	balErr  error
	nextID  int64
}

func newFakeRail() *fakeRail {
	return &fakeRail{
		calls:   make(map[string]int),
		balance: map[string]float64{"USDT": 1000},
	}
}

func (r *fakeRail) TransferSend(ctx context.Context, userID int64, asset string, amount float64, spendID string) (*cryptopay.Transfer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[spendID]++
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	r.nextID++
	return &cryptopay.Transfer{TransferID: r.nextID, SpendID: spendID, UserID: userID, Asset: asset, Status: "completed"}, nil
}

func (r *fakeRail) GetBalance(ctx context.Context) (map[string]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.balErr != nil {
		return nil, r.balErr
	}
	return r.balance, nil
}

func (r *fakeRail) totalCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

// rateFn adapts a func to RateSource
type rateFn func(ctx context.Context) (float64, error)

func (f rateFn) Rate(ctx context.Context) (float64, error) { return f(ctx) }

func fixedRate(v float64) rateFn {
	return func(ctx context.Context) (float64, error) { return v, nil }
}

// recordingAuditor captures audit events
type recordingAuditor struct {
	mu     sync.Mutex
	events []string
}

func (a *recordingAuditor) Audit(ctx context.Context, actorID int64, action, category string, details map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, action)
}
