package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"affiliatehub/internal/adapters/identity"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/password"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func strPtr(s string) *string { return &s }

// ============================================================
// Affiliate codes
// ============================================================

type fakeCodeRepo struct {
	mu        sync.Mutex
	byCode    map[string]*models.AffiliateCode
	creates   int
	createErr error
	swapErr   error
}

func newFakeCodeRepo(codes ...*models.AffiliateCode) *fakeCodeRepo {
	r := &fakeCodeRepo{byCode: map[string]*models.AffiliateCode{}}
	for _, c := range codes {
		r.byCode[c.Code] = c
	}
	return r
}

func (r *fakeCodeRepo) Create(_ context.Context, code *models.AffiliateCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byCode[code.Code]; ok {
		return gorm.ErrDuplicatedKey
	}
	r.creates++
	cp := *code
	r.byCode[code.Code] = &cp
	return nil
}

func (r *fakeCodeRepo) GetByCode(_ context.Context, code string) (*models.AffiliateCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byCode[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCodeRepo) GetByPrefix(_ context.Context, prefix string) (*models.AffiliateCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for k := range r.byCode {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Strings(keys)
	cp := *r.byCode[keys[0]]
	return &cp, nil
}

func (r *fakeCodeRepo) ActivateIfInactive(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.swapErr != nil {
		return false, r.swapErr
	}
	for _, c := range r.byCode {
		if c.ID == id && c.Status == domain.CodeStatusInactive {
			now := time.Now()
			c.Status = domain.CodeStatusActive
			c.ActivatedAt = &now
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCodeRepo) ExistingCodes(_ context.Context, codes []string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, c := range codes {
		if _, ok := r.byCode[c]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCodeRepo) status(code string) domain.CodeStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.byCode[code]; ok {
		return c.Status
	}
	return ""
}

// ============================================================
// Sales
// ============================================================

type fakeSaleRepo struct {
	sales []*models.SaleRecord
	// calls counts lookups so tests can assert batching and "no store access"
	calls map[string]int
	// codes passed to ListNamedByGeneratedCodes
	namedLookups []string
}

func newFakeSaleRepo(sales ...*models.SaleRecord) *fakeSaleRepo {
	for i, s := range sales {
		if s.ID == 0 {
			s.ID = uint(i + 1)
		}
	}
	return &fakeSaleRepo{sales: sales, calls: map[string]int{}}
}

func (r *fakeSaleRepo) first(match func(*models.SaleRecord) bool) (*models.SaleRecord, error) {
	for _, s := range r.sales {
		if match(s) {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) GetByGeneratedCode(_ context.Context, code string) (*models.SaleRecord, error) {
	r.calls["GetByGeneratedCode"]++
	if sale, err := r.first(func(s *models.SaleRecord) bool { return s.GeneratedCodeValue() == code && s.Confirmed }); err == nil {
		return sale, nil
	}
	return r.first(func(s *models.SaleRecord) bool { return s.GeneratedCodeValue() == code })
}

func (r *fakeSaleRepo) GetByUsedCode(_ context.Context, code string) (*models.SaleRecord, error) {
	r.calls["GetByUsedCode"]++
	return r.first(func(s *models.SaleRecord) bool { return s.UsedCodeValue() == code })
}

func (r *fakeSaleRepo) ListConfirmedUsedCodes(_ context.Context) ([]string, error) {
	r.calls["ListConfirmedUsedCodes"]++
	var out []string
	for _, s := range r.sales {
		if s.Confirmed && s.UsedCodeValue() != "" {
			out = append(out, s.UsedCodeValue())
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) ListNamedByGeneratedCodes(_ context.Context, codes []string) ([]*models.SaleRecord, error) {
	r.calls["ListNamedByGeneratedCodes"]++
	r.namedLookups = append(r.namedLookups, codes...)
	set := toSet(codes)
	var out []*models.SaleRecord
	for _, s := range r.sales {
		if set[s.GeneratedCodeValue()] && s.FullNameValue() != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) ListNamedByIDNumbers(_ context.Context, idNumbers []string) ([]*models.SaleRecord, error) {
	r.calls["ListNamedByIDNumbers"]++
	set := toSet(idNumbers)
	var out []*models.SaleRecord
	for _, s := range r.sales {
		if set[s.IDNumber] && s.FullNameValue() != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSaleRepo) GetByIDNumbers(_ context.Context, idNumbers []string) (*models.SaleRecord, error) {
	r.calls["GetByIDNumbers"]++
	for _, id := range idNumbers {
		sale, err := r.first(func(s *models.SaleRecord) bool { return s.IDNumber == id && s.GeneratedCode != nil })
		if err == nil {
			return sale, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) filterByUsedCode(code string, keep func(*models.SaleRecord) bool) []*models.SaleRecord {
	var out []*models.SaleRecord
	for _, s := range r.sales {
		if s.UsedCodeValue() == code && keep(s) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *fakeSaleRepo) ListConfirmedByUsedCode(_ context.Context, code string) ([]*models.SaleRecord, error) {
	return r.filterByUsedCode(code, func(s *models.SaleRecord) bool { return s.Confirmed }), nil
}

func (r *fakeSaleRepo) ListLinkInitiatedByUsedCode(_ context.Context, code string) ([]*models.SaleRecord, error) {
	return r.filterByUsedCode(code, func(s *models.SaleRecord) bool { return s.PaymentLinkID != nil }), nil
}

func (r *fakeSaleRepo) ListConfirmedGeneratedCodes(_ context.Context, afterID uint, limit int) ([]*models.SaleRecord, error) {
	r.calls["ListConfirmedGeneratedCodes"]++
	var out []*models.SaleRecord
	for _, s := range r.sales {
		if s.ID > afterID && s.Confirmed && s.GeneratedCodeValue() != "" {
			out = append(out, s)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// ============================================================
// Accounts
// ============================================================

type fakeAccountRepo struct {
	mu        sync.Mutex
	byID      map[string]*models.UserAccount
	upsertErr error
	upserts   int
}

func newFakeAccountRepo(accounts ...*models.UserAccount) *fakeAccountRepo {
	r := &fakeAccountRepo{byID: map[string]*models.UserAccount{}}
	for _, a := range accounts {
		r.byID[a.ID] = a
	}
	return r
}

func (r *fakeAccountRepo) Upsert(_ context.Context, account *models.UserAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts++
	cp := *account
	if existing, ok := r.byID[account.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	r.byID[account.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byID[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) GetByIDNumbers(_ context.Context, idNumbers []string) (*models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range idNumbers {
		for _, a := range r.byID {
			if a.IDNumber == id {
				return a, nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAccountRepo) ListByAffiliateCodes(_ context.Context, codes []string) ([]*models.UserAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := toSet(codes)
	var out []*models.UserAccount
	for _, a := range r.byID {
		if set[a.AffiliateCodeValue()] {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeAccountRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// ============================================================
// Identity provider
// ============================================================

type fakeProvider struct {
	mu          sync.Mutex
	identities  []*models.Identity
	createErr   error
	listErr     error
	creates     int
	metaUpdates int
}

func newFakeProvider(identities ...*models.Identity) *fakeProvider {
	return &fakeProvider{identities: identities}
}

func (p *fakeProvider) CreateUser(_ context.Context, input identity.CreateInput) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.createErr != nil {
		return nil, p.createErr
	}
	for _, i := range p.identities {
		if strings.EqualFold(i.Email, input.Email) {
			return nil, domain.ErrIdentityAlreadyExists
		}
	}
	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	created := &models.Identity{ID: uuid.New().String(), Email: strings.ToLower(input.Email), PasswordHash: hash}
	created.Metadata = datatypes.NewJSONType(input.Metadata)
	p.identities = append(p.identities, created)
	p.creates++
	return created, nil
}

func (p *fakeProvider) ListUsers(_ context.Context, page, perPage int) ([]*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.listErr != nil {
		return nil, p.listErr
	}
	start := (page - 1) * perPage
	if start >= len(p.identities) {
		return nil, nil
	}
	end := start + perPage
	if end > len(p.identities) {
		end = len(p.identities)
	}
	return p.identities[start:end], nil
}

func (p *fakeProvider) GetUserByID(_ context.Context, id string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, i := range p.identities {
		if i.ID == id {
			return i, nil
		}
	}
	return nil, domain.ErrIdentityNotFound
}

func (p *fakeProvider) UpdateUserMetadata(_ context.Context, id string, metadata models.IdentityMetadata) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, i := range p.identities {
		if i.ID == id {
			i.Metadata = datatypes.NewJSONType(identity.MergeMetadata(i.Meta(), metadata))
			p.metaUpdates++
			return nil
		}
	}
	return domain.ErrIdentityNotFound
}

func (p *fakeProvider) SignInWithPassword(_ context.Context, email, plain string) (*models.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, i := range p.identities {
		if strings.EqualFold(i.Email, email) && password.Verify(plain, i.PasswordHash) {
			return i, nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

// ============================================================
// Refresh tokens & withdrawals
// ============================================================

type fakeTokenRepo struct {
	mu     sync.Mutex
	tokens []*models.RefreshToken
}

func (r *fakeTokenRepo) Create(_ context.Context, token *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.ID = uint(len(r.tokens) + 1)
	r.tokens = append(r.tokens, token)
	return nil
}

func (r *fakeTokenRepo) GetByTokenHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash && t.RevokedAt == nil {
			return t, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTokenRepo) Revoke(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.ID == id {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.TokenHash == tokenHash {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllByUserID(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*models.RefreshToken
	var deleted int64
	for _, t := range r.tokens {
		if t.IsExpired() {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	r.tokens = kept
	return deleted, nil
}

type fakeWithdrawalRepo struct {
	balance    *domain.Balance
	history    []*models.Withdrawal
	requestErr error
	requested  []domain.WithdrawalRequest
}

func (r *fakeWithdrawalRepo) GetBalance(_ context.Context, _ string) (*domain.Balance, error) {
	if r.balance == nil {
		return &domain.Balance{}, nil
	}
	return r.balance, nil
}

func (r *fakeWithdrawalRepo) RequestWithdrawal(_ context.Context, _ string, input domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error) {
	if r.requestErr != nil {
		return nil, r.requestErr
	}
	r.requested = append(r.requested, input)
	return &domain.WithdrawalReceipt{WithdrawalID: "1", Amount: input.Amount, Status: "pending"}, nil
}

func (r *fakeWithdrawalRepo) ListByUserID(_ context.Context, _ string, limit, offset int) ([]*models.Withdrawal, int64, error) {
	total := int64(len(r.history))
	if offset >= len(r.history) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(r.history) {
		end = len(r.history)
	}
	return r.history[offset:end], total, nil
}

var errStoreDown = errors.New("store unavailable")

var fiveReais = decimal.RequireFromString("5.00")
