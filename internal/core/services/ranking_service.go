package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"

	"github.com/shopspring/decimal"
)

// RankingService builds the public leaderboard from confirmed sales
type RankingService struct {
	saleRepo    repositories.SaleRepository
	accountRepo repositories.UserAccountRepository
	commission  decimal.Decimal
	limit       int
	batchSize   int
}

// NewRankingService creates a new ranking service
func NewRankingService(
	saleRepo repositories.SaleRepository,
	accountRepo repositories.UserAccountRepository,
	commission decimal.Decimal,
	limit int,
	batchSize int,
) *RankingService {
	if limit < 1 {
		limit = 100
	}
	if batchSize < 1 {
		batchSize = 50
	}
	return &RankingService{
		saleRepo:    saleRepo,
		accountRepo: accountRepo,
		commission:  commission,
		limit:       limit,
		batchSize:   batchSize,
	}
}

// Ranking returns the top affiliates by confirmed sale count
func (s *RankingService) Ranking(ctx context.Context) ([]domain.RankingEntry, error) {
	usedCodes, err := s.saleRepo.ListConfirmedUsedCodes(ctx)
	if err != nil {
		return nil, err
	}

	counts := CountSalesByCode(usedCodes)
	if len(counts) == 0 {
		return []domain.RankingEntry{}, nil
	}

	// Rank on counts alone, then name only the top entries
	entries := make([]domain.RankingEntry, 0, len(counts))
	for code, count := range counts {
		entries = append(entries, domain.RankingEntry{Code: code, SaleCount: count})
	}
	SortRanking(entries)
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		codes = append(codes, entry.Code)
	}

	i := 0
	for _, batch := range chunk(codes, s.batchSize) {
		lookups, err := s.loadLookups(ctx, batch)
		if err != nil {
			return nil, err
		}
		for _, code := range batch {
			entries[i] = s.buildEntry(code, counts[code], lookups)
			i++
		}
	}
	return entries, nil
}

func (s *RankingService) buildEntry(code string, count int, lookups *nameLookups) domain.RankingEntry {
	entry := domain.RankingEntry{
		Code:      code,
		SaleCount: count,
		Revenue:   s.commission.Mul(decimal.NewFromInt(int64(count))),
	}
	name, idNumber, source := resolveDisplayName(code, lookups)
	entry.DisplayName = name
	entry.IDNumber = idNumber
	entry.NameSource = source
	return entry
}

// loadLookups prefetches everything the name strategies need for one batch.
// Queries run one after another.
func (s *RankingService) loadLookups(ctx context.Context, codes []string) (*nameLookups, error) {
	lookups := newNameLookups()

	generated, err := s.saleRepo.ListNamedByGeneratedCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	for _, sale := range generated {
		code := sale.GeneratedCodeValue()
		if _, ok := lookups.generatedSales[code]; !ok {
			lookups.generatedSales[code] = sale
		}
	}

	var pending []string
	for _, code := range codes {
		if _, ok := lookups.generatedSales[code]; !ok {
			pending = append(pending, code)
		}
	}
	if len(pending) == 0 {
		return lookups, nil
	}

	accounts, err := s.accountRepo.ListByAffiliateCodes(ctx, pending)
	if err != nil {
		return nil, err
	}
	var idNumbers []string
	for _, account := range accounts {
		code := account.AffiliateCodeValue()
		if _, ok := lookups.accounts[code]; ok {
			continue
		}
		lookups.accounts[code] = account
		idNumbers = append(idNumbers, identifier.IDNumberVariants(account.IDNumber)...)
	}
	if len(idNumbers) == 0 {
		return lookups, nil
	}

	named, err := s.saleRepo.ListNamedByIDNumbers(ctx, idNumbers)
	if err != nil {
		return nil, err
	}
	for _, sale := range named {
		key := identifier.NormalizeIDNumber(sale.IDNumber)
		if _, ok := lookups.namedByIDNumber[key]; !ok {
			lookups.namedByIDNumber[key] = sale
		}
	}
	return lookups, nil
}

// ============================================================
// Pure helpers
// ============================================================

// CountSalesByCode counts one per entry, ignoring blanks
func CountSalesByCode(usedCodes []string) map[string]int {
	counts := make(map[string]int)
	for _, code := range usedCodes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		counts[code]++
	}
	return counts
}

// SortRanking orders by sale count descending, then code ascending
func SortRanking(entries []domain.RankingEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].SaleCount != entries[j].SaleCount {
			return entries[i].SaleCount > entries[j].SaleCount
		}
		return entries[i].Code < entries[j].Code
	})
}

// PlaceholderName is shown for codes whose owner cannot be named
func PlaceholderName(code string) string {
	prefix := []rune(code)
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("Afiliado %s...", string(prefix))
}

func chunk(values []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		out = append(out, values[start:end])
	}
	return out
}

// ============================================================
// Name strategies
// ============================================================

// nameLookups holds the prefetched rows for one batch of codes
type nameLookups struct {
	generatedSales  map[string]*models.SaleRecord  // by generated code
	accounts        map[string]*models.UserAccount // by affiliate code
	namedByIDNumber map[string]*models.SaleRecord  // by normalized ID number
}

func newNameLookups() *nameLookups {
	return &nameLookups{
		generatedSales:  map[string]*models.SaleRecord{},
		accounts:        map[string]*models.UserAccount{},
		namedByIDNumber: map[string]*models.SaleRecord{},
	}
}

// nameStrategy returns a display name and the owner's ID number when it can
type nameStrategy struct {
	source  string
	resolve func(code string, l *nameLookups) (name, idNumber string, ok bool)
}

// nameStrategies in priority order; the first hit wins
var nameStrategies = []nameStrategy{
	{domain.NameFromGeneratedSale, nameFromGeneratedSale},
	{domain.NameFromAccountSale, nameFromAccountSale},
	{domain.NameFromAccountEmail, nameFromAccountEmail},
}

// resolveDisplayName applies the strategies and falls back to a placeholder
func resolveDisplayName(code string, l *nameLookups) (name, idNumber, source string) {
	for _, strategy := range nameStrategies {
		if name, idNumber, ok := strategy.resolve(code, l); ok {
			return name, idNumber, strategy.source
		}
	}

	// The owner's ID number may still be known without a name
	if sale, ok := l.generatedSales[code]; ok {
		idNumber = sale.IDNumber
	} else if account, ok := l.accounts[code]; ok {
		idNumber = account.IDNumber
	}
	return PlaceholderName(code), idNumber, domain.NameFromPlaceholder
}

func nameFromGeneratedSale(code string, l *nameLookups) (string, string, bool) {
	sale, ok := l.generatedSales[code]
	if !ok || strings.TrimSpace(sale.FullNameValue()) == "" {
		return "", "", false
	}
	return strings.TrimSpace(sale.FullNameValue()), sale.IDNumber, true
}

func nameFromAccountSale(code string, l *nameLookups) (string, string, bool) {
	account, ok := l.accounts[code]
	if !ok || account.IDNumber == "" {
		return "", "", false
	}
	sale, ok := l.namedByIDNumber[identifier.NormalizeIDNumber(account.IDNumber)]
	if !ok || strings.TrimSpace(sale.FullNameValue()) == "" {
		return "", "", false
	}
	return strings.TrimSpace(sale.FullNameValue()), account.IDNumber, true
}

func nameFromAccountEmail(code string, l *nameLookups) (string, string, bool) {
	account, ok := l.accounts[code]
	if !ok {
		return "", "", false
	}
	local := emailLocalPart(account.Email)
	if local == "" {
		return "", "", false
	}
	return local, account.IDNumber, true
}

func emailLocalPart(email string) string {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	return email[:at]
}
