package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"affiliatehub/internal/adapters/identity"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"

	"gorm.io/gorm"
)

// AffiliateSales is the dashboard view of one affiliate's sales
type AffiliateSales struct {
	Sales         []*models.SaleRecord
	AffiliateCode string
	UserName      string
}

// SalesService resolves an identity's code and lists the sales credited to it
type SalesService struct {
	accountRepo repositories.UserAccountRepository
	saleRepo    repositories.SaleRepository
	provider    identity.Provider
}

// NewSalesService creates a new sales service
func NewSalesService(
	accountRepo repositories.UserAccountRepository,
	saleRepo repositories.SaleRepository,
	provider identity.Provider,
) *SalesService {
	return &SalesService{
		accountRepo: accountRepo,
		saleRepo:    saleRepo,
		provider:    provider,
	}
}

// codeSource is one way of finding the caller's code
type codeSource func(ctx context.Context, s *SalesService, owner *codeOwner) (string, error)

// codeOwner collects what is known about the caller while sources run
type codeOwner struct {
	userID   string
	account  *models.UserAccount
	identity *models.Identity
	sale     *models.SaleRecord
}

func (o *codeOwner) idNumber() string {
	if o.account != nil && o.account.IDNumber != "" {
		return o.account.IDNumber
	}
	if o.identity != nil {
		return o.identity.Meta().IDNumber
	}
	return ""
}

var codeSources = []codeSource{codeFromAccount, codeFromIdentity, codeFromIDNumberSale}

// ListForUser returns the sales credited to userID's code, newest first.
// An empty AffiliateCode means no code could be resolved.
func (s *SalesService) ListForUser(ctx context.Context, userID string) (*AffiliateSales, error) {
	owner := &codeOwner{userID: userID}

	code := ""
	for _, source := range codeSources {
		found, err := source(ctx, s, owner)
		if err != nil {
			return nil, err
		}
		if found = strings.TrimSpace(found); found != "" {
			code = found
			break
		}
	}
	if code == "" {
		return &AffiliateSales{Sales: []*models.SaleRecord{}}, nil
	}

	confirmed, err := s.saleRepo.ListConfirmedByUsedCode(ctx, code)
	if err != nil {
		return nil, err
	}
	initiated, err := s.saleRepo.ListLinkInitiatedByUsedCode(ctx, code)
	if err != nil {
		return nil, err
	}

	return &AffiliateSales{
		Sales:         MergeSales(confirmed, initiated),
		AffiliateCode: code,
		UserName:      s.userName(ctx, code, owner),
	}, nil
}

func codeFromAccount(ctx context.Context, s *SalesService, owner *codeOwner) (string, error) {
	account, err := s.accountRepo.GetByID(ctx, owner.userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	owner.account = account
	return account.AffiliateCodeValue(), nil
}

func codeFromIdentity(ctx context.Context, s *SalesService, owner *codeOwner) (string, error) {
	principal, err := s.provider.GetUserByID(ctx, owner.userID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return "", nil
		}
		return "", err
	}
	owner.identity = principal
	return principal.Meta().AffiliateCode, nil
}

func codeFromIDNumberSale(ctx context.Context, s *SalesService, owner *codeOwner) (string, error) {
	variants := identifier.IDNumberVariants(owner.idNumber())
	if len(variants) == 0 {
		return "", nil
	}
	sale, err := s.saleRepo.GetByIDNumbers(ctx, variants)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	owner.sale = sale
	return sale.GeneratedCodeValue(), nil
}

// userName prefers the buyer name of the sale that generated code
func (s *SalesService) userName(ctx context.Context, code string, owner *codeOwner) string {
	if owner.sale != nil && owner.sale.FullNameValue() != "" {
		return owner.sale.FullNameValue()
	}
	if sale, err := s.saleRepo.GetByGeneratedCode(ctx, code); err == nil && sale.FullNameValue() != "" {
		return sale.FullNameValue()
	}
	if owner.identity != nil && owner.identity.Meta().FullName != "" {
		return owner.identity.Meta().FullName
	}
	return ""
}

// MergeSales unions the lists by sale id and sorts newest first
func MergeSales(lists ...[]*models.SaleRecord) []*models.SaleRecord {
	seen := make(map[uint]bool)
	merged := []*models.SaleRecord{}
	for _, list := range lists {
		for _, sale := range list {
			if seen[sale.ID] {
				continue
			}
			seen[sale.ID] = true
			merged = append(merged, sale)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].CreatedAt.Equal(merged[j].CreatedAt) {
			return merged[i].ID > merged[j].ID
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
