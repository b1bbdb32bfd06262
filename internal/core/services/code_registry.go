package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CodeRegistry looks up affiliate codes and provisions missing ones from confirmed sales
type CodeRegistry struct {
	codeRepo repositories.AffiliateCodeRepository
	saleRepo repositories.SaleRepository
}

// NewCodeRegistry creates a new code registry
func NewCodeRegistry(codeRepo repositories.AffiliateCodeRepository, saleRepo repositories.SaleRepository) *CodeRegistry {
	return &CodeRegistry{
		codeRepo: codeRepo,
		saleRepo: saleRepo,
	}
}

// Resolve returns the inactive code row for code, creating it when a
// confirmed sale generated the code but no row exists yet.
func (r *CodeRegistry) Resolve(ctx context.Context, code string) (*models.AffiliateCode, error) {
	affiliate, err := r.codeRepo.GetByCode(ctx, code)
	if err == nil {
		if !affiliate.IsInactive() {
			return nil, fmt.Errorf("%w: status %s", domain.ErrCodeAlreadyActive, affiliate.Status)
		}
		return affiliate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	sale, err := r.saleRepo.GetByGeneratedCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no sale generated it", domain.ErrCodeNotEligible)
		}
		return nil, err
	}
	if !sale.Confirmed {
		return nil, fmt.Errorf("%w: sale %d not confirmed", domain.ErrCodeNotEligible, sale.ID)
	}

	return r.provision(ctx, code, sale.ID)
}

// provision creates an inactive code row linked to saleID.
// A concurrent creator winning the unique index is not an error.
func (r *CodeRegistry) provision(ctx context.Context, code string, saleID uint) (*models.AffiliateCode, error) {
	affiliate := &models.AffiliateCode{
		ID:           uuid.New().String(),
		Code:         code,
		Status:       domain.CodeStatusInactive,
		LinkedSaleID: &saleID,
	}
	if err := r.codeRepo.Create(ctx, affiliate); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		existing, getErr := r.codeRepo.GetByCode(ctx, code)
		if getErr != nil {
			return nil, getErr
		}
		if !existing.IsInactive() {
			return nil, fmt.Errorf("%w: status %s", domain.ErrCodeAlreadyActive, existing.Status)
		}
		return existing, nil
	}

	log.Printf("✅ Affiliate code %s provisioned from sale %d", code, saleID)
	return affiliate, nil
}

// SweepSales provisions inactive codes for every confirmed sale whose
// generated code has no row yet. Sales are read batchSize at a time.
func (r *CodeRegistry) SweepSales(ctx context.Context, batchSize int) (int, error) {
	if batchSize < 1 {
		batchSize = 50
	}

	created := 0
	var afterID uint
	for {
		sales, err := r.saleRepo.ListConfirmedGeneratedCodes(ctx, afterID, batchSize)
		if err != nil {
			return created, err
		}
		if len(sales) == 0 {
			return created, nil
		}
		afterID = sales[len(sales)-1].ID

		missing, err := r.missingCodes(ctx, sales)
		if err != nil {
			return created, err
		}
		for _, sale := range missing {
			if _, err := r.provision(ctx, sale.GeneratedCodeValue(), sale.ID); err != nil {
				if errors.Is(err, domain.ErrCodeAlreadyActive) {
					continue
				}
				return created, err
			}
			created++
		}

		if len(sales) < batchSize {
			return created, nil
		}
	}
}

// missingCodes returns the first sale per generated code lacking a code row
func (r *CodeRegistry) missingCodes(ctx context.Context, sales []*models.SaleRecord) ([]*models.SaleRecord, error) {
	codes := make([]string, 0, len(sales))
	for _, sale := range sales {
		codes = append(codes, sale.GeneratedCodeValue())
	}
	existing, err := r.codeRepo.ExistingCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(existing))
	for _, code := range existing {
		seen[code] = true
	}

	var missing []*models.SaleRecord
	for _, sale := range sales {
		code := sale.GeneratedCodeValue()
		if seen[code] {
			continue
		}
		seen[code] = true
		missing = append(missing, sale)
	}
	return missing, nil
}
