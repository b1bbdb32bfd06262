package services

import (
	"context"
	"errors"
	"fmt"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/config"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"

	"gorm.io/gorm"
)

// OwnershipProof is what a successful verification hands to the next steps
type OwnershipProof struct {
	SaleID    uint
	Email     string
	FullName  string
	MatchedOn string // "generated" or "used"
}

// OwnershipVerifier checks that the presented ID number bought the sale behind a code
type OwnershipVerifier struct {
	saleRepo repositories.SaleRepository
	mode     string
}

// NewOwnershipVerifier creates a verifier.
// mode is config.OwnershipGenerated or config.OwnershipGeneratedOrUsed.
func NewOwnershipVerifier(saleRepo repositories.SaleRepository, mode string) *OwnershipVerifier {
	if mode != config.OwnershipGeneratedOrUsed {
		mode = config.OwnershipGenerated
	}
	return &OwnershipVerifier{
		saleRepo: saleRepo,
		mode:     mode,
	}
}

// Verify returns the owning sale's defaults when claimedIDNumber matches it
func (v *OwnershipVerifier) Verify(ctx context.Context, code, claimedIDNumber string) (*OwnershipProof, error) {
	sale, matchedOn, err := v.ownerSale(ctx, code)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: no sale for code", domain.ErrOwnershipMismatch)
	}
	if !identifier.SameIDNumber(claimedIDNumber, sale.IDNumber) {
		return nil, fmt.Errorf("%w: sale %d", domain.ErrOwnershipMismatch, sale.ID)
	}

	return &OwnershipProof{
		SaleID:    sale.ID,
		Email:     sale.Email,
		FullName:  sale.FullNameValue(),
		MatchedOn: matchedOn,
	}, nil
}

// ownerSale finds the sale that can vouch for code.
// The generated-code sale always wins; the used-code sale is only consulted in generated_or_used mode.
func (v *OwnershipVerifier) ownerSale(ctx context.Context, code string) (*models.SaleRecord, string, error) {
	sale, err := v.saleRepo.GetByGeneratedCode(ctx, code)
	if err == nil {
		return sale, "generated", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if v.mode != config.OwnershipGeneratedOrUsed {
		return nil, "", nil
	}

	sale, err = v.saleRepo.GetByUsedCode(ctx, code)
	if err == nil {
		return sale, "used", nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	return nil, "", nil
}
