package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"

	"gorm.io/gorm"
)

// CodeService answers whether a code exists
type CodeService struct {
	codeRepo repositories.AffiliateCodeRepository
}

// NewCodeService creates a new code service
func NewCodeService(codeRepo repositories.AffiliateCodeRepository) *CodeService {
	return &CodeService{codeRepo: codeRepo}
}

// Validate finds code by exact match, then as a prefix of a longer stored code
func (s *CodeService) Validate(ctx context.Context, code string) (*models.AffiliateCode, error) {
	code = strings.TrimSpace(code)
	if !identifier.IsValidActivationCode(code) {
		return nil, fmt.Errorf("%w: code must have 6 digits", domain.ErrInvalidInput)
	}

	affiliate, err := s.codeRepo.GetByCode(ctx, code)
	if err == nil {
		return affiliate, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	affiliate, err = s.codeRepo.GetByPrefix(ctx, code)
	if err == nil {
		return affiliate, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCodeNotFound
	}
	return nil, err
}
