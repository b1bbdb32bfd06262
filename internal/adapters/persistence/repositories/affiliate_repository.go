package repositories

import (
	"context"
	"strings"
	"time"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"

	"gorm.io/gorm"
)

// affiliateCodeRepository implements AffiliateCodeRepository interface
type affiliateCodeRepository struct {
	db *gorm.DB
}

// NewAffiliateCodeRepository creates a new affiliate code repository
func NewAffiliateCodeRepository(db *gorm.DB) AffiliateCodeRepository {
	return &affiliateCodeRepository{db: db}
}

// Create creates a new affiliate code
func (r *affiliateCodeRepository) Create(ctx context.Context, code *models.AffiliateCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// GetByCode gets an affiliate code by exact match
func (r *affiliateCodeRepository) GetByCode(ctx context.Context, code string) (*models.AffiliateCode, error) {
	var affiliate models.AffiliateCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&affiliate).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// GetByPrefix gets the first affiliate code starting with prefix
func (r *affiliateCodeRepository) GetByPrefix(ctx context.Context, prefix string) (*models.AffiliateCode, error) {
	var affiliate models.AffiliateCode
	escaped := strings.NewReplacer("%", "", "_", "").Replace(prefix)
	err := r.db.WithContext(ctx).
		Where("code LIKE ?", escaped+"%").
		Order("code ASC").
		First(&affiliate).Error
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// ActivateIfInactive performs a compare-and-swap on status
func (r *affiliateCodeRepository) ActivateIfInactive(ctx context.Context, id string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.AffiliateCode{}).
		Where("id = ?", id).
		Where("status = ?", domain.CodeStatusInactive).
		Updates(map[string]interface{}{
			"status":       domain.CodeStatusActive,
			"activated_at": &now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ExistingCodes returns which of codes already have a row
func (r *affiliateCodeRepository) ExistingCodes(ctx context.Context, codes []string) ([]string, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var existing []string
	err := r.db.WithContext(ctx).
		Model(&models.AffiliateCode{}).
		Where("code IN ?", codes).
		Pluck("code", &existing).Error
	return existing, err
}
