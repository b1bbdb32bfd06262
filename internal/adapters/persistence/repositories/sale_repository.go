package repositories

import (
	"context"
	"errors"

	"affiliatehub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// saleRepository implements SaleRepository interface
// This is READ-ONLY access to the checkout pipeline's sample_sales table
type saleRepository struct {
	db *gorm.DB
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *gorm.DB) SaleRepository {
	return &saleRepository{db: db}
}

// GetByGeneratedCode gets the sale that generated code.
// A confirmed sale wins over earlier unconfirmed checkouts.
func (r *saleRepository) GetByGeneratedCode(ctx context.Context, code string) (*models.SaleRecord, error) {
	var sale models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("generated_code = ?", code).
		Order("payment_link_status DESC").
		Order("id ASC").
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// GetByUsedCode gets the first sale credited to code
func (r *saleRepository) GetByUsedCode(ctx context.Context, code string) (*models.SaleRecord, error) {
	var sale models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("used_code = ?", code).
		Order("id ASC").
		First(&sale).Error
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListConfirmedUsedCodes returns used_code for every confirmed sale, one entry per sale
func (r *saleRepository) ListConfirmedUsedCodes(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&models.SaleRecord{}).
		Where("payment_link_status = ?", true).
		Where("used_code IS NOT NULL").
		Where("used_code <> ''").
		Pluck("used_code", &codes).Error
	return codes, err
}

// ListNamedByGeneratedCodes returns sales generating one of codes that carry a buyer name
func (r *saleRepository) ListNamedByGeneratedCodes(ctx context.Context, codes []string) ([]*models.SaleRecord, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var sales []*models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("generated_code IN ?", codes).
		Where("full_name IS NOT NULL").
		Where("full_name <> ''").
		Order("id ASC").
		Find(&sales).Error
	return sales, err
}

// ListNamedByIDNumbers returns named sales for any spelling in idNumbers
func (r *saleRepository) ListNamedByIDNumbers(ctx context.Context, idNumbers []string) ([]*models.SaleRecord, error) {
	if len(idNumbers) == 0 {
		return nil, nil
	}
	var sales []*models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("cpf IN ?", idNumbers).
		Where("full_name IS NOT NULL").
		Where("full_name <> ''").
		Order("id ASC").
		Find(&sales).Error
	return sales, err
}

// GetByIDNumbers returns the first sale with a generated code for the first
// spelling in idNumbers that matches. Order of idNumbers is the priority order.
func (r *saleRepository) GetByIDNumbers(ctx context.Context, idNumbers []string) (*models.SaleRecord, error) {
	for _, idNumber := range idNumbers {
		var sale models.SaleRecord
		err := r.db.WithContext(ctx).
			Where("cpf = ?", idNumber).
			Where("generated_code IS NOT NULL").
			Order("id ASC").
			First(&sale).Error
		if err == nil {
			return &sale, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ListConfirmedByUsedCode lists confirmed sales credited to code, newest first
func (r *saleRepository) ListConfirmedByUsedCode(ctx context.Context, code string) ([]*models.SaleRecord, error) {
	var sales []*models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("used_code = ?", code).
		Where("payment_link_status = ?", true).
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

// ListLinkInitiatedByUsedCode lists sales credited to code whose payment link
// was created, whether or not payment was confirmed
func (r *saleRepository) ListLinkInitiatedByUsedCode(ctx context.Context, code string) ([]*models.SaleRecord, error) {
	var sales []*models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("used_code = ?", code).
		Where("payment_link_id IS NOT NULL").
		Order("created_at DESC").
		Find(&sales).Error
	return sales, err
}

// ListConfirmedGeneratedCodes pages through confirmed sales that generated a code
func (r *saleRepository) ListConfirmedGeneratedCodes(ctx context.Context, afterID uint, limit int) ([]*models.SaleRecord, error) {
	var sales []*models.SaleRecord
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Where("payment_link_status = ?", true).
		Where("generated_code IS NOT NULL").
		Where("generated_code <> ''").
		Order("id ASC").
		Limit(limit).
		Find(&sales).Error
	return sales, err
}
