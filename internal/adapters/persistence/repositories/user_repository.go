package repositories

import (
	"context"
	"errors"

	"affiliatehub/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// userAccountRepository implements UserAccountRepository interface
type userAccountRepository struct {
	db *gorm.DB
}

// NewUserAccountRepository creates a new user account repository
func NewUserAccountRepository(db *gorm.DB) UserAccountRepository {
	return &userAccountRepository{db: db}
}

// Upsert inserts the account or updates email, cpf and affiliate_code when the id exists.
// created_at keeps its first value.
func (r *userAccountRepository) Upsert(ctx context.Context, account *models.UserAccount) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "cpf", "affiliate_code"}),
		}).
		Create(account).Error
}

// GetByID gets an account by identity id
func (r *userAccountRepository) GetByID(ctx context.Context, id string) (*models.UserAccount, error) {
	var account models.UserAccount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByEmail gets an account by email
func (r *userAccountRepository) GetByEmail(ctx context.Context, email string) (*models.UserAccount, error) {
	var account models.UserAccount
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByIDNumbers gets the account for the first spelling in idNumbers that matches
func (r *userAccountRepository) GetByIDNumbers(ctx context.Context, idNumbers []string) (*models.UserAccount, error) {
	for _, idNumber := range idNumbers {
		var account models.UserAccount
		err := r.db.WithContext(ctx).Where("cpf = ?", idNumber).First(&account).Error
		if err == nil {
			return &account, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ListByAffiliateCodes lists accounts linked to any of codes
func (r *userAccountRepository) ListByAffiliateCodes(ctx context.Context, codes []string) ([]*models.UserAccount, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	var accounts []*models.UserAccount
	err := r.db.WithContext(ctx).
		Where("affiliate_code IN ?", codes).
		Order("created_at ASC").
		Find(&accounts).Error
	return accounts, err
}
