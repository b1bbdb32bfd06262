package repositories

import (
	"context"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"
)

// AffiliateCodeRepository defines affiliate code repository interface
type AffiliateCodeRepository interface {
	Create(ctx context.Context, code *models.AffiliateCode) error
	GetByCode(ctx context.Context, code string) (*models.AffiliateCode, error)
	GetByPrefix(ctx context.Context, prefix string) (*models.AffiliateCode, error)
	// ActivateIfInactive flips status to active only while it is still
	// inactive. It returns false when another request got there first.
	ActivateIfInactive(ctx context.Context, id string) (bool, error)
	ExistingCodes(ctx context.Context, codes []string) ([]string, error)
}

// SaleRepository defines sale repository interface
// Read-only access to sample_sales
type SaleRepository interface {
	GetByGeneratedCode(ctx context.Context, code string) (*models.SaleRecord, error)
	GetByUsedCode(ctx context.Context, code string) (*models.SaleRecord, error)
	ListConfirmedUsedCodes(ctx context.Context) ([]string, error)
	ListNamedByGeneratedCodes(ctx context.Context, codes []string) ([]*models.SaleRecord, error)
	ListNamedByIDNumbers(ctx context.Context, idNumbers []string) ([]*models.SaleRecord, error)
	GetByIDNumbers(ctx context.Context, idNumbers []string) (*models.SaleRecord, error)
	ListConfirmedByUsedCode(ctx context.Context, code string) ([]*models.SaleRecord, error)
	ListLinkInitiatedByUsedCode(ctx context.Context, code string) ([]*models.SaleRecord, error)
	ListConfirmedGeneratedCodes(ctx context.Context, afterID uint, limit int) ([]*models.SaleRecord, error)
}

// UserAccountRepository defines user account repository interface
type UserAccountRepository interface {
	Upsert(ctx context.Context, account *models.UserAccount) error
	GetByID(ctx context.Context, id string) (*models.UserAccount, error)
	GetByEmail(ctx context.Context, email string) (*models.UserAccount, error)
	GetByIDNumbers(ctx context.Context, idNumbers []string) (*models.UserAccount, error)
	ListByAffiliateCodes(ctx context.Context, codes []string) ([]*models.UserAccount, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// WithdrawalRepository defines withdrawal repository interface.
// Balance and requests go through stored procedures owned by the database.
type WithdrawalRepository interface {
	GetBalance(ctx context.Context, userID string) (*domain.Balance, error)
	RequestWithdrawal(ctx context.Context, userID string, input domain.WithdrawalRequest) (*domain.WithdrawalReceipt, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Withdrawal, int64, error)
}
