package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"
)

// LinkInput binds an identity to its ID number and affiliate code
type LinkInput struct {
	UserID        string
	Email         string
	IDNumber      string
	AffiliateCode string
}

// AccountLinker maintains the users row for an identity
type AccountLinker struct {
	accountRepo repositories.UserAccountRepository
}

// NewAccountLinker creates a new account linker
func NewAccountLinker(accountRepo repositories.UserAccountRepository) *AccountLinker {
	return &AccountLinker{accountRepo: accountRepo}
}

// Link upserts the users row keyed by identity id.
// Errors wrap domain.ErrLinkageFailed.
func (l *AccountLinker) Link(ctx context.Context, input LinkInput) error {
	if input.UserID == "" {
		return fmt.Errorf("%w: missing identity id", domain.ErrLinkageFailed)
	}

	code := input.AffiliateCode
	account := &models.UserAccount{
		ID:            input.UserID,
		Email:         strings.ToLower(strings.TrimSpace(input.Email)),
		IDNumber:      identifier.NormalizeIDNumber(input.IDNumber),
		AffiliateCode: &code,
		CreatedAt:     time.Now(),
	}
	if err := l.accountRepo.Upsert(ctx, account); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrLinkageFailed, err)
	}
	return nil
}
