package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"affiliatehub/internal/adapters/identity"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
)

// How an identity id was obtained
const (
	IdentityCreated     = "created"
	IdentityExisting    = "existing_identity"
	IdentityFromAccount = "account"
	IdentityUnresolved  = "unresolved"
)

// ProvisionInput describes the identity an activation needs
type ProvisionInput struct {
	Email         string
	Password      string
	IDNumber      string
	AffiliateCode string
	FullName      string
}

// ProvisionResult carries the identity id, empty when unresolved
type ProvisionResult struct {
	UserID string
	Source string
}

// IdentityProvisioner creates or adopts the authentication identity for an activation
type IdentityProvisioner struct {
	provider    identity.Provider
	accountRepo repositories.UserAccountRepository
	pageSize    int
}

// NewIdentityProvisioner creates a new identity provisioner.
// pageSize bounds the single listing page searched for an existing identity.
func NewIdentityProvisioner(provider identity.Provider, accountRepo repositories.UserAccountRepository, pageSize int) *IdentityProvisioner {
	if pageSize < 1 {
		pageSize = 50
	}
	return &IdentityProvisioner{
		provider:    provider,
		accountRepo: accountRepo,
		pageSize:    pageSize,
	}
}

// Provision creates the identity, or adopts the existing one registered under the same email.
// Only a creation failure other than "already exists" is an error.
func (p *IdentityProvisioner) Provision(ctx context.Context, input ProvisionInput) (*ProvisionResult, error) {
	metadata := models.IdentityMetadata{
		IDNumber:      input.IDNumber,
		AffiliateCode: input.AffiliateCode,
		FullName:      input.FullName,
	}

	created, err := p.provider.CreateUser(ctx, identity.CreateInput{
		Email:    input.Email,
		Password: input.Password,
		Metadata: metadata,
	})
	if err == nil {
		return &ProvisionResult{UserID: created.ID, Source: IdentityCreated}, nil
	}
	if !errors.Is(err, domain.ErrIdentityAlreadyExists) {
		return nil, fmt.Errorf("%w: %v", domain.ErrIdentityProvisioningFailed, err)
	}

	return p.adopt(ctx, input.Email, metadata), nil
}

// adopt walks the fallbacks for an email that is already registered
func (p *IdentityProvisioner) adopt(ctx context.Context, email string, metadata models.IdentityMetadata) *ProvisionResult {
	users, err := p.provider.ListUsers(ctx, 1, p.pageSize)
	if err != nil {
		log.Printf("⚠️ Listing identities failed: %v", err)
	}
	if existing := findIdentityByEmail(users, email); existing != nil {
		// The identity now points at the code being activated
		if err := p.provider.UpdateUserMetadata(ctx, existing.ID, metadata); err != nil {
			log.Printf("⚠️ Updating metadata of identity %s failed: %v", existing.ID, err)
		}
		return &ProvisionResult{UserID: existing.ID, Source: IdentityExisting}
	}

	account, err := p.accountRepo.GetByEmail(ctx, email)
	if err == nil && account.ID != "" {
		return &ProvisionResult{UserID: account.ID, Source: IdentityFromAccount}
	}

	log.Printf("⚠️ Identity for %s exists but its id could not be resolved", email)
	return &ProvisionResult{Source: IdentityUnresolved}
}

// findIdentityByEmail is a case-insensitive scan of one listing page
func findIdentityByEmail(users []*models.Identity, email string) *models.Identity {
	email = strings.TrimSpace(email)
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}
