package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateInput is what the provider needs to register a principal
type CreateInput struct {
	Email    string
	Password string
	Metadata models.IdentityMetadata
}

// Provider is the authentication identity store.
// CreateUser returns domain.ErrIdentityAlreadyExists when the email is taken.
// ListUsers is paged; page starts at 1.
type Provider interface {
	CreateUser(ctx context.Context, input CreateInput) (*models.Identity, error)
	ListUsers(ctx context.Context, page, perPage int) ([]*models.Identity, error)
	GetUserByID(ctx context.Context, id string) (*models.Identity, error)
	UpdateUserMetadata(ctx context.Context, id string, metadata models.IdentityMetadata) error
	SignInWithPassword(ctx context.Context, email, plain string) (*models.Identity, error)
}

// gormProvider implements Provider on the identities table
type gormProvider struct {
	db *gorm.DB
}

// NewGormProvider creates a provider backed by the identities table
func NewGormProvider(db *gorm.DB) Provider {
	return &gormProvider{db: db}
}

// CreateUser hashes the password and inserts the identity
func (p *gormProvider) CreateUser(ctx context.Context, input CreateInput) (*models.Identity, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Identity{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrIdentityAlreadyExists, "email already registered")
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	identity := &models.Identity{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Metadata:     datatypes.NewJSONType(input.Metadata),
	}
	if err := p.db.WithContext(ctx).Create(identity).Error; err != nil {
		// Racing inserts lose on the unique index
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIdentityAlreadyExists, "email already registered")
		}
		return nil, err
	}
	return identity, nil
}

// ListUsers returns one page of identities ordered by creation
func (p *gormProvider) ListUsers(ctx context.Context, page, perPage int) ([]*models.Identity, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 50
	}
	var identities []*models.Identity
	err := p.db.WithContext(ctx).
		Order("created_at ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&identities).Error
	return identities, err
}

// GetUserByID gets an identity by id
func (p *gormProvider) GetUserByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, err
	}
	return &identity, nil
}

// UpdateUserMetadata merges non-empty fields of metadata into the stored metadata
func (p *gormProvider) UpdateUserMetadata(ctx context.Context, id string, metadata models.IdentityMetadata) error {
	identity, err := p.GetUserByID(ctx, id)
	if err != nil {
		return err
	}

	merged := MergeMetadata(identity.Meta(), metadata)
	return p.db.WithContext(ctx).
		Model(&models.Identity{}).
		Where("id = ?", id).
		Update("metadata", datatypes.NewJSONType(merged)).Error
}

// SignInWithPassword checks email + password
func (p *gormProvider) SignInWithPassword(ctx context.Context, email, plain string) (*models.Identity, error) {
	var identity models.Identity
	err := p.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if !password.Verify(plain, identity.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return &identity, nil
}

// MergeMetadata overlays the non-empty fields of update onto current
func MergeMetadata(current, update models.IdentityMetadata) models.IdentityMetadata {
	if update.IDNumber != "" {
		current.IDNumber = update.IDNumber
	}
	if update.AffiliateCode != "" {
		current.AffiliateCode = update.AffiliateCode
	}
	if update.FullName != "" {
		current.FullName = update.FullName
	}
	return current
}
