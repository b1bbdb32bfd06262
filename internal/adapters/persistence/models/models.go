package models

import (
	"time"

	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ============================================================
// Affiliate codes & sales
// ============================================================

// AffiliateCode represents affiliates table
type AffiliateCode struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	Code         string            `gorm:"uniqueIndex;size:20;not null" json:"code"`
	Status       domain.CodeStatus `gorm:"size:20;not null;default:'inactive';index" json:"status"`
	LinkedSaleID *uint             `gorm:"index" json:"linked_sale_id,omitempty"`
	ActivatedAt  *time.Time        `json:"activated_at,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AffiliateCode) TableName() string {
	return "affiliates"
}

func (a *AffiliateCode) IsInactive() bool {
	return a.Status == domain.CodeStatusInactive
}

// SaleRecord represents the sample_sales table.
// Rows are written by the checkout pipeline; this service only reads them.
type SaleRecord struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	GeneratedCode *string   `gorm:"size:20;index" json:"generated_code"`
	UsedCode      *string   `gorm:"size:20;index" json:"used_code"`
	IDNumber      string    `gorm:"column:cpf;size:20;index" json:"-"`
	Email         string    `gorm:"size:191" json:"email,omitempty"`
	FullName      *string   `gorm:"size:200" json:"full_name"`
	Confirmed     bool      `gorm:"column:payment_link_status;index" json:"confirmed"`
	PaymentLinkID *string   `gorm:"size:100" json:"payment_link_id,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (SaleRecord) TableName() string {
	return "sample_sales"
}

// GeneratedCodeValue returns the generated code or ""
func (s *SaleRecord) GeneratedCodeValue() string {
	if s.GeneratedCode == nil {
		return ""
	}
	return *s.GeneratedCode
}

// UsedCodeValue returns the used code or ""
func (s *SaleRecord) UsedCodeValue() string {
	if s.UsedCode == nil {
		return ""
	}
	return *s.UsedCode
}

// FullNameValue returns the buyer name or ""
func (s *SaleRecord) FullNameValue() string {
	if s.FullName == nil {
		return ""
	}
	return *s.FullName
}

// SaleResponse DTO for the affiliate dashboard
type SaleResponse struct {
	ID            uint      `json:"id"`
	Name          string    `json:"nome"`
	Email         string    `json:"email,omitempty"`
	GeneratedCode string    `json:"codigo_gerado,omitempty"`
	UsedCode      string    `json:"codigo_usado"`
	Confirmed     bool      `json:"payment_link_status"`
	CreatedAt     time.Time `json:"created_at"`
}

func (s *SaleRecord) ToResponse() *SaleResponse {
	return &SaleResponse{
		ID:            s.ID,
		Name:          s.FullNameValue(),
		Email:         s.Email,
		GeneratedCode: s.GeneratedCodeValue(),
		UsedCode:      s.UsedCodeValue(),
		Confirmed:     s.Confirmed,
		CreatedAt:     s.CreatedAt,
	}
}

// ============================================================
// Identities & accounts
// ============================================================

// IdentityMetadata is the free-form user metadata kept by the identity provider
type IdentityMetadata struct {
	IDNumber      string `json:"cpf,omitempty"`
	AffiliateCode string `json:"affiliate_code,omitempty"`
	FullName      string `json:"full_name,omitempty"`
}

// Identity represents identities table (authentication principals)
type Identity struct {
	ID           string                               `gorm:"primaryKey;size:36" json:"id"`
	Email        string                               `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string                               `gorm:"size:255;not null" json:"-"`
	Metadata     datatypes.JSONType[IdentityMetadata] `json:"user_metadata"`
	CreatedAt    time.Time                            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Identity) TableName() string {
	return "identities"
}

// Meta returns the decoded metadata
func (i *Identity) Meta() IdentityMetadata {
	return i.Metadata.Data()
}

// UserAccount represents users table.
// ID is the identity id; rows are upserted by the account linker only.
type UserAccount struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	Email         string    `gorm:"size:191;index" json:"email"`
	IDNumber      string    `gorm:"column:cpf;size:20;index" json:"-"`
	AffiliateCode *string   `gorm:"size:20;index" json:"affiliate_code"`
	CreatedAt     time.Time `json:"created_at"`
}

func (UserAccount) TableName() string {
	return "users"
}

// AffiliateCodeValue returns the linked code or ""
func (u *UserAccount) AffiliateCodeValue() string {
	if u.AffiliateCode == nil {
		return ""
	}
	return *u.AffiliateCode
}

// UserResponse DTO
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	IDNumber      string `json:"cpf"`
	AffiliateCode string `json:"affiliate_code,omitempty"`
	FullName      string `json:"full_name,omitempty"`
}

func (u *UserAccount) ToResponse() *UserResponse {
	return &UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		IDNumber:      identifier.MaskIDNumber(u.IDNumber),
		AffiliateCode: u.AffiliateCodeValue(),
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    string     `gorm:"size:36;index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Withdrawals
// ============================================================

// Withdrawal represents withdrawals table.
// Rows are inserted by the request_withdrawal procedure.
type Withdrawal struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	UserID      string          `gorm:"size:36;index;not null" json:"user_id"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PixKey      string          `gorm:"size:140;not null" json:"pix_key"`
	Status      string          `gorm:"size:20;not null;default:'pending'" json:"status"`
	ProcessedAt *time.Time      `json:"processed_at"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}

// WithdrawalResponse DTO
type WithdrawalResponse struct {
	ID          uint       `json:"id"`
	Amount      float64    `json:"amount"`
	PixKey      string     `json:"pix_key"`
	Status      string     `json:"status"`
	ProcessedAt *time.Time `json:"processed_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (w *Withdrawal) ToResponse() *WithdrawalResponse {
	return &WithdrawalResponse{
		ID:          w.ID,
		Amount:      w.Amount.InexactFloat64(),
		PixKey:      w.PixKey,
		Status:      w.Status,
		ProcessedAt: w.ProcessedAt,
		CreatedAt:   w.CreatedAt,
	}
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for the tables this service owns.
// sample_sales belongs to the checkout pipeline and is never migrated here.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&AffiliateCode{},
		&Identity{},
		&UserAccount{},
		&RefreshToken{},
		&Withdrawal{},
	)
}
