package config

import (
	"errors"
	"log"
	"strings"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// Run executes all seeders
func (s *Seeder) Run(cfg *Config) error {
	log.Println("🌱 Running database seeders...")

	created, err := s.SeedAffiliateCodes(cfg.Affiliate.SeedCodes)
	if err != nil {
		return err
	}

	log.Printf("✅ Database seeding completed (%d affiliate codes created)", created)
	return nil
}

// SeedAffiliateCodes creates an Inactive row for every code that does not exist yet.
// Malformed codes are skipped.
func (s *Seeder) SeedAffiliateCodes(codes []string) (int, error) {
	created := 0
	for _, raw := range codes {
		code := strings.TrimSpace(raw)
		if !identifier.IsValidActivationCode(code) {
			log.Printf("⚠️ Skipping seed code %q: must have 6 digits", code)
			continue
		}

		var existing models.AffiliateCode
		err := s.db.Where("code = ?", code).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}

		row := &models.AffiliateCode{
			ID:     uuid.NewString(),
			Code:   code,
			Status: domain.CodeStatusInactive,
		}
		if err := s.db.Create(row).Error; err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedData runs the seeders for cfg
func SeedData(db *gorm.DB, cfg *Config) error {
	return NewSeeder(db).Run(cfg)
}
