package services

import (
	"context"
	"errors"
	"testing"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"
)

func TestValidateCode(t *testing.T) {
	codes := newFakeCodeRepo(
		&models.AffiliateCode{ID: "1", Code: "123456", Status: domain.CodeStatusActive},
		&models.AffiliateCode{ID: "2", Code: "6543210001", Status: domain.CodeStatusInactive},
	)
	s := NewCodeService(codes)

	affiliate, err := s.Validate(context.Background(), " 123456 ")
	if err != nil || affiliate.ID != "1" {
		t.Fatalf("exact match: %+v %v", affiliate, err)
	}

	affiliate, err = s.Validate(context.Background(), "654321")
	if err != nil || affiliate.ID != "2" {
		t.Fatalf("prefix match: %+v %v", affiliate, err)
	}

	if _, err := s.Validate(context.Background(), "000000"); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("unknown code: got %v", err)
	}
}

func TestValidateCodeRejectsMalformed(t *testing.T) {
	s := NewCodeService(newFakeCodeRepo())
	for _, code := range []string{"", "12345", "1234567", "abcdef", "12 456"} {
		if _, err := s.Validate(context.Background(), code); !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("Validate(%q) = %v, want ErrInvalidInput", code, err)
		}
	}
}
