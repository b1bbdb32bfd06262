package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/pagination"

	"github.com/shopspring/decimal"
)

// WithdrawInput represents a withdrawal request body.
// pix_key is accepted for older clients.
type WithdrawInput struct {
	Amount       decimal.Decimal `json:"amount"`
	PixKey       string          `json:"pixKey"`
	LegacyPixKey string          `json:"pix_key"`
}

// WithdrawalOverview is the wallet plus one page of its history
type WithdrawalOverview struct {
	Balance *domain.Balance
	History []*models.Withdrawal
	Meta    *pagination.Meta
}

// WithdrawalService delegates balance and payouts to the database procedures
type WithdrawalService struct {
	withdrawalRepo repositories.WithdrawalRepository
}

// NewWithdrawalService creates a new withdrawal service
func NewWithdrawalService(withdrawalRepo repositories.WithdrawalRepository) *WithdrawalService {
	return &WithdrawalService{withdrawalRepo: withdrawalRepo}
}

// Overview returns the balance and a page of past withdrawals of userID
func (s *WithdrawalService) Overview(ctx context.Context, userID string, params *pagination.Params) (*WithdrawalOverview, error) {
	if params == nil {
		params = pagination.NewParams(1, pagination.DefaultLimit)
	}

	balance, err := s.withdrawalRepo.GetBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, total, err := s.withdrawalRepo.ListByUserID(ctx, userID, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = []*models.Withdrawal{}
	}
	return &WithdrawalOverview{
		Balance: balance,
		History: history,
		Meta:    pagination.GetMeta(params, total),
	}, nil
}

// Request asks the store to pay out amount to the PIX key.
// The minimum amount and available balance are enforced by the procedure.
func (s *WithdrawalService) Request(ctx context.Context, userID string, input *WithdrawInput) (*domain.WithdrawalReceipt, error) {
	pixKey := strings.TrimSpace(input.PixKey)
	if pixKey == "" {
		pixKey = strings.TrimSpace(input.LegacyPixKey)
	}
	if pixKey == "" {
		return nil, fmt.Errorf("%w: pix key is required", domain.ErrInvalidInput)
	}
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}

	receipt, err := s.withdrawalRepo.RequestWithdrawal(ctx, userID, domain.WithdrawalRequest{
		Amount: input.Amount.Round(2),
		PixKey: pixKey,
	})
	if err != nil {
		log.Printf("⚠️ Withdrawal of %s for user %s rejected: %v", input.Amount.StringFixed(2), userID, err)
		return nil, err
	}

	log.Printf("✅ Withdrawal of %s requested for user %s", input.Amount.StringFixed(2), userID)
	return receipt, nil
}
