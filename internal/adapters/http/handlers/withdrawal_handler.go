package handlers

import (
	"errors"
	"strings"

	"affiliatehub/internal/adapters/http/middleware"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/pagination"
	"affiliatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// WithdrawalHandler handles the affiliate wallet
type WithdrawalHandler struct {
	withdrawalService *services.WithdrawalService
}

// NewWithdrawalHandler creates a new withdrawal handler
func NewWithdrawalHandler(withdrawalService *services.WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawalService: withdrawalService}
}

// WalletResponse is the balance plus one page of history
type WalletResponse struct {
	AvailableBalance float64                      `json:"available_balance"`
	TotalEarnings    float64                      `json:"total_earnings"`
	TotalWithdrawn   float64                      `json:"total_withdrawn"`
	History          []*models.WithdrawalResponse `json:"history"`
	Meta             *pagination.Meta             `json:"meta"`
}

// Overview returns balance and withdrawal history
// @Summary Wallet overview
// @Description Balance and withdrawal history of the authenticated affiliate
// @Tags Withdrawals
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} WalletResponse
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /affiliates/withdraw [get]
func (h *WithdrawalHandler) Overview(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	overview, err := h.withdrawalService.Overview(c.UserContext(), userID, pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to load wallet")
	}

	out := WalletResponse{
		AvailableBalance: overview.Balance.AvailableBalance.InexactFloat64(),
		TotalEarnings:    overview.Balance.TotalEarnings.InexactFloat64(),
		TotalWithdrawn:   overview.Balance.TotalWithdrawn.InexactFloat64(),
		History:          make([]*models.WithdrawalResponse, 0, len(overview.History)),
		Meta:             overview.Meta,
	}
	for _, w := range overview.History {
		out.History = append(out.History, w.ToResponse())
	}
	return c.JSON(out)
}

// Request asks for a payout
// @Summary Request withdrawal
// @Description Request a PIX payout; minimum amount and balance are enforced by the store
// @Tags Withdrawals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.WithdrawInput true "Withdrawal data"
// @Success 200 {object} domain.WithdrawalReceipt
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /affiliates/withdraw [post]
func (h *WithdrawalHandler) Request(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.WithdrawInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	receipt, err := h.withdrawalService.Request(c.UserContext(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, inputMessage(err))
		case errors.Is(err, domain.ErrWithdrawalRejected):
			return response.BadRequest(c, rejectionMessage(err))
		default:
			return response.InternalServerError(c, "Failed to request withdrawal")
		}
	}

	return c.JSON(receipt)
}

// rejectionMessage returns the store's reason without the sentinel prefix
func rejectionMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrWithdrawalRejected.Error()+": ")
	if msg == "" {
		return "Withdrawal rejected"
	}
	return msg
}
