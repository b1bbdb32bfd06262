package handlers

import (
	"affiliatehub/internal/adapters/http/middleware"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SalesHandler serves the affiliate's own sales
type SalesHandler struct {
	salesService *services.SalesService
}

// NewSalesHandler creates a new sales handler
func NewSalesHandler(salesService *services.SalesService) *SalesHandler {
	return &SalesHandler{salesService: salesService}
}

// SalesResponse is the dashboard payload
type SalesResponse struct {
	Sales         []*models.SaleResponse `json:"sales"`
	AffiliateCode *string                `json:"affiliateCode"`
	UserName      string                 `json:"userName,omitempty"`
}

// Sales lists confirmed and link-initiated sales credited to the caller's code
// @Summary My sales
// @Description Confirmed sales plus sales started from a payment link, credited to the authenticated affiliate
// @Tags Affiliates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SalesResponse
// @Failure 401 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /affiliates/sales [get]
func (h *SalesHandler) Sales(c *fiber.Ctx) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	result, err := h.salesService.ListForUser(c.UserContext(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load sales")
	}

	out := SalesResponse{
		Sales:    make([]*models.SaleResponse, 0, len(result.Sales)),
		UserName: result.UserName,
	}
	for _, sale := range result.Sales {
		out.Sales = append(out.Sales, sale.ToResponse())
	}
	if result.AffiliateCode != "" {
		code := result.AffiliateCode
		out.AffiliateCode = &code
	}
	return c.JSON(out)
}
