package handlers

import (
	"errors"

	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CodeHandler handles public code checks
type CodeHandler struct {
	codeService *services.CodeService
}

// NewCodeHandler creates a new code handler
func NewCodeHandler(codeService *services.CodeService) *CodeHandler {
	return &CodeHandler{codeService: codeService}
}

// ValidateCodeRequest represents validation request body
type ValidateCodeRequest struct {
	Code string `json:"code"`
}

// AffiliateSummary is the public view of a code
type AffiliateSummary struct {
	ID     string            `json:"id"`
	Code   string            `json:"code"`
	Status domain.CodeStatus `json:"status"`
}

// ValidateCodeResponse is returned for a known code
type ValidateCodeResponse struct {
	Valid     bool             `json:"valid"`
	Affiliate AffiliateSummary `json:"affiliate"`
}

// Validate checks whether a code exists
// @Summary Validate code
// @Description Look up an affiliate code by exact value or prefix
// @Tags Codes
// @Accept json
// @Produce json
// @Param body body ValidateCodeRequest true "Code"
// @Success 200 {object} ValidateCodeResponse
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /codes/validate [post]
func (h *CodeHandler) Validate(c *fiber.Ctx) error {
	var req ValidateCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	affiliate, err := h.codeService.Validate(c.UserContext(), req.Code)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, inputMessage(err))
		case errors.Is(err, domain.ErrCodeNotFound):
			return response.NotFound(c, "Code not found")
		default:
			return response.InternalServerError(c, "Failed to validate code")
		}
	}

	return c.JSON(ValidateCodeResponse{
		Valid: true,
		Affiliate: AffiliateSummary{
			ID:     affiliate.ID,
			Code:   affiliate.Code,
			Status: affiliate.Status,
		},
	})
}
