package handlers

import (
	"errors"
	"strings"

	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/core/services"
	"affiliatehub/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidCode      = "Invalid or already activated code"
	msgOwnershipFailed  = "Code and CPF do not match"
	msgActivationFailed = "Failed to activate affiliate code"
)

// ActivationHandler handles affiliate activation
type ActivationHandler struct {
	activationService *services.ActivationService
}

// NewActivationHandler creates a new activation handler
func NewActivationHandler(activationService *services.ActivationService) *ActivationHandler {
	return &ActivationHandler{activationService: activationService}
}

// ActivateRequest represents activation request body
type ActivateRequest struct {
	Code     string `json:"code"`
	IDNumber string `json:"idNumber"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// Activate handles code activation
// @Summary Activate affiliate code
// @Description Prove ownership of a generated code with the buyer CPF and create the affiliate login
// @Tags Affiliates
// @Accept json
// @Produce json
// @Param body body ActivateRequest true "Activation data"
// @Success 200 {object} services.ActivateResult
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 429 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /affiliates/activate [post]
func (h *ActivationHandler) Activate(c *fiber.Ctx) error {
	var req ActivateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.activationService.Activate(c.UserContext(), &services.ActivateInput{
		Code:     req.Code,
		IDNumber: req.IDNumber,
		Password: req.Password,
		Email:    req.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, inputMessage(err))
		case domain.IsCodeRejection(err):
			return response.BadRequest(c, msgInvalidCode)
		case errors.Is(err, domain.ErrOwnershipMismatch):
			return response.Unauthorized(c, msgOwnershipFailed)
		default:
			return response.InternalServerError(c, msgActivationFailed)
		}
	}

	return c.JSON(result)
}

// inputMessage strips the sentinel prefix from a wrapped ErrInvalidInput
func inputMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	if msg == "" || msg == domain.ErrInvalidInput.Error() {
		return "Invalid input"
	}
	return msg
}
