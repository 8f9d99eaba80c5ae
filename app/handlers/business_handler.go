package handlers

import (
	"log"
	"strconv"

	"github.com/StevenOng97/backend-saas/app/dto"
	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/gofiber/fiber/v3"
)

// BusinessHandlerInterface defines the contract for business operations
type BusinessHandlerInterface interface {
	ScheduleRegistrationCheck(c fiber.Ctx) error
}

// BusinessHandler handles business lifecycle operations
type BusinessHandler struct {
	registrationFlow businessflow.RegistrationCheckFlow
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(registrationFlow businessflow.RegistrationCheckFlow) *BusinessHandler {
	return &BusinessHandler{registrationFlow: registrationFlow}
}

// ScheduleRegistrationCheck starts the onboarding reminder chain for a business
// @Summary Schedule Registration Check
// @Description Start the onboarding reminder schedule for a newly registered business
// @Tags Businesses
// @Produce json
// @Param businessId path int true "Business ID"
// @Success 202 {object} dto.APIResponse "Check scheduled"
// @Failure 400 {object} dto.APIResponse "Invalid business ID"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/businesses/{businessId}/registration-check [post]
func (h *BusinessHandler) ScheduleRegistrationCheck(c fiber.Ctx) error {
	businessID, err := strconv.ParseUint(c.Params("businessId"), 10, 32)
	if err != nil || businessID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid business ID",
			Error:   dto.ErrorDetail{Code: "INVALID_REQUEST"},
		})
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	if err := h.registrationFlow.ScheduleInitialCheck(ctx, uint(businessID)); err != nil {
		log.Println("Registration check scheduling failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to schedule registration check",
			Error:   dto.ErrorDetail{Code: "REGISTRATION_CHECK_FAILED"},
		})
	}

	return c.Status(fiber.StatusAccepted).JSON(dto.APIResponse{
		Success: true,
		Message: "Registration check scheduled",
	})
}
