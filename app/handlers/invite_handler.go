package handlers

import (
	"log"
	"time"

	"github.com/StevenOng97/backend-saas/app/dto"
	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// InviteHandlerInterface defines the contract for invite handlers
type InviteHandlerInterface interface {
	CreateInvite(c fiber.Ctx) error
	CreateBatch(c fiber.Ctx) error
}

// InviteHandler handles review-invitation HTTP requests
type InviteHandler struct {
	inviteFlow businessflow.InviteFlow
	validator  *validator.Validate
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteFlow businessflow.InviteFlow) *InviteHandler {
	return &InviteHandler{
		inviteFlow: inviteFlow,
		validator:  validator.New(),
	}
}

func (h *InviteHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *InviteHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateInvite creates a single review invitation and queues it for dispatch
// @Summary Create Invite
// @Description Create a review invitation for one customer
// @Tags Invites
// @Accept json
// @Produce json
// @Param request body dto.CreateInviteRequest true "Invite creation data"
// @Success 201 {object} dto.APIResponse{data=dto.InviteResponse} "Invite created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Business or customer not found"
// @Failure 429 {object} dto.APIResponse "Invite quota exceeded"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/invites [post]
func (h *InviteHandler) CreateInvite(c fiber.Ctx) error {
	var req dto.CreateInviteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	invite, err := h.inviteFlow.CreateInvite(ctx, businessflow.CreateInviteInput{
		BusinessID:     req.BusinessID,
		OrganizationID: req.OrganizationID,
		CustomerID:     req.CustomerID,
		Message:        req.Message,
		SendAt:         req.SendAt,
	})
	if err != nil {
		return h.handleInviteError(c, err, "Invite creation failed")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Invite created successfully", toInviteResponse(invite))
}

// CreateBatch creates invitations for many customers in one atomic call
// @Summary Create Invite Batch
// @Description Create review invitations for many customers at once; the batch succeeds or fails as a whole
// @Tags Invites
// @Accept json
// @Produce json
// @Param request body dto.CreateBatchInviteRequest true "Batch creation data"
// @Success 201 {object} dto.APIResponse{data=dto.CreateBatchInviteResponse} "Batch created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 404 {object} dto.APIResponse "Business or customer not found"
// @Failure 429 {object} dto.APIResponse "Invite quota exceeded"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/invites/batch [post]
func (h *InviteHandler) CreateBatch(c fiber.Ctx) error {
	var req dto.CreateBatchInviteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	// Batches can be large; give the transaction more headroom
	ctx, cancel := createRequestContext(c, 30*time.Second)
	defer cancel()

	invites, err := h.inviteFlow.CreateBatch(ctx, businessflow.CreateBatchInput{
		BusinessID:     req.BusinessID,
		OrganizationID: req.OrganizationID,
		CustomerIDs:    req.CustomerIDs,
		Message:        req.Message,
		SendAt:         req.SendAt,
	})
	if err != nil {
		return h.handleInviteError(c, err, "Batch creation failed")
	}

	resp := dto.CreateBatchInviteResponse{
		Invites: make([]dto.InviteResponse, 0, len(invites)),
		Total:   len(invites),
	}
	for _, invite := range invites {
		resp.Invites = append(resp.Invites, toInviteResponse(invite))
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Batch created successfully", resp)
}

func (h *InviteHandler) handleInviteError(c fiber.Ctx, err error, fallback string) error {
	if businessflow.IsBusinessNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Business not found", "BUSINESS_NOT_FOUND", nil)
	}
	if businessflow.IsCustomerNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", "CUSTOMER_NOT_FOUND", nil)
	}
	if businessflow.IsInvalidSchedule(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled send time must be in the future", "INVALID_SCHEDULE", nil)
	}
	if businessflow.IsQuotaExceeded(err) {
		return h.ErrorResponse(c, fiber.StatusTooManyRequests, "Monthly invite quota exceeded", "QUOTA_EXCEEDED", nil)
	}

	log.Println("Invite creation failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "INVITE_CREATION_FAILED", nil)
}

func toInviteResponse(invite *models.Invite) dto.InviteResponse {
	return dto.InviteResponse{
		ID:        invite.ID,
		UUID:      invite.UUID.String(),
		ShortID:   invite.ShortID,
		Status:    string(invite.Status),
		SendAt:    invite.SendAt,
		ExpiresAt: invite.ExpiresAt,
		CreatedAt: invite.CreatedAt,
	}
}
