package handlers

import (
	"log"
	"strconv"

	"github.com/StevenOng97/backend-saas/app/dto"
	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// RateHandlerInterface defines the contract for the public rating endpoints
type RateHandlerInterface interface {
	GetRatingPage(c fiber.Ctx) error
	SubmitRating(c fiber.Ctx) error
	SubmitFeedback(c fiber.Ctx) error
	ListFeedback(c fiber.Ctx) error
}

// RateHandler handles the public rating page and the private feedback form
type RateHandler struct {
	ratingFlow   businessflow.RatingFlow
	feedbackFlow businessflow.FeedbackQueryFlow
	validator    *validator.Validate
}

// NewRateHandler creates a new rating handler
func NewRateHandler(ratingFlow businessflow.RatingFlow, feedbackFlow businessflow.FeedbackQueryFlow) *RateHandler {
	return &RateHandler{
		ratingFlow:   ratingFlow,
		feedbackFlow: feedbackFlow,
		validator:    validator.New(),
	}
}

func (h *RateHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RateHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetRatingPage resolves a short ID to the rating page state
// @Summary Get Rating Page
// @Description Resolve a short invitation ID to the public rating page state
// @Tags Ratings
// @Produce json
// @Param shortId path string true "Invite short ID"
// @Success 200 {object} dto.APIResponse{data=businessflow.RatingView} "Rating page state"
// @Failure 404 {object} dto.APIResponse "Invite not found"
// @Failure 410 {object} dto.APIResponse "Invite expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rate/{shortId} [get]
func (h *RateHandler) GetRatingPage(c fiber.Ctx) error {
	shortID := c.Params("shortId")
	if shortID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Short ID is required", "INVALID_REQUEST", nil)
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	view, err := h.ratingFlow.GetForRating(ctx, shortID)
	if err != nil {
		return h.handleRatingError(c, err, "Failed to load rating page")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Rating page loaded", view)
}

// SubmitRating records a thumbs up/down and returns the redirect decision
// @Summary Submit Rating
// @Description Record a rating for an invitation; negative ratings are routed to the private feedback form
// @Tags Ratings
// @Accept json
// @Produce json
// @Param shortId path string true "Invite short ID"
// @Param request body dto.SubmitRatingRequest true "Rating value"
// @Success 200 {object} dto.APIResponse{data=businessflow.RatingDecision} "Rating recorded"
// @Failure 400 {object} dto.APIResponse "Invalid rating value"
// @Failure 404 {object} dto.APIResponse "Invite not found"
// @Failure 409 {object} dto.APIResponse "Invite already rated"
// @Failure 410 {object} dto.APIResponse "Invite expired"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rate/{shortId} [post]
func (h *RateHandler) SubmitRating(c fiber.Ctx) error {
	shortID := c.Params("shortId")
	if shortID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Short ID is required", "INVALID_REQUEST", nil)
	}

	var req dto.SubmitRatingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get(businessflow.RequestIDKey))

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	decision, err := h.ratingFlow.SubmitRating(ctx, shortID, models.RatingValue(*req.Value), metadata)
	if err != nil {
		return h.handleRatingError(c, err, "Failed to submit rating")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Rating recorded", decision)
}

// SubmitFeedback captures private feedback for a negative rating
// @Summary Submit Feedback
// @Description Capture private feedback text for a negative rating and alert organization admins
// @Tags Ratings
// @Accept json
// @Produce json
// @Param ratingId path int true "Rating ID"
// @Param request body dto.SubmitFeedbackRequest true "Feedback content"
// @Success 201 {object} dto.APIResponse "Feedback recorded"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Rating not found"
// @Failure 409 {object} dto.APIResponse "Feedback already provided"
// @Failure 422 {object} dto.APIResponse "Rating is not negative"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/feedback/{ratingId} [post]
func (h *RateHandler) SubmitFeedback(c fiber.Ctx) error {
	ratingID, err := strconv.ParseUint(c.Params("ratingId"), 10, 32)
	if err != nil || ratingID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rating ID", "INVALID_REQUEST", nil)
	}

	var req dto.SubmitFeedbackRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrorMessages(err))
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	feedback, _, err := h.ratingFlow.SubmitFeedback(ctx, uint(ratingID), req.Content)
	if err != nil {
		return h.handleRatingError(c, err, "Failed to submit feedback")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Feedback recorded", dto.FeedbackResponse{
		ID:        feedback.ID,
		RatingID:  feedback.RatingID,
		Content:   feedback.Content,
		CreatedAt: feedback.CreatedAt,
	})
}

// ListFeedback lists captured feedback for a business
// @Summary List Feedback
// @Description List private feedback captured for a business, newest first
// @Tags Ratings
// @Produce json
// @Param businessId path int true "Business ID"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=dto.ListFeedbackResponse} "Feedback list"
// @Failure 404 {object} dto.APIResponse "Business not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/businesses/{businessId}/feedback [get]
func (h *RateHandler) ListFeedback(c fiber.Ctx) error {
	businessID, err := strconv.ParseUint(c.Params("businessId"), 10, 32)
	if err != nil || businessID == 0 {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid business ID", "INVALID_REQUEST", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	rows, err := h.feedbackFlow.ListForBusiness(ctx, uint(businessID), limit, offset)
	if err != nil {
		if businessflow.IsBusinessNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Business not found", "BUSINESS_NOT_FOUND", nil)
		}
		log.Println("Feedback list failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list feedback", "FEEDBACK_LIST_FAILED", nil)
	}

	resp := dto.ListFeedbackResponse{
		Feedback: make([]dto.FeedbackResponse, 0, len(rows)),
		Limit:    limit,
		Offset:   offset,
	}
	for _, row := range rows {
		resp.Feedback = append(resp.Feedback, dto.FeedbackResponse{
			ID:        row.ID,
			RatingID:  row.RatingID,
			Content:   row.Content,
			CreatedAt: row.CreatedAt,
		})
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Feedback listed", resp)
}

func (h *RateHandler) handleRatingError(c fiber.Ctx, err error, fallback string) error {
	if businessflow.IsInviteNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Invite not found", "INVITE_NOT_FOUND", nil)
	}
	if businessflow.IsInviteExpired(err) {
		return h.ErrorResponse(c, fiber.StatusGone, "Invite has expired", "INVITE_EXPIRED", nil)
	}
	if businessflow.IsInvalidRatingValue(err) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Rating value must be 0 or 1", "INVALID_RATING_VALUE", nil)
	}
	if businessflow.IsAlreadyRated(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Invite has already been rated", "ALREADY_RATED", nil)
	}
	if businessflow.IsRatingNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Rating not found", "RATING_NOT_FOUND", nil)
	}
	if businessflow.IsFeedbackAlreadyProvided(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Feedback has already been provided", "FEEDBACK_ALREADY_PROVIDED", nil)
	}
	if businessflow.IsFeedbackNotApplicable(err) {
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Feedback applies to negative ratings only", "FEEDBACK_NOT_APPLICABLE", nil)
	}

	log.Println("Rating operation failed", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "RATING_OPERATION_FAILED", nil)
}
