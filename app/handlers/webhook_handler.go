package handlers

import (
	"encoding/xml"
	"log"
	"strings"

	"github.com/StevenOng97/backend-saas/app/dto"
	businessflow "github.com/StevenOng97/backend-saas/business_flow"
	"github.com/StevenOng97/backend-saas/utils"
	"github.com/gofiber/fiber/v3"
)

// WebhookHandlerInterface defines the contract for SMS provider callbacks
type WebhookHandlerInterface interface {
	StatusCallback(c fiber.Ctx) error
	InboundMessage(c fiber.Ctx) error
}

// WebhookHandler handles Twilio delivery-status callbacks and inbound SMS
type WebhookHandler struct {
	deliveryFlow businessflow.DeliveryFlow
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(deliveryFlow businessflow.DeliveryFlow) *WebhookHandler {
	return &WebhookHandler{deliveryFlow: deliveryFlow}
}

// twimlResponse is the XML body Twilio expects back from inbound webhooks
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message,omitempty"`
}

// StatusCallback applies a delivery-status update to the matching sms log
// @Summary Twilio Status Callback
// @Description Apply a message delivery status reported by the SMS provider
// @Tags Webhooks
// @Accept x-www-form-urlencoded
// @Produce json
// @Success 200 {object} dto.APIResponse "Status applied"
// @Failure 400 {object} dto.APIResponse "Missing message SID"
// @Failure 404 {object} dto.APIResponse "Unknown message SID"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /webhooks/twilio/status [post]
func (h *WebhookHandler) StatusCallback(c fiber.Ctx) error {
	var req dto.TwilioStatusCallback
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid callback payload",
			Error:   dto.ErrorDetail{Code: "INVALID_REQUEST", Details: err.Error()},
		})
	}

	sid := req.SID()
	if sid == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "Message SID is required",
			Error:   dto.ErrorDetail{Code: "MISSING_SID"},
		})
	}

	outcome, actionable := mapDeliveryStatus(req.Status())
	if !actionable {
		// Intermediate statuses (queued, sending, sent) carry no state change
		return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Status ignored"})
	}

	var errorCode *string
	if req.ErrorCode != "" {
		errorCode = utils.ToPtr(req.ErrorCode)
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	if err := h.deliveryFlow.ApplyStatus(ctx, sid, outcome, errorCode); err != nil {
		if businessflow.IsSmsLogNotFound(err) {
			// Non-2xx makes the provider redeliver, which covers a callback
			// racing the local record write
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Unknown message SID",
				Error:   dto.ErrorDetail{Code: "SMS_LOG_NOT_FOUND"},
			})
		}
		log.Println("Status callback failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to apply status",
			Error:   dto.ErrorDetail{Code: "STATUS_APPLY_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{Success: true, Message: "Status applied"})
}

// InboundMessage handles customer replies and answers with TwiML
// @Summary Twilio Inbound Message
// @Description Handle an inbound SMS reply; STOP/START/HELP keywords update consent state
// @Tags Webhooks
// @Accept x-www-form-urlencoded
// @Produce xml
// @Success 200 {string} string "TwiML response"
// @Failure 400 {string} string "Invalid payload"
// @Failure 500 {string} string "Internal server error"
// @Router /webhooks/twilio/inbound [post]
func (h *WebhookHandler) InboundMessage(c fiber.Ctx) error {
	var req dto.TwilioInboundMessage
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid payload")
	}
	if req.From == "" {
		return c.Status(fiber.StatusBadRequest).SendString("missing sender")
	}

	ctx, cancel := createRequestContext(c, defaultHandlerTimeout)
	defer cancel()

	reply, err := h.deliveryFlow.ApplyInboundKeyword(ctx, req.From, req.Body)
	if err != nil {
		log.Println("Inbound message handling failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	body, err := xml.Marshal(twimlResponse{Message: reply.Body})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	c.Set(fiber.HeaderContentType, "text/xml")
	return c.Status(fiber.StatusOK).SendString(xml.Header + string(body))
}

// mapDeliveryStatus translates provider status strings into delivery
// outcomes. The second return is false for statuses that should be ignored.
func mapDeliveryStatus(status string) (businessflow.DeliveryOutcome, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "delivered":
		return businessflow.DeliveryOutcomeDelivered, true
	case "failed", "undelivered":
		return businessflow.DeliveryOutcomeFailed, true
	default:
		return "", false
	}
}
