package handlers

import (
	"errors"

	"github.com/villalobos-05/pagame-backend/internal/adapters/http/middleware"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/models"
	"github.com/villalobos-05/pagame-backend/internal/adapters/persistence/repositories"
	"github.com/villalobos-05/pagame-backend/internal/core/services"
	"github.com/villalobos-05/pagame-backend/internal/pkg/identifier"
	"github.com/villalobos-05/pagame-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *services.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// CreatePaymentRequest represents create payment request body
type CreatePaymentRequest struct {
	PayerID string  `json:"payer_id"`
	Amount  float64 `json:"amount"`
	Issue   string  `json:"issue"`
}

// Create handles payment creation
// @Summary Create payment
// @Description Request a payment from another user; the caller becomes the receiver
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePaymentRequest true "Payment data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments [post]
func (h *PaymentHandler) Create(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	input := &services.CreatePaymentInput{
		PayerID: req.PayerID,
		Amount:  req.Amount,
		Issue:   req.Issue,
	}

	payment, err := h.paymentService.Create(c.Context(), callerID, input)
	if err != nil {
		switch {
		case errors.Is(err, identifier.ErrInvalidID):
			return response.BadRequest(c, "Payer id is not a valid identifier")
		case errors.Is(err, services.ErrInvalidAmount):
			return response.BadRequest(c, "Amount must be greater than zero")
		case errors.Is(err, services.ErrIssueTooLong):
			return response.BadRequest(c, "Issue must be at most 42 characters")
		default:
			return response.InternalServerError(c, "Failed to create payment")
		}
	}

	return response.Created(c, "Payment created successfully", payment)
}

// Pay handles the payer-side settlement transition
// @Summary Pay payment
// @Description Mark an unpaid payment as paid, pending the receiver's check
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /payments/{id}/pay [patch]
func (h *PaymentHandler) Pay(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	paymentID, err := identifier.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Payment id is not a valid identifier")
	}

	if err := h.paymentService.Pay(c.Context(), paymentID, callerID); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.BadRequest(c, "User not found")
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		case errors.Is(err, services.ErrPaymentConflict):
			return response.Conflict(c, "Payment is not unpaid")
		default:
			return response.InternalServerError(c, "Failed to pay payment")
		}
	}

	return response.Success(c, "Payment payed, pending receiver check", nil)
}

// Check handles the receiver-side settlement transition
// @Summary Check or reject payment
// @Description Confirm (or reject with ?reject=true) a payment as its receiver
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID"
// @Param reject query bool false "Reject instead of confirm"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /payments/{id}/check [patch]
func (h *PaymentHandler) Check(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	paymentID, err := identifier.Parse(c.Params("id"))
	if err != nil {
		return response.BadRequest(c, "Payment id is not a valid identifier")
	}

	reject := c.QueryBool("reject", false)

	if err := h.paymentService.Check(c.Context(), paymentID, callerID, reject); err != nil {
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return response.BadRequest(c, "User not found")
		case errors.Is(err, services.ErrPaymentNotFound):
			return response.NotFound(c, "Payment not found")
		default:
			return response.InternalServerError(c, "Failed to check payment")
		}
	}

	if reject {
		return response.Success(c, "Payment rejected successfully", nil)
	}
	return response.Success(c, "Payment checked successfully", nil)
}

// List handles payment listing
// @Summary List payments
// @Description List payments where the caller is payer or receiver, with optional filters
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param payerId query string false "Only payments this payer owes the caller"
// @Param receiverId query string false "Only payments the caller owes this receiver"
// @Param status query string false "Filter by status" Enums(unpaid, unchecked, paid, rejected)
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /payments [get]
func (h *PaymentHandler) List(c *fiber.Ctx) error {
	callerID, ok := middleware.CallerID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	filter := repositories.PaymentFilter{CallerID: callerID}

	if raw := c.Query("payerId"); raw != "" {
		payerID, err := identifier.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "Payer id is not a valid identifier")
		}
		filter.PayerID = &payerID
	}

	if raw := c.Query("receiverId"); raw != "" {
		receiverID, err := identifier.Parse(raw)
		if err != nil {
			return response.BadRequest(c, "Receiver id is not a valid identifier")
		}
		filter.ReceiverID = &receiverID
	}

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParsePaymentStatus(raw)
		if !ok {
			return response.BadRequest(c, "Unknown payment status")
		}
		filter.Status = &status
	}

	payments, err := h.paymentService.List(c.Context(), filter)
	if err != nil {
		return response.InternalServerError(c, "Failed to list payments")
	}

	return response.Success(c, "Payments retrieved successfully", payments)
}
