package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/SscSPs/property_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// IdempotencyKeyHeader lets a client retry createPayment safely.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLen = 128

// paymentHandler handles HTTP requests related to payments.
type paymentHandler struct {
	paymentService portssvc.PaymentSvcFacade
}

func newPaymentHandler(ps portssvc.PaymentSvcFacade) *paymentHandler {
	return &paymentHandler{paymentService: ps}
}

// RegisterPaymentRoutes registers routes related to payments.
func RegisterPaymentRoutes(rg *gin.RouterGroup, paymentService portssvc.PaymentSvcFacade) {
	h := newPaymentHandler(paymentService)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.createPayment)
		payments.GET("/:paymentID", h.getPayment)
	}
}

// createPayment godoc
// @Summary Record a tenant payment
// @Description Allocates a payment to a rent and/or CAM charge and posts one journal per allocation in a single unit of work.
// @Tags payments
// @Accept  json
// @Produce  json
// @Param   Idempotency-Key header string false "Client key for safe retries"
// @Param   payment body dto.CreatePaymentRequest true "Payment and its allocations"
// @Success 201 {object} dto.CreatePaymentResponse
// @Success 200 {object} dto.CreatePaymentResponse "Replay of an earlier request with the same Idempotency-Key"
// @Failure 400 {object} errorResponse "Invalid input or allocation mismatch"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Charge not found"
// @Failure 409 {object} errorResponse "Concurrent update; retryable"
// @Failure 422 {object} errorResponse "Payment exceeds the outstanding amount"
// @Failure 500 {object} errorResponse "Failed to record payment"
// @Security BearerAuth
// @Router /payments [post]
func (h *paymentHandler) createPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, "Invalid request format", err)
		return
	}

	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	idemKey := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
	if len(idemKey) > maxIdempotencyKeyLen {
		c.JSON(http.StatusBadRequest, errorResponse{Error: IdempotencyKeyHeader + " is too long"})
		return
	}

	logger.Info("Received request to create payment",
		slog.String("payment_method", string(req.PaymentMethod)),
		slog.Bool("has_rent", req.Rent != nil),
		slog.Bool("has_cam", req.CAM != nil),
		slog.Bool("idempotent", idemKey != ""))

	result, err := h.paymentService.CreatePayment(c.Request.Context(), req, userID, idemKey)
	if err != nil {
		respondError(c, logger, err, "Failed to record payment")
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	logger.Info("Payment recorded", slog.String("payment_id", result.Payment.PaymentID), slog.Bool("replayed", result.Replayed))
	c.JSON(status, dto.ToCreatePaymentResponse(result))
}

// getPayment godoc
// @Summary Get a payment by ID
// @Description Retrieves a payment with its receipt metadata and posted transaction ids
// @Tags payments
// @Produce  json
// @Param   paymentID path string true "Payment ID"
// @Success 200 {object} dto.PaymentResponse
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Payment not found"
// @Failure 500 {object} errorResponse "Failed to retrieve payment"
// @Security BearerAuth
// @Router /payments/{paymentID} [get]
func (h *paymentHandler) getPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	paymentID := c.Param("paymentID")

	payment, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		respondError(c, logger.With(slog.String("payment_id", paymentID)), err, "Failed to retrieve payment")
		return
	}
	c.JSON(http.StatusOK, dto.ToPaymentResponse(payment))
}
