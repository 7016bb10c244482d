package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/SscSPs/property_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type chargeHandler struct {
	chargeService portssvc.ChargeSvcFacade
	now           func() time.Time
}

// RegisterChargeRoutes registers routes for rent and CAM charges.
// :kind is "rent" or "cam".
func RegisterChargeRoutes(rg *gin.RouterGroup, chargeService portssvc.ChargeSvcFacade) {
	h := &chargeHandler{chargeService: chargeService, now: time.Now}

	charges := rg.Group("/charges/:kind/:chargeID")
	{
		charges.GET("", h.getCharge)
		charges.POST("/accrue", h.accrueCharge)
		charges.POST("/adjustments", h.applyAdjustment)
		charges.POST("/cancel", h.cancelCharge)
	}
}

// chargeParams reads the path and replies 400 for an unknown kind.
func (h *chargeHandler) chargeParams(c *gin.Context, logger *slog.Logger) (domain.ChargeKind, string, bool) {
	kind, err := domain.ParseChargeKind(c.Param("kind"))
	if err != nil {
		respondError(c, logger, err, "Invalid charge kind")
		return "", "", false
	}
	return kind, c.Param("chargeID"), true
}

// getCharge godoc
// @Summary Get a rent or CAM charge
// @Description effectiveStatus reports OVERDUE for unpaid charges past their due date
// @Tags charges
// @Produce  json
// @Param   kind path string true "rent or cam"
// @Param   chargeID path string true "Charge ID"
// @Success 200 {object} dto.ChargeResponse
// @Failure 400 {object} errorResponse "Unknown kind"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Charge not found"
// @Failure 500 {object} errorResponse "Failed to retrieve charge"
// @Security BearerAuth
// @Router /charges/{kind}/{chargeID} [get]
func (h *chargeHandler) getCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind, chargeID, ok := h.chargeParams(c, logger)
	if !ok {
		return
	}

	charge, err := h.chargeService.GetCharge(c.Request.Context(), kind, chargeID)
	if err != nil {
		respondError(c, logger.With(slog.String("charge_id", chargeID)), err, "Failed to retrieve charge")
		return
	}
	c.JSON(http.StatusOK, dto.ToChargeResponse(charge, h.now()))
}

// accrueCharge godoc
// @Summary Book a charge as receivable
// @Description Posts the RENT_CHARGE or CAM_CHARGE journal for the charge amount
// @Tags charges
// @Produce  json
// @Param   kind path string true "rent or cam"
// @Param   chargeID path string true "Charge ID"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} errorResponse "Unknown kind or cancelled charge"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Charge not found"
// @Failure 409 {object} errorResponse "Already accrued"
// @Failure 500 {object} errorResponse "Failed to accrue charge"
// @Security BearerAuth
// @Router /charges/{kind}/{chargeID}/accrue [post]
func (h *chargeHandler) accrueCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind, chargeID, ok := h.chargeParams(c, logger)
	if !ok {
		return
	}
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("charge_id", chargeID), slog.String("kind", string(kind)))
	txn, err := h.chargeService.AccrueCharge(c.Request.Context(), kind, chargeID, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to accrue charge")
		return
	}

	logger.Info("Charge accrued", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// applyAdjustment godoc
// @Summary Apply a policy adjustment to a charge
// @Description Applies a signed delta (escalation, late fee, waiver). An ADJUSTMENT journal is posted only for an accrued charge.
// @Tags charges
// @Accept  json
// @Produce  json
// @Param   kind path string true "rent or cam"
// @Param   chargeID path string true "Charge ID"
// @Param   adjustment body dto.ChargeAdjustmentRequest true "Delta and reason"
// @Success 200 {object} dto.ChargeAdjustmentResponse
// @Failure 400 {object} errorResponse "Invalid delta"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Charge not found"
// @Failure 409 {object} errorResponse "Concurrent update; retryable"
// @Failure 500 {object} errorResponse "Failed to adjust charge"
// @Security BearerAuth
// @Router /charges/{kind}/{chargeID}/adjustments [post]
func (h *chargeHandler) applyAdjustment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind, chargeID, ok := h.chargeParams(c, logger)
	if !ok {
		return
	}

	var req dto.ChargeAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("charge_id", chargeID), slog.Int64("delta_paisa", int64(req.DeltaPaisa)))
	charge, txn, err := h.chargeService.ApplyAdjustment(c.Request.Context(), kind, chargeID, req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to adjust charge")
		return
	}

	logger.Info("Charge adjusted", slog.Bool("posted", txn != nil))
	c.JSON(http.StatusOK, dto.ToChargeAdjustmentResponse(charge, txn, h.now()))
}

// cancelCharge godoc
// @Summary Cancel an unpaid charge
// @Description Cancels a charge with no collections and posts an ADJUSTMENT that clears whatever it still holds on Accounts Receivable
// @Tags charges
// @Accept  json
// @Produce  json
// @Param   kind path string true "rent or cam"
// @Param   chargeID path string true "Charge ID"
// @Param   cancel body dto.ChargeCancelRequest true "Reason"
// @Success 200 {object} dto.ChargeAdjustmentResponse
// @Failure 400 {object} errorResponse "Charge already cancelled or partly paid"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Charge not found"
// @Failure 409 {object} errorResponse "Concurrent update; retryable"
// @Failure 500 {object} errorResponse "Failed to cancel charge"
// @Security BearerAuth
// @Router /charges/{kind}/{chargeID}/cancel [post]
func (h *chargeHandler) cancelCharge(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	kind, chargeID, ok := h.chargeParams(c, logger)
	if !ok {
		return
	}

	var req dto.ChargeCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("charge_id", chargeID), slog.String("kind", string(kind)))
	charge, txn, err := h.chargeService.CancelCharge(c.Request.Context(), kind, chargeID, req.Reason, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to cancel charge")
		return
	}

	logger.Info("Charge cancelled", slog.Bool("posted", txn != nil))
	c.JSON(http.StatusOK, dto.ToChargeAdjustmentResponse(charge, txn, h.now()))
}
