package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
	"github.com/SscSPs/property_ledger/internal/dto"
	"github.com/SscSPs/property_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler handles HTTP requests related to journal transactions.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func newLedgerHandler(ls portssvc.LedgerSvcFacade) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// RegisterLedgerRoutes registers routes related to the ledger.
func RegisterLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newLedgerHandler(ledgerService)

	ledger := rg.Group("/ledger")
	{
		ledger.POST("/events", h.postEvent)
		ledger.GET("/transactions", h.listTransactionsByReference)
		ledger.GET("/transactions/:transactionID", h.getTransaction)
		ledger.POST("/transactions/:transactionID/void", h.voidTransaction)
	}
}

// postEvent godoc
// @Summary Record a deposit, expense or revenue
// @Description Posts the journal for a money movement that has no payment wrapper
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   event body dto.PostLedgerEventRequest true "Money event"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 409 {object} errorResponse "Concurrent update; retryable"
// @Failure 500 {object} errorResponse "Failed to post ledger event"
// @Security BearerAuth
// @Router /ledger/events [post]
func (h *ledgerHandler) postEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.PostLedgerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, "Invalid request format", err)
		return
	}

	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("kind", string(req.Kind)), slog.String("reference_id", req.ReferenceID))
	txn, err := h.ledgerService.PostExternalEvent(c.Request.Context(), req.ToEvent(), userID)
	if err != nil {
		respondError(c, logger, err, "Failed to post ledger event")
		return
	}

	logger.Info("Ledger event posted", slog.String("transaction_id", txn.TransactionID))
	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a transaction with its entries
// @Tags ledger
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Transaction not found"
// @Failure 500 {object} errorResponse "Failed to retrieve transaction"
// @Security BearerAuth
// @Router /ledger/transactions/{transactionID} [get]
func (h *ledgerHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	txn, err := h.ledgerService.GetTransaction(c.Request.Context(), transactionID)
	if err != nil {
		respondError(c, logger.With(slog.String("transaction_id", transactionID)), err, "Failed to retrieve transaction")
		return
	}
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactionsByReference godoc
// @Summary List transactions for a business object
// @Description Returns every transaction recorded against a rent, CAM, payment, deposit, expense, revenue or transaction, oldest first
// @Tags ledger
// @Produce  json
// @Param   referenceType query string true "RENT, CAM, PAYMENT, SECURITY_DEPOSIT, EXPENSE, REVENUE or TRANSACTION"
// @Param   referenceId query string true "Referenced object ID"
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} errorResponse "Invalid reference"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 500 {object} errorResponse "Failed to list transactions"
// @Security BearerAuth
// @Router /ledger/transactions [get]
func (h *ledgerHandler) listTransactionsByReference(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListByReferenceParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, logger, "Invalid query parameters", err)
		return
	}
	ref, err := domain.ParseReference(params.ReferenceType, params.ReferenceID)
	if err != nil {
		respondError(c, logger, err, "Invalid reference")
		return
	}

	txns, err := h.ledgerService.ListTransactionsByReference(c.Request.Context(), ref)
	if err != nil {
		respondError(c, logger, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, dto.ListTransactionsResponse{Transactions: dto.ToTransactionResponses(txns)})
}

// voidTransaction godoc
// @Summary Void a posted transaction
// @Description Posts a reversal with every side flipped and marks the original VOIDED. Charges are not touched.
// @Tags ledger
// @Accept  json
// @Produce  json
// @Param   transactionID path string true "Transaction ID"
// @Param   body body dto.VoidTransactionRequest true "Reason"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} errorResponse "Already voided or a reversal"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Transaction not found"
// @Failure 409 {object} errorResponse "Concurrent update; retryable"
// @Failure 500 {object} errorResponse "Failed to void transaction"
// @Security BearerAuth
// @Router /ledger/transactions/{transactionID}/void [post]
func (h *ledgerHandler) voidTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	transactionID := c.Param("transactionID")

	var req dto.VoidTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, "Invalid request format", err)
		return
	}

	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("transaction_id", transactionID))
	txn, err := h.ledgerService.VoidTransaction(c.Request.Context(), transactionID, userID, req.Reason)
	if err != nil {
		respondError(c, logger, err, "Failed to void transaction")
		return
	}

	logger.Info("Transaction voided")
	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}
