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

// accountHandler handles HTTP requests related to the chart of accounts.
// The chart is seeded at startup; the only write is retiring an account.
type accountHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

// newAccountHandler creates a new accountHandler.
func newAccountHandler(ls portssvc.LedgerSvcFacade) *accountHandler {
	return &accountHandler{ledgerService: ls}
}

// RegisterAccountRoutes registers routes related to accounts.
func RegisterAccountRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := newAccountHandler(ledgerService)

	accounts := rg.Group("/accounts")
	{
		accounts.GET("", h.listAccounts)
		accounts.GET("/:code", h.getAccount)
		accounts.GET("/:code/entries", h.listEntries)
		accounts.POST("/:code/deactivate", h.deactivateAccount)
	}
}

// listAccounts godoc
// @Summary List the chart of accounts
// @Description Retrieves every account with its current balance, ordered by code
// @Tags accounts
// @Produce  json
// @Success 200 {object} dto.ListAccountsResponse
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 500 {object} errorResponse "Failed to list accounts"
// @Security BearerAuth
// @Router /accounts [get]
func (h *accountHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	accounts, err := h.ledgerService.ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}

	logger.Debug("Accounts listed", slog.Int("count", len(accounts)))
	c.JSON(http.StatusOK, dto.ToListAccountsResponse(accounts))
}

// getAccount godoc
// @Summary Get an account by code
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code, e.g. 1100"
// @Success 200 {object} dto.AccountResponse
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Account not found"
// @Failure 500 {object} errorResponse "Failed to retrieve account"
// @Security BearerAuth
// @Router /accounts/{code} [get]
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))

	account, err := h.ledgerService.GetAccount(c.Request.Context(), code)
	if err != nil {
		respondError(c, logger.With(slog.String("account_code", string(code))), err, "Failed to retrieve account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}

// listEntries godoc
// @Summary List an account's ledger entries
// @Description Pages an account's entries newest first with a running balance on each
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListEntriesResponse
// @Failure 400 {object} errorResponse "Invalid query parameters or token"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Account not found"
// @Failure 500 {object} errorResponse "Failed to list entries"
// @Security BearerAuth
// @Router /accounts/{code}/entries [get]
func (h *accountHandler) listEntries(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))

	var params dto.ListEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, logger, "Invalid query parameters", err)
		return
	}

	logger = logger.With(slog.String("account_code", string(code)))
	entries, next, err := h.ledgerService.ListEntriesByAccount(c.Request.Context(), code, params.Limit, params.NextToken)
	if err != nil {
		respondError(c, logger, err, "Failed to list entries")
		return
	}

	c.JSON(http.StatusOK, dto.ListEntriesResponse{
		Entries:   dto.ToLedgerEntryResponses(entries),
		NextToken: next,
	})
}

// deactivateAccount godoc
// @Summary Deactivate an account
// @Description Retires an account that no chart role uses and whose balance is zero. Posting to it fails afterwards.
// @Tags accounts
// @Produce  json
// @Param   code path string true "Account code"
// @Success 200 {object} dto.AccountResponse
// @Failure 400 {object} errorResponse "Account still carries a balance"
// @Failure 401 {object} errorResponse "Unauthorized"
// @Failure 404 {object} errorResponse "Account not found"
// @Failure 409 {object} errorResponse "Account is bound to a chart role"
// @Failure 500 {object} errorResponse "Failed to deactivate account"
// @Security BearerAuth
// @Router /accounts/{code}/deactivate [post]
func (h *accountHandler) deactivateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	code := domain.AccountCode(c.Param("code"))
	userID, ok := requireUserID(c, logger)
	if !ok {
		return
	}

	logger = logger.With(slog.String("account_code", string(code)))
	account, err := h.ledgerService.DeactivateAccount(c.Request.Context(), code, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to deactivate account")
		return
	}
	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
