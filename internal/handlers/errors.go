package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error     string `json:"error"`
	Retryable bool   `json:"retryable,omitempty"`
	// Fields names each request field that failed a binding rule, e.g.
	// "AmountPaisa": "gt".
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps an error to its HTTP status. Sentinels are checked before
// AppError codes so a wrapped sentinel keeps its meaning.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrOverpayment), errors.Is(err, apperrors.ErrIdempotencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnknownAccount),
		errors.Is(err, apperrors.ErrJournalUnbalanced),
		errors.Is(err, apperrors.ErrNegativeResult):
		return http.StatusInternalServerError
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 600 {
		return appErr.Code
	}
	return http.StatusInternalServerError
}

// respondError logs err at a level matching its status and writes the reply.
// Server-side failures never leak their cause; fallback is shown instead.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), Retryable: apperrors.IsRetryable(err)}

	if status >= http.StatusInternalServerError {
		logger.Error(fallback, slog.String("error", err.Error()))
		resp.Error = fallback
	} else {
		logger.Warn(fallback, slog.Int("status", status), slog.String("error", err.Error()))
	}
	c.JSON(status, resp)
}

// badRequest replies 400 for malformed input that never reached a service.
func badRequest(c *gin.Context, logger *slog.Logger, msg string, err error) {
	logger.Warn(msg, slog.String("error", err.Error()))
	resp := errorResponse{Error: msg + ": " + err.Error()}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		resp.Error = msg
		resp.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			resp.Fields[fe.Field()] = fe.Tag()
		}
	}
	c.JSON(http.StatusBadRequest, resp)
}

// requireUserID reads the authenticated user id or replies 401.
func requireUserID(c *gin.Context, logger *slog.Logger) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, errorResponse{Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}
