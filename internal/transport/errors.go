package transport

import (
	"errors"
	"net/http"

	"shop-api/internal/middleware"
	"shop-api/internal/payment"
	"shop-api/internal/repository"
	"shop-api/internal/service"

	"go.uber.org/zap"
)

// statusFor maps service and repository errors to HTTP statuses.
// Unknown errors are upstream failures.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken),
		errors.Is(err, service.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUserAlreadyExists),
		errors.Is(err, service.ErrProductInUse):
		return http.StatusConflict
	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidPaymentStatus),
		errors.Is(err, service.ErrInvalidPaymentMethod),
		errors.Is(err, service.ErrInvalidOrderStatus),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrSellerApplicationMissing),
		errors.Is(err, payment.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the client facing message. Client errors carry the cause; 5xx hide it.
func messageFor(err error, status int, fallback string) string {
	switch {
	case errors.Is(err, service.ErrPaymentSetupFailed):
		return "payment setup failed"
	case status >= http.StatusInternalServerError:
		return fallback
	}

	var itemErr *service.ItemError
	if errors.As(err, &itemErr) {
		return itemErr.Error()
	}
	for _, sentinel := range []error{
		repository.ErrUserNotFound,
		repository.ErrProductNotFound,
		repository.ErrOrderNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return rootMessage(err)
}

// rootMessage drops the "failed to ..." context added while the error travelled up
func rootMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

// respondWithServiceError writes the structured error body for err and logs it
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, err error, fallback string, fields ...zap.Field) {
	status := statusFor(err)
	fields = append(fields, zap.Error(err), zap.Int("status", status))

	if status >= http.StatusInternalServerError {
		logger.Error(fallback, fields...)
	} else {
		logger.Debug(fallback, fields...)
	}

	message := messageFor(err, status, fallback)

	var itemErr *service.ItemError
	if errors.As(err, &itemErr) {
		middleware.RespondWithErrorDetails(w, status, message, map[string]any{
			"product_id": itemErr.ProductID,
		})
		return
	}

	middleware.RespondWithError(w, status, message)
}

// respondWithDecodeError reports a request body that failed decoding or validation
func respondWithDecodeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	logger.Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	if errors.Is(err, middleware.ErrUnknownField) {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid updates")
		return
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// callerFrom returns the authenticated caller; the auth gate guarantees one on protected routes
func callerFrom(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (service.Caller, bool) {
	caller, ok := middleware.GetCaller(r.Context())
	if !ok {
		logger.Error("Caller not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
	}
	return caller, ok
}
