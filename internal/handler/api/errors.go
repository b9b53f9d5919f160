package api

import (
	"context"
	"errors"
	"net"
	"net/http"

	drepo "StockPulse/internal/domain/repository"
	xhttp "StockPulse/pkg/http"
)

// toAppError maps domain and upstream failures onto HTTP errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var statusErr *xhttp.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, drepo.ErrInvalidCode):
		return xhttp.NewAppError("ERR_INVALID_CODE", "code", "code must be 6 digits", http.StatusBadRequest).WithError(err)
	case errors.Is(err, drepo.ErrNotFound):
		return xhttp.NotFoundError("instrument not found").WithError(err)
	case errors.Is(err, drepo.ErrInsufficientData):
		return xhttp.NewAppError("ERR_INSUFFICIENT_DATA", "days", "not enough trading history", http.StatusUnprocessableEntity).WithError(err)
	case errors.Is(err, drepo.ErrNoSnapshot):
		return xhttp.ServiceUnavailableError("market snapshot not available yet").WithError(err)
	case errors.Is(err, drepo.ErrSchemaMismatch), errors.Is(err, drepo.ErrEmptyResult):
		return xhttp.BadGatewayError("market data provider returned unusable data").WithError(err)
	case errors.As(err, &statusErr), errors.As(err, &netErr), errors.Is(err, context.DeadlineExceeded):
		return xhttp.BadGatewayError("market data provider unavailable").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
