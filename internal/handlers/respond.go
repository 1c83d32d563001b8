package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/anchorhub/anchorhub-api/internal/services"
	"github.com/anchorhub/anchorhub-api/pkg/dto"
	"github.com/m1z23r/drift/pkg/drift"
)

var kindStatus = map[string]int{
	"Invariant":        http.StatusBadRequest,
	"InvalidReference": http.StatusBadRequest,
	"Forbidden":        http.StatusForbidden,
	"NotFound":         http.StatusNotFound,
	"Conflict":         http.StatusConflict,
	"RateLimited":      http.StatusTooManyRequests,
	"Timeout":          http.StatusGatewayTimeout,
	"Unavailable":      http.StatusServiceUnavailable,
}

// respondError maps a service error onto the HTTP error envelope. Internal
// errors hide the underlying message.
func respondError(c *drift.Context, err error) {
	kind := services.Kind(err)
	if errors.Is(err, context.DeadlineExceeded) {
		kind = "Timeout"
	}

	status, ok := kindStatus[kind]
	message := err.Error()
	if !ok {
		status = http.StatusInternalServerError
		message = "internal error"
	}

	_ = c.JSON(status, dto.ErrorResponse{Error: dto.ErrorBody{Kind: kind, Message: message}})
}

func respondInvariant(c *drift.Context, message string) {
	_ = c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: dto.ErrorBody{Kind: "Invariant", Message: message}})
}
