package handler

import (
	"errors"
	"net/http"

	"github.com/truongnet3103/albion-GE/internal/logger"
	"github.com/truongnet3103/albion-GE/internal/service"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP responses. Every failure is
// reported to the caller and leaves them free to retry the same action.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "issues": verr.Issues})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNoAPIKey),
		errors.Is(err, service.ErrNoImage),
		errors.Is(err, service.ErrUnsupportedFile),
		errors.Is(err, service.ErrNoEventSelected),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrEmptyRoster),
		errors.Is(err, service.ErrInvalidValue):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrBadCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrLicenseRequired):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrEventNotFound),
		errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrReviewNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrEventExists),
		errors.Is(err, service.ErrMemberExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrNoRoster):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrQuotaExhausted):
		status = http.StatusTooManyRequests
	case errors.Is(err, service.ErrProvider):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.Error("request.failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
