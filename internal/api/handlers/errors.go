package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orrn/ptouch/internal/core"
	"github.com/orrn/ptouch/internal/db"
	"github.com/orrn/ptouch/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps a domain error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrUnsupportedImageFormat):
		return http.StatusBadRequest, "unsupported_image_format"
	case errors.Is(err, core.ErrMalformedImage):
		return http.StatusBadRequest, "malformed_image"
	case errors.Is(err, core.ErrInvalidPixelMatrix):
		return http.StatusBadRequest, "invalid_image"
	case errors.Is(err, core.ErrInvalidConfig):
		return http.StatusBadRequest, "invalid_config"
	case errors.Is(err, service.ErrUnknownPrinter), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, core.ErrPrinterNotReady):
		return http.StatusConflict, "printer_not_ready"
	case errors.Is(err, core.ErrSubmissionRejected):
		return http.StatusBadGateway, "submission_rejected"
	case errors.Is(err, core.ErrProtocol):
		return http.StatusBadGateway, "protocol_error"
	case errors.Is(err, core.ErrJobTimedOut):
		return http.StatusGatewayTimeout, "job_timed_out"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	c.JSON(status, ErrorResponse{Error: code, Message: err.Error()})
}
