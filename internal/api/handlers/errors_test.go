package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orrn/ptouch/internal/core"
	"github.com/orrn/ptouch/internal/db"
	"github.com/orrn/ptouch/internal/service"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unsupported format", fmt.Errorf("decode: %w", core.ErrUnsupportedImageFormat), http.StatusBadRequest, "unsupported_image_format"},
		{"malformed image", core.ErrMalformedImage, http.StatusBadRequest, "malformed_image"},
		{"invalid config", core.ErrInvalidConfig, http.StatusBadRequest, "invalid_config"},
		{"unknown printer", service.ErrUnknownPrinter, http.StatusNotFound, "not_found"},
		{"missing job", db.ErrNotFound, http.StatusNotFound, "not_found"},
		{"not ready", &core.PrinterNotReadyError{PrinterName: "desk", State: "stopped"}, http.StatusConflict, "printer_not_ready"},
		{"rejected", &core.SubmissionRejectedError{Response: &core.Response{Status: "client-error-not-possible"}}, http.StatusBadGateway, "submission_rejected"},
		{"protocol", &core.ProtocolError{Operation: core.OpPrintJob, Err: errors.New("connection refused")}, http.StatusBadGateway, "protocol_error"},
		{"timed out", &core.JobTimedOutError{JobID: 3, Attempts: 51}, http.StatusGatewayTimeout, "job_timed_out"},
		{"other", context.Canceled, http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
