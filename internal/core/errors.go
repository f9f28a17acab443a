package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrMalformedImage         = errors.New("malformed image")
	ErrInvalidPixelMatrix     = errors.New("invalid pixel matrix")
	ErrInvalidConfig          = errors.New("invalid print configuration")
	ErrPrinterNotReady        = errors.New("printer is not ready")
	ErrSubmissionRejected     = errors.New("print job rejected")
	ErrJobTimedOut            = errors.New("print job timed out")
	ErrProtocol               = errors.New("protocol error")
)

// PrinterNotReadyError reports the state seen by the pre-submission
// status check.
type PrinterNotReadyError struct {
	PrinterName string
	State       string
}

func (e *PrinterNotReadyError) Error() string {
	return fmt.Sprintf("printer %s is not ready (state: %s)", e.PrinterName, e.State)
}

func (e *PrinterNotReadyError) Unwrap() error { return ErrPrinterNotReady }

// SubmissionRejectedError carries the raw Print-Job response.
type SubmissionRejectedError struct {
	Response *Response
}

func (e *SubmissionRejectedError) Error() string {
	if e.Response == nil {
		return "print job rejected: no response"
	}
	return fmt.Sprintf("print job rejected: status %s (0x%04x)", e.Response.Status, e.Response.StatusCode)
}

func (e *SubmissionRejectedError) Unwrap() error { return ErrSubmissionRejected }

type JobTimedOutError struct {
	JobID    int
	Attempts int
}

func (e *JobTimedOutError) Error() string {
	return fmt.Sprintf("job %d canceled: not completed after %d polls", e.JobID, e.Attempts)
}

func (e *JobTimedOutError) Unwrap() error { return ErrJobTimedOut }

// ProtocolError wraps a transport or attribute encoding failure raised
// by a ProtocolClient.
type ProtocolError struct {
	Operation Operation
	Err       error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }
