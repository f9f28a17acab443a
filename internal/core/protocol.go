package core

import (
	"context"
	"fmt"
)

// Operation names an IPP operation.
type Operation string

const (
	OpGetPrinterAttributes Operation = "Get-Printer-Attributes"
	OpPrintJob             Operation = "Print-Job"
	OpGetJobAttributes     Operation = "Get-Job-Attributes"
	OpCancelJob            Operation = "Cancel-Job"
)

// Status keywords a ProtocolClient reports in Response.Status.
const (
	StatusSuccessfulOK                  = "successful-ok"
	StatusSuccessfulOKIgnoredAttributes = "successful-ok-ignored-or-substituted-attributes"
)

// Attribute names read or written by the controller.
const (
	AttrPrinterURI          = "printer-uri"
	AttrPrinterName         = "printer-name"
	AttrPrinterState        = "printer-state"
	AttrPrinterStateReasons = "printer-state-reasons"
	AttrPrinterMakeModel    = "printer-make-and-model"
	AttrJobID               = "job-id"
	AttrJobState            = "job-state"
	AttrJobStateReasons     = "job-state-reasons"
	AttrRequestingUserName  = "requesting-user-name"
	AttrJobName             = "job-name"
	AttrDocumentFormat      = "document-format"
	AttrCopies              = "copies"
	AttrSides               = "sides"
	AttrOrientation         = "orientation-requested"
)

// Keyword values of printer-state and job-state.
const (
	PrinterStateIdle       = "idle"
	PrinterStateProcessing = "processing"
	PrinterStateStopped    = "stopped"

	IPPJobStatePending    = "pending"
	IPPJobStateHeld       = "pending-held"
	IPPJobStateProcessing = "processing"
	IPPJobStateStopped    = "processing-stopped"
	IPPJobStateCanceled   = "canceled"
	IPPJobStateAborted    = "aborted"
	IPPJobStateCompleted  = "completed"
)

// Request is a protocol-neutral IPP request. The client adds
// printer-uri and the standard charset attributes itself.
type Request struct {
	Operation           Operation
	OperationAttributes map[string]any
	JobAttributes       map[string]any
	Document            []byte
}

// Response carries the decoded status and attribute groups. Enum values
// such as printer-state and job-state are normalized to keywords.
type Response struct {
	StatusCode          int
	Status              string
	OperationAttributes map[string]any
	PrinterAttributes   map[string]any
	JobAttributes       map[string]any
}

// Successful reports whether the status is one of the two success codes
// the controller accepts.
func (r *Response) Successful() bool {
	return r != nil && (r.Status == StatusSuccessfulOK || r.Status == StatusSuccessfulOKIgnoredAttributes)
}

// ProtocolClient executes a single IPP operation against printerURI.
// Implementations return *ProtocolError for transport failures and
// never retry.
type ProtocolClient interface {
	Execute(ctx context.Context, printerURI string, req *Request) (*Response, error)
}

// StringAttr returns attrs[name] as a string. Single-element slices are
// unwrapped.
func StringAttr(attrs map[string]any, name string) (string, bool) {
	v, ok := first(attrs, name)
	if !ok {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	return fmt.Sprint(v), true
}

// IntAttr returns attrs[name] as an int.
func IntAttr(attrs map[string]any, name string) (int, bool) {
	v, ok := first(attrs, name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// StringsAttr returns every value of attrs[name] as strings.
func StringsAttr(attrs map[string]any, name string) []string {
	v, ok := attrs[name]
	if !ok || v == nil {
		return nil
	}
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...)
	case []any:
		out := make([]string, 0, len(vs))
		for _, x := range vs {
			out = append(out, fmt.Sprint(x))
		}
		return out
	case string:
		return []string{vs}
	}
	return []string{fmt.Sprint(v)}
}

func first(attrs map[string]any, name string) (any, bool) {
	v, ok := attrs[name]
	if !ok || v == nil {
		return nil, false
	}
	switch vs := v.(type) {
	case []any:
		if len(vs) == 0 {
			return nil, false
		}
		return vs[0], true
	case []string:
		if len(vs) == 0 {
			return nil, false
		}
		return vs[0], true
	}
	return v, true
}
