package core

import (
	"context"
	"fmt"
)

// PrinterStatus is the subset of Get-Printer-Attributes the service
// reports.
type PrinterStatus struct {
	URI          string   `json:"uri"`
	Name         string   `json:"name"`
	State        string   `json:"state"`
	StateReasons []string `json:"state_reasons,omitempty"`
	MakeAndModel string   `json:"make_and_model,omitempty"`
}

// CanPrint reports whether a job may be submitted. Only an idle printer
// accepts work.
func (s *PrinterStatus) CanPrint() bool {
	return s != nil && s.State == PrinterStateIdle
}

// QueryStatus issues Get-Printer-Attributes against printerURI.
func QueryStatus(ctx context.Context, client ProtocolClient, printerURI string) (*PrinterStatus, error) {
	resp, err := client.Execute(ctx, printerURI, &Request{
		Operation: OpGetPrinterAttributes,
		OperationAttributes: map[string]any{
			"requested-attributes": []string{
				AttrPrinterName,
				AttrPrinterState,
				AttrPrinterStateReasons,
				AttrPrinterMakeModel,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query printer attributes: %w", err)
	}

	status := &PrinterStatus{URI: printerURI}
	status.Name, _ = StringAttr(resp.PrinterAttributes, AttrPrinterName)
	if status.Name == "" {
		status.Name = printerURI
	}
	status.State, _ = StringAttr(resp.PrinterAttributes, AttrPrinterState)
	if status.State == "" {
		status.State = "unknown"
	}
	status.StateReasons = StringsAttr(resp.PrinterAttributes, AttrPrinterStateReasons)
	status.MakeAndModel, _ = StringAttr(resp.PrinterAttributes, AttrPrinterMakeModel)
	return status, nil
}
