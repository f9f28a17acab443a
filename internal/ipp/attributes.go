package ipp

import (
	"fmt"

	goipp "github.com/phin1x/go-ipp"

	"github.com/orrn/ptouch/internal/core"
)

var statusKeywords = map[int]string{
	0x0000: core.StatusSuccessfulOK,
	0x0001: core.StatusSuccessfulOKIgnoredAttributes,
	0x0002: "successful-ok-conflicting-attributes",
	0x0400: "client-error-bad-request",
	0x0401: "client-error-forbidden",
	0x0402: "client-error-not-authenticated",
	0x0403: "client-error-not-authorized",
	0x0404: "client-error-not-possible",
	0x0405: "client-error-timeout",
	0x0406: "client-error-not-found",
	0x0407: "client-error-gone",
	0x0408: "client-error-request-entity-too-large",
	0x0409: "client-error-request-value-too-long",
	0x040A: "client-error-document-format-not-supported",
	0x040B: "client-error-attributes-or-values-not-supported",
	0x040C: "client-error-uri-scheme-not-supported",
	0x040D: "client-error-charset-not-supported",
	0x040E: "client-error-conflicting-attributes",
	0x040F: "client-error-compression-not-supported",
	0x0410: "client-error-compression-error",
	0x0411: "client-error-document-format-error",
	0x0412: "client-error-document-access-error",
	0x0500: "server-error-internal-error",
	0x0501: "server-error-operation-not-supported",
	0x0502: "server-error-service-unavailable",
	0x0503: "server-error-version-not-supported",
	0x0504: "server-error-device-error",
	0x0505: "server-error-temporary-error",
	0x0506: "server-error-not-accepting-jobs",
	0x0507: "server-error-busy",
	0x0508: "server-error-job-canceled",
	0x0509: "server-error-multiple-document-jobs-not-supported",
}

// enumKeywords lists the enum attributes whose integer values are
// reported as keywords.
var enumKeywords = map[string]map[int]string{
	core.AttrPrinterState: {
		3: core.PrinterStateIdle,
		4: core.PrinterStateProcessing,
		5: core.PrinterStateStopped,
	},
	core.AttrJobState: {
		3: core.IPPJobStatePending,
		4: core.IPPJobStateHeld,
		5: core.IPPJobStateProcessing,
		6: core.IPPJobStateStopped,
		7: core.IPPJobStateCanceled,
		8: core.IPPJobStateAborted,
		9: core.IPPJobStateCompleted,
	},
	core.AttrOrientation: {
		3: "portrait",
		4: "landscape",
		5: "reverse-landscape",
		6: "reverse-portrait",
	},
}

// StatusKeyword returns the RFC 8011 keyword for an IPP status code.
func StatusKeyword(code int) string {
	if kw, ok := statusKeywords[code]; ok {
		return kw
	}
	return fmt.Sprintf("0x%04x", code)
}

// EnumValue resolves keyword for the enum attribute name.
func EnumValue(name, keyword string) (int, bool) {
	for v, kw := range enumKeywords[name] {
		if kw == keyword {
			return v, true
		}
	}
	return 0, false
}

// encodeValue converts keyword values of enum attributes to the integer
// the wire format carries. Everything else is passed to go-ipp as is.
func encodeValue(name string, v any) any {
	if s, ok := v.(string); ok {
		if n, ok := EnumValue(name, s); ok {
			return n
		}
	}
	return v
}

func normalizeGroups(groups []goipp.Attributes) map[string]any {
	out := make(map[string]any)
	for _, g := range groups {
		for name, v := range normalizeGroup(g) {
			out[name] = v
		}
	}
	return out
}

func normalizeGroup(group goipp.Attributes) map[string]any {
	out := make(map[string]any, len(group))
	for name, attrs := range group {
		values := make([]any, 0, len(attrs))
		for _, a := range attrs {
			values = append(values, normalizeValue(name, a.Value))
		}
		switch len(values) {
		case 0:
		case 1:
			out[name] = values[0]
		default:
			out[name] = values
		}
	}
	return out
}

func normalizeValue(name string, v any) any {
	table, ok := enumKeywords[name]
	if !ok {
		return v
	}
	n, ok := toInt(v)
	if !ok {
		return v
	}
	if kw, ok := table[n]; ok {
		return kw
	}
	return n
}

func toInt(v any) (int, bool) {
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
	}
	return 0, false
}
