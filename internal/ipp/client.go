// Package ipp implements core.ProtocolClient on top of go-ipp's wire
// codec, sending requests over net/http so every operation honors the
// caller's context.
package ipp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	goipp "github.com/phin1x/go-ipp"

	"github.com/orrn/ptouch/internal/core"
)

const (
	defaultPort    = "631"
	contentTypeIPP = "application/ipp"
	defaultTimeout = 30 * time.Second
)

var operationCodes = map[core.Operation]int16{
	core.OpGetPrinterAttributes: int16(goipp.OperationGetPrinterAttributes),
	core.OpPrintJob:             int16(goipp.OperationPrintJob),
	core.OpGetJobAttributes:     int16(goipp.OperationGetJobAttributes),
	core.OpCancelJob:            int16(goipp.OperationCancelJob),
}

// go-ipp only encodes attributes it has a tag for.
func init() {
	goipp.AttributeTagMapping[core.AttrSides] = goipp.TagKeyword
}

// Client speaks IPP/1.1 over HTTP.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	requestID  atomic.Int32
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each HTTP exchange. It replaces the timeout of the
// current HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Execute encodes req, posts it to printerURI and decodes the reply.
// Any failure before a decoded response exists is a *core.ProtocolError.
func (c *Client) Execute(ctx context.Context, printerURI string, req *core.Request) (*core.Response, error) {
	resp, err := c.execute(ctx, printerURI, req)
	if err != nil {
		return nil, &core.ProtocolError{Operation: req.Operation, Err: err}
	}
	return resp, nil
}

func (c *Client) execute(ctx context.Context, printerURI string, req *core.Request) (*core.Response, error) {
	code, ok := operationCodes[req.Operation]
	if !ok {
		return nil, fmt.Errorf("unsupported operation %q", req.Operation)
	}
	endpoint, err := HTTPURL(printerURI)
	if err != nil {
		return nil, err
	}

	ippReq := goipp.NewRequest(code, c.requestID.Add(1))
	// go-ipp defaults to 2.0
	ippReq.ProtocolVersionMajor, ippReq.ProtocolVersionMinor = 1, 1
	ippReq.OperationAttributes[core.AttrPrinterURI] = printerURI
	for k, v := range req.OperationAttributes {
		ippReq.OperationAttributes[k] = encodeValue(k, v)
	}
	if len(req.JobAttributes) > 0 {
		ippReq.JobAttributes = make(map[string]interface{}, len(req.JobAttributes))
		for k, v := range req.JobAttributes {
			ippReq.JobAttributes[k] = encodeValue(k, v)
		}
	}

	payload, err := ippReq.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var body io.Reader = bytes.NewReader(payload)
	if len(req.Document) > 0 {
		body = io.MultiReader(body, bytes.NewReader(req.Document))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeIPP)
	httpReq.ContentLength = int64(len(payload) + len(req.Document))

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected http status %d", httpResp.StatusCode)
	}

	ippResp, err := goipp.NewResponseDecoder(httpResp.Body).Decode(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &core.Response{
		StatusCode:          int(ippResp.StatusCode),
		Status:              StatusKeyword(int(ippResp.StatusCode)),
		OperationAttributes: normalizeGroup(ippResp.OperationAttributes),
		PrinterAttributes:   normalizeGroups(ippResp.PrinterAttributes),
		JobAttributes:       normalizeGroups(ippResp.JobAttributes),
	}

	c.logger.Debug("ipp exchange",
		"operation", string(req.Operation),
		"status", out.Status,
		"duration", time.Since(start))
	return out, nil
}

// HTTPURL maps an ipp:// or ipps:// printer URI to the HTTP endpoint
// serving it. http and https URIs pass through unchanged.
func HTTPURL(printerURI string) (string, error) {
	u, err := url.Parse(printerURI)
	if err != nil {
		return "", fmt.Errorf("invalid printer uri %q: %w", printerURI, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid printer uri %q: missing host", printerURI)
	}

	switch u.Scheme {
	case "ipp":
		u.Scheme = "http"
	case "ipps":
		u.Scheme = "https"
	case "http", "https":
		return u.String(), nil
	default:
		return "", fmt.Errorf("invalid printer uri %q: unsupported scheme %q", printerURI, u.Scheme)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), defaultPort)
	}
	return u.String(), nil
}
