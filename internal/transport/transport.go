// Package transport writes a compiled command stream straight to a
// device, bypassing IPP. Supported URIs:
//
//	tcp://host[:port]            raw socket, port 9100 by default
//	usb://VID:PID[?endpoint=N]   bulk OUT endpoint via libusb
//	serial:///dev/ttyX[?baud=N]  serial line, 9600 baud by default
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultRawPort  = "9100"
	defaultBaudRate = 9600
	defaultEndpoint = 0x02
	dialTimeout     = 10 * time.Second
)

var ErrUnsupportedScheme = errors.New("unsupported device scheme")

// Target is a parsed device URI.
type Target struct {
	Scheme   string
	Address  string
	VendorID uint16
	Product  uint16
	Endpoint int
	BaudRate int
}

// Parse validates a device URI.
func Parse(deviceURI string) (*Target, error) {
	if rest, ok := strings.CutPrefix(deviceURI, "usb://"); ok {
		return parseUSB(deviceURI, rest)
	}

	u, err := url.Parse(deviceURI)
	if err != nil {
		return nil, fmt.Errorf("invalid device uri %q: %w", deviceURI, err)
	}

	t := &Target{Scheme: u.Scheme}
	switch u.Scheme {
	case "tcp":
		if u.Hostname() == "" {
			return nil, fmt.Errorf("invalid device uri %q: missing host", deviceURI)
		}
		port := u.Port()
		if port == "" {
			port = defaultRawPort
		}
		t.Address = net.JoinHostPort(u.Hostname(), port)
	case "serial":
		if u.Path == "" {
			return nil, fmt.Errorf("invalid device uri %q: missing port path", deviceURI)
		}
		t.Address = u.Path
		t.BaudRate = defaultBaudRate
		if b := u.Query().Get("baud"); b != "" {
			n, err := strconv.Atoi(b)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("invalid baud rate %q", b)
			}
			t.BaudRate = n
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return t, nil
}

// parseUSB handles usb://VID:PID by hand since net/url rejects hex
// digits in what it takes for a port.
func parseUSB(deviceURI, rest string) (*Target, error) {
	ids, rawQuery, _ := strings.Cut(rest, "?")
	vid, pid, ok := strings.Cut(ids, ":")
	if !ok {
		return nil, fmt.Errorf("invalid device uri %q: expected usb://VID:PID", deviceURI)
	}
	v, err := strconv.ParseUint(vid, 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid vendor id %q: %w", vid, err)
	}
	p, err := strconv.ParseUint(pid, 16, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid product id %q: %w", pid, err)
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("invalid device uri %q: %w", deviceURI, err)
	}

	t := &Target{
		Scheme:   "usb",
		VendorID: uint16(v),
		Product:  uint16(p),
		Endpoint: defaultEndpoint,
	}
	if ep := query.Get("endpoint"); ep != "" {
		n, err := strconv.ParseUint(ep, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint %q: %w", ep, err)
		}
		t.Endpoint = int(n)
	}
	return t, nil
}

// Open connects to the device named by deviceURI.
func Open(ctx context.Context, deviceURI string) (io.WriteCloser, error) {
	t, err := Parse(deviceURI)
	if err != nil {
		return nil, err
	}

	switch t.Scheme {
	case "tcp":
		d := net.Dialer{Timeout: dialTimeout}
		conn, err := d.DialContext(ctx, "tcp", t.Address)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", t.Address, err)
		}
		if deadline, ok := ctx.Deadline(); ok {
			conn.SetWriteDeadline(deadline)
		}
		return conn, nil
	case "usb":
		w, err := openUSB(t)
		if err != nil {
			return nil, err
		}
		return w, nil
	default:
		port, err := openSerial(t)
		if err != nil {
			return nil, err
		}
		return port, nil
	}
}

// Send writes stream to the device in one pass and closes it.
func Send(ctx context.Context, deviceURI string, stream []byte) error {
	w, err := Open(ctx, deviceURI)
	if err != nil {
		return err
	}

	n, err := w.Write(stream)
	if err == nil && n < len(stream) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.Close()
		return fmt.Errorf("failed to write to device: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close device: %w", err)
	}
	return nil
}
