package transport

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		want    *Target
		wantErr bool
	}{
		{
			name: "tcp default port",
			uri:  "tcp://192.168.1.20",
			want: &Target{Scheme: "tcp", Address: "192.168.1.20:9100"},
		},
		{
			name: "tcp explicit port",
			uri:  "tcp://printer.local:9200",
			want: &Target{Scheme: "tcp", Address: "printer.local:9200"},
		},
		{
			name: "usb default endpoint",
			uri:  "usb://04f9:2062",
			want: &Target{Scheme: "usb", VendorID: 0x04f9, Product: 0x2062, Endpoint: 2},
		},
		{
			name: "usb endpoint",
			uri:  "usb://04f9:2062?endpoint=0x01",
			want: &Target{Scheme: "usb", VendorID: 0x04f9, Product: 0x2062, Endpoint: 1},
		},
		{
			name: "usb hex product id",
			uri:  "usb://04F9:20af",
			want: &Target{Scheme: "usb", VendorID: 0x04f9, Product: 0x20af, Endpoint: 2},
		},
		{
			name: "serial",
			uri:  "serial:///dev/ttyUSB0?baud=115200",
			want: &Target{Scheme: "serial", Address: "/dev/ttyUSB0", BaudRate: 115200},
		},
		{
			name: "serial default baud",
			uri:  "serial:///dev/rfcomm0",
			want: &Target{Scheme: "serial", Address: "/dev/rfcomm0", BaudRate: 9600},
		},
		{name: "usb missing pid", uri: "usb://04f9", wantErr: true},
		{name: "usb bad vid", uri: "usb://zzzz:2062", wantErr: true},
		{name: "serial bad baud", uri: "serial:///dev/ttyS0?baud=fast", wantErr: true},
		{name: "tcp no host", uri: "tcp://", wantErr: true},
		{name: "unknown scheme", uri: "lpd://printer/queue", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnsupportedScheme(t *testing.T) {
	_, err := Parse("ipp://printer/ipp")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestSendTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		data, _ := io.ReadAll(conn)
		received <- data
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream := []byte{0x1B, 0x40, 0x1A}
	require.NoError(t, Send(ctx, "tcp://"+ln.Addr().String(), stream))

	select {
	case got := <-received:
		assert.Equal(t, stream, got)
	case <-ctx.Done():
		t.Fatal("device did not receive the stream")
	}
}

func TestSendTCPRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	err = Send(context.Background(), "tcp://"+addr, []byte{0x1A})
	assert.Error(t, err)
}
