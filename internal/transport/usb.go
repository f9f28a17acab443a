package transport

import (
	"fmt"

	"github.com/google/gousb"
)

type usbWriter struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
}

func openUSB(t *Target) (*usbWriter, error) {
	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(gousb.ID(t.VendorID), gousb.ID(t.Product))
	if err != nil {
		ctx.Close()
		return nil, fmt.Errorf("failed to open usb device %04x:%04x: %w", t.VendorID, t.Product, err)
	}
	if dev == nil {
		ctx.Close()
		return nil, fmt.Errorf("usb device %04x:%04x not found", t.VendorID, t.Product)
	}

	w := &usbWriter{ctx: ctx, dev: dev}
	dev.SetAutoDetach(true)

	w.cfg, err = dev.Config(1)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to select usb config: %w", err)
	}
	w.intf, err = w.cfg.Interface(0, 0)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to claim usb interface: %w", err)
	}
	w.out, err = w.intf.OutEndpoint(t.Endpoint)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to open usb endpoint %d: %w", t.Endpoint, err)
	}
	return w, nil
}

func (u *usbWriter) Write(p []byte) (int, error) {
	return u.out.Write(p)
}

func (u *usbWriter) Close() error {
	if u.intf != nil {
		u.intf.Close()
	}
	if u.cfg != nil {
		u.cfg.Close()
	}
	if u.dev != nil {
		u.dev.Close()
	}
	return u.ctx.Close()
}
