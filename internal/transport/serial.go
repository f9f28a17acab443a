package transport

import (
	"fmt"

	"go.bug.st/serial"
)

func openSerial(t *Target) (serial.Port, error) {
	mode := &serial.Mode{
		BaudRate: t.BaudRate,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(t.Address, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", t.Address, err)
	}
	return port, nil
}

// Ports lists the serial ports present on this machine.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
