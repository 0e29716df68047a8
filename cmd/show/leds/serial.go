package leds

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"go.bug.st/serial"
)

// Serial drives a strip through a microcontroller on a serial port. Each Show
// sends one CmdShow frame carrying every pixel.
type Serial struct {
	*Buffer

	port  io.WriteCloser
	order Order
	name  string

	closeOnce sync.Once
	closeErr  error
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(device string, baud, count int, order Order) (*Serial, error) {
	p, err := serial.Open(device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", device, err)
	}
	slog.Debug("serial: port opened", "device", device, "baud", baud)
	return NewSerial(device, p, count, order), nil
}

// NewSerial wraps an already open port.
func NewSerial(name string, port io.WriteCloser, count int, order Order) *Serial {
	return &Serial{
		Buffer: NewBuffer(count),
		port:   port,
		order:  order,
		name:   name,
	}
}

func (s *Serial) Show() error {
	frame, err := EncodeFrame(CmdShow, s.Encode(s.order))
	if err != nil {
		return err
	}
	if _, err := s.port.Write(frame); err != nil {
		return fmt.Errorf("serial write to %s failed: %w", s.name, err)
	}
	return nil
}

// Clear asks the controller to switch every LED off, regardless of the
// buffer contents.
func (s *Serial) Clear() error {
	frame, err := EncodeFrame(CmdClear, nil)
	if err != nil {
		return err
	}
	_, err = s.port.Write(frame)
	return err
}

func (s *Serial) Close() error {
	s.closeOnce.Do(func() {
		slog.Debug("serial: closing port", "device", s.name)
		s.closeErr = s.port.Close()
	})
	return s.closeErr
}
