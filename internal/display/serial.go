package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/envmon/internal/env"
)

// Serial mirrors the display lines onto a serial console.
type Serial struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// OpenSerial opens portName at baud, 8N1.
func OpenSerial(portName string, baud uint) (*Serial, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:        portName,
		BaudRate:        baud,
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: serial open %s: %w", ErrHardwareFault, portName, err)
	}
	return NewSerial(port), nil
}

// NewSerial wraps an already open port.
func NewSerial(w io.WriteCloser) *Serial {
	return &Serial{w: w}
}

func (s *Serial) Render(r env.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := io.WriteString(s.w, strings.Join(Lines(r), "  ")+"\r\n")
	return err
}

func (s *Serial) Close() error {
	return s.w.Close()
}
