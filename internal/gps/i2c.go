package gps

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// i2cChunk is the largest read the MT3333-family I2C interface serves per
// transaction.
const i2cChunk = 32

// i2cStream adapts a GtopI2C-class GPS module (PA1010D and friends at 0x10)
// to an io.ReadCloser. The module streams NMEA text over I2C and pads idle
// reads with newline bytes, which the sentence reader already skips.
type i2cStream struct {
	dev *i2c.Dev
	bus i2c.BusCloser
}

// NewI2CReceiver opens an I2C-attached receiver. An empty bus name selects
// the first available bus.
func NewI2CReceiver(busName string, addr uint16) (Receiver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("I2C bus open: %w", err)
	}

	s := &i2cStream{
		dev: &i2c.Dev{Bus: bus, Addr: addr},
		bus: bus,
	}
	return NewNMEAReceiver(s), nil
}

func (s *i2cStream) Read(p []byte) (int, error) {
	n := len(p)
	if n > i2cChunk {
		n = i2cChunk
	}
	if err := s.dev.Tx(nil, p[:n]); err != nil {
		return 0, fmt.Errorf("I2C read: %w", err)
	}
	return n, nil
}

func (s *i2cStream) Close() error {
	return s.bus.Close()
}
