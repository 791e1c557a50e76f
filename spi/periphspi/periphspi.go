// Package periphspi provides an spi.Port backed by a Linux SPI device and a
// GPIO chip-select line, using periph.io.
//
// The kernel's own chip select toggles on every ioctl, which would split the
// controller's multi-byte transactions, so chip select is driven from a
// separate GPIO and the SPI device should be wired (or configured) with its
// hardware chip select unused.
package periphspi

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/joshlf/enc28j60/internal/errors"
)

// A Port is an spi.Port on a Linux host. Each byte is a full-duplex transfer
// which has completed by the time Start returns. A failed transfer is
// latched: Done reports false until Err is called, so the transport gives up
// on the transaction, and Err returns the cause.
type Port struct {
	port spi.PortCloser
	conn spi.Conn
	cs   gpio.PinOut

	w, r [1]byte
	err  error
}

// Open opens the SPI port named port (for example "SPI0.0", or "" for the
// first available one) at speed hz, and the GPIO pin named cs (for example
// "GPIO25") to use as chip select. The controller runs in SPI mode 0.
func Open(port, cs string, hz int64) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "initialize host drivers")
	}
	pin := gpioreg.ByName(cs)
	if pin == nil {
		return nil, errors.Errorf("open chip select: no such pin %q", cs)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, errors.Annotate(err, "open chip select")
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, errors.Annotatef(err, "open spi port %q", port)
	}
	c, err := p.Connect(physic.Frequency(hz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, errors.Annotatef(err, "connect to spi port %q", port)
	}
	return &Port{port: p, conn: c, cs: pin}, nil
}

// Select drives the chip-select pin; the line is active low.
func (p *Port) Select(active bool) {
	level := gpio.High
	if active {
		level = gpio.Low
	}
	if err := p.cs.Out(level); err != nil && p.err == nil {
		p.err = errors.Annotate(err, "drive chip select")
	}
}

// Start performs the transfer of out synchronously.
func (p *Port) Start(out byte) {
	p.w[0] = out
	p.r[0] = 0
	if err := p.conn.Tx(p.w[:], p.r[:]); err != nil && p.err == nil {
		p.err = errors.Annotate(err, "spi transfer")
	}
}

// Done reports whether no error is latched; see Start.
func (p *Port) Done() bool { return p.err == nil }

// Data returns the byte read by the last transfer.
func (p *Port) Data() byte { return p.r[0] }

// Err returns and clears the first error encountered since the last call.
func (p *Port) Err() error {
	err := p.err
	p.err = nil
	return err
}

// Close releases the chip select and closes the SPI port.
func (p *Port) Close() error {
	p.Select(false)
	return errors.Annotate(p.port.Close(), "close spi port")
}
