// Package spi implements the byte-level serial transport used to talk to the
// Ethernet controller.
//
// A Port is the raw peripheral: a data register, a transfer-complete flag and
// a chip-select line. A Transport layers the controller's framing on top of
// a Port: every transaction masks interrupts and asserts chip select for its
// whole duration, and every byte waits for the transfer-complete flag.
//
// On a microcontroller the wait is a tight poll of a status register. The
// number of polls is bounded by Transport.Retries so that a wedged chip is
// reported as an error (see IsUnresponsive) rather than hanging forever.
// Setting Retries to zero restores the unbounded wait.
package spi

import (
	"github.com/joshlf/enc28j60/internal/errors"
)

// A Port is a synchronous serial bus peripheral with a single attached chip.
type Port interface {
	// Select drives the chip-select line. Select(true) asserts it
	// (the chip listens); Select(false) releases it.
	Select(active bool)
	// Start begins shifting out a byte. The byte shifted in at the same
	// time is available from Data once Done reports true.
	Start(out byte)
	// Done reports whether the transfer begun by the last Start has
	// completed.
	Done() bool
	// Data returns the byte shifted in by the last completed transfer.
	Data() byte
}

// An IRQ masks and restores interrupts around bus transactions.
type IRQ interface {
	// Disable masks interrupts and returns the previous state.
	Disable() uintptr
	// Restore restores the state returned by Disable.
	Restore(state uintptr)
}

// NoIRQ is an IRQ for environments without interrupts to mask, such as a
// hosted operating system.
var NoIRQ IRQ = noIRQ{}

type noIRQ struct{}

func (noIRQ) Disable() uintptr { return 0 }
func (noIRQ) Restore(uintptr)  {}

// DefaultRetries is the default bound on busy-wait polls.
const DefaultRetries = 10000

// A Transport performs chip-select gated transactions on a Port.
//
// A Transport is not safe for concurrent access.
type Transport struct {
	Port Port
	IRQ  IRQ
	// Retries bounds every busy-wait poll; 0 means wait forever.
	Retries int
}

// NewTransport returns a Transport on p with interrupts handled by irq
// (NoIRQ if nil) and DefaultRetries.
func NewTransport(p Port, irq IRQ) *Transport {
	if irq == nil {
		irq = NoIRQ
	}
	return &Transport{Port: p, IRQ: irq, Retries: DefaultRetries}
}

// Acquire masks interrupts and asserts chip select. The returned function
// releases chip select and restores interrupts; callers defer it so that the
// bus is released on every return path.
func (t *Transport) Acquire() (release func()) {
	state := t.IRQ.Disable()
	t.Port.Select(true)
	return func() {
		t.Port.Select(false)
		t.IRQ.Restore(state)
	}
}

// Transfer shifts out b and returns the byte shifted in. The bus must have
// been acquired.
func (t *Transport) Transfer(b byte) (byte, error) {
	t.Port.Start(b)
	if err := t.Poll(func() bool { return t.Port.Done() }, "spi transfer"); err != nil {
		return 0, err
	}
	return t.Port.Data(), nil
}

// Poll calls ready until it returns true, at most t.Retries times (forever
// if t.Retries is 0). If the bound is exhausted, Poll returns an error for
// which IsUnresponsive is true, naming what in the message.
func (t *Transport) Poll(ready func() bool, what string) error {
	for i := 0; t.Retries == 0 || i < t.Retries; i++ {
		if ready() {
			return nil
		}
	}
	return errors.Unresponsivef("%v: no response after %v polls", what, t.Retries)
}

// Write runs one transaction which shifts out cmd followed by src.
func (t *Transport) Write(cmd []byte, src []byte) error {
	release := t.Acquire()
	defer release()
	for _, c := range cmd {
		if _, err := t.Transfer(c); err != nil {
			return err
		}
	}
	for _, c := range src {
		if _, err := t.Transfer(c); err != nil {
			return err
		}
	}
	return nil
}

// Read runs one transaction which shifts out cmd and then fills dst with the
// bytes clocked in while shifting out zeros.
func (t *Transport) Read(cmd []byte, dst []byte) error {
	release := t.Acquire()
	defer release()
	for _, c := range cmd {
		if _, err := t.Transfer(c); err != nil {
			return err
		}
	}
	for i := range dst {
		c, err := t.Transfer(0)
		if err != nil {
			return err
		}
		dst[i] = c
	}
	return nil
}

// IsUnresponsive returns true if err was caused by an exhausted busy-wait.
func IsUnresponsive(err error) bool {
	return errors.IsUnresponsive(err)
}
