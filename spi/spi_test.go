package spi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoPort shifts back the complement of each byte after delay polls.
type echoPort struct {
	selected bool
	delay    int
	pending  int
	last     byte
	out      []byte
	selects  int
	stuck    bool
}

func (p *echoPort) Select(active bool) {
	if active {
		p.selects++
	}
	p.selected = active
}

func (p *echoPort) Start(out byte) {
	p.out = append(p.out, out)
	p.last = ^out
	p.pending = p.delay
}

func (p *echoPort) Done() bool {
	if p.stuck {
		return false
	}
	if p.pending > 0 {
		p.pending--
		return false
	}
	return true
}

func (p *echoPort) Data() byte { return p.last }

type countingIRQ struct{ disabled, restored int }

func (c *countingIRQ) Disable() uintptr { c.disabled++; return uintptr(c.disabled) }
func (c *countingIRQ) Restore(s uintptr) {
	c.restored++
}

func TestReadWrite(t *testing.T) {
	p := &echoPort{delay: 3}
	irq := &countingIRQ{}
	tr := NewTransport(p, irq)

	require.NoError(t, tr.Write([]byte{0x7A}, []byte{1, 2}))
	assert.Equal(t, []byte{0x7A, 1, 2}, p.out)
	assert.False(t, p.selected, "chip select must be released")

	p.out = nil
	dst := make([]byte, 2)
	require.NoError(t, tr.Read([]byte{0x3A}, dst))
	assert.Equal(t, []byte{0x3A, 0, 0}, p.out)
	assert.Equal(t, []byte{0xFF, 0xFF}, dst)
	assert.Equal(t, 2, irq.disabled)
	assert.Equal(t, 2, irq.restored)
	assert.Equal(t, 2, p.selects)
}

func TestUnresponsive(t *testing.T) {
	p := &echoPort{stuck: true}
	irq := &countingIRQ{}
	tr := NewTransport(p, irq)
	tr.Retries = 5

	err := tr.Write([]byte{0xFF}, nil)
	require.Error(t, err)
	assert.True(t, IsUnresponsive(err))
	// the bus is released even on the error path
	assert.False(t, p.selected)
	assert.Equal(t, irq.disabled, irq.restored)
}

func TestPollBound(t *testing.T) {
	tr := &Transport{Retries: 4}
	var calls int
	err := tr.Poll(func() bool { calls++; return false }, "busy")
	assert.True(t, IsUnresponsive(err))
	assert.Equal(t, 4, calls)

	calls = 0
	tr.Retries = 0
	err = tr.Poll(func() bool { calls++; return calls == 100 }, "busy")
	assert.NoError(t, err)
	assert.Equal(t, 100, calls)
}
