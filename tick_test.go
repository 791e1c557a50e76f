package enc28j60

import (
	"testing"

	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshlf/enc28j60/internal/fakechip"
)

type fakeClock struct{ ms uint32 }

func (c *fakeClock) Millis() uint32 { return c.ms }

func TestLoopTicks(t *testing.T) {
	for _, start := range []uint32{0, 0xFFFFFFFF - 1500} {
		d, _ := newTestDriver(t, nil)
		clk := &fakeClock{ms: start}
		d.SetClock(clk)
		d.arp.insert(IPv4{10, 0, 0, 1}, MAC{1})
		ttl := func() int8 { return d.arp.entries[0].ttl }

		clk.ms += 999
		require.NoError(t, d.Loop())
		assert.Equal(t, int8(120), ttl(), "start %#x", start)

		clk.ms++
		require.NoError(t, d.Loop())
		assert.Equal(t, int8(119), ttl(), "start %#x", start)

		// the counter wraps during the next second when starting near the top
		clk.ms += 1000
		require.NoError(t, d.Loop())
		assert.Equal(t, int8(118), ttl(), "start %#x", start)

		// three missed seconds are caught up one per call
		clk.ms += 3000
		for i := 0; i < 5; i++ {
			require.NoError(t, d.Loop())
		}
		assert.Equal(t, int8(115), ttl(), "start %#x", start)
	}
}

func TestTTLNonIncreasing(t *testing.T) {
	d, _ := newTestDriver(t, nil)
	clk := &fakeClock{}
	d.SetClock(clk)
	d.arp.insert(IPv4{10, 0, 0, 1}, MAC{1})
	prev := d.arp.entries[0].ttl
	for i := 0; i < 300; i++ {
		clk.ms += 1000
		require.NoError(t, d.Loop())
		ttl := d.arp.entries[0].ttl
		assert.True(t, ttl <= prev && ttl >= 0, "ttl went from %v to %v", prev, ttl)
		prev = ttl
	}
	assert.Equal(t, int8(0), prev)
}

// stuckWrites is a chip whose buffer-memory write transactions never
// complete.
type stuckWrites struct {
	*fakechip.Chip
	first, stuck bool
}

func (c *stuckWrites) Select(active bool) {
	c.first, c.stuck = active, false
	c.Chip.Select(active)
}

func (c *stuckWrites) Start(out byte) {
	if c.first && out == opWriteBufMem {
		c.stuck = true
	}
	c.first = false
	c.Chip.Start(out)
}

func (c *stuckWrites) Done() bool { return !c.stuck && c.Chip.Done() }

func TestLoopTicksWhenARPAnswerFails(t *testing.T) {
	cfg := testConfig()
	cfg.AnswerARP = true
	chip := &stuckWrites{Chip: fakechip.New()}
	d, err := New(chip, nil, cfg)
	require.NoError(t, err)
	_, err = d.Begin()
	require.NoError(t, err)

	clk := &fakeClock{}
	d.SetClock(clk)
	d.arp.insert(IPv4{10, 0, 0, 1}, MAC{1})
	var mon recorder
	d.Monitor(&mon)

	req := arpFrame(t, layers.ARPRequest, peerMAC, IPv4{192, 168, 1, 7}, MAC{}, d.IP())
	copy(req[0:6], BroadcastMAC[:])
	for i := 0; i < 5; i++ {
		require.True(t, chip.Inject(req))
		clk.ms += 1000
		assert.NoError(t, d.Loop(), "loop %v", i)
	}
	assert.Equal(t, int8(115), d.arp.entries[0].ttl)
	assert.Empty(t, chip.Sent())
	// every request frame was still delivered in full
	assert.Len(t, mon.kinds, 5)
	assert.Equal(t, 0, chip.PacketCount())
}

func TestLoopTicksWhenReceiveFails(t *testing.T) {
	d, chip := newTestDriver(t, nil)
	clk := &fakeClock{}
	d.SetClock(clk)
	d.arp.insert(IPv4{10, 0, 0, 1}, MAC{1})

	chip.Dead = true
	for i := 0; i < 3; i++ {
		clk.ms += 1000
		err := d.Loop()
		require.Error(t, err)
		assert.True(t, IsUnresponsive(err), "unexpected error: %v", err)
	}
	assert.Equal(t, int8(117), d.arp.entries[0].ttl)
}
