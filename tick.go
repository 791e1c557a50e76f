package enc28j60

import "time"

// ARP entries age by one every tickMillis.
const tickMillis = 1000

// A Clock is a free-running millisecond counter. It may wrap around.
type Clock interface {
	Millis() uint32
}

type wallClock struct{ start time.Time }

func newWallClock() wallClock { return wallClock{start: time.Now()} }

func (c wallClock) Millis() uint32 {
	return uint32(time.Since(c.start) / time.Millisecond)
}

// SetClock replaces the clock used to age the ARP cache. The next tick is
// due one second after the call.
func (d *Driver) SetClock(c Clock) {
	d.clock = c
	d.deadline = c.Millis() + tickMillis
}

// Loop drains at most one pending frame and, if a tick is due, ages the ARP
// cache once. Ticks missed because Loop was not called are caught up one per
// call. The tick runs even when receiving fails.
func (d *Driver) Loop() error {
	_, err := d.ReceiveChunk()
	d.pollTick()
	return err
}

func (d *Driver) pollTick() {
	// compare by difference so the deadline survives counter wraparound
	if int32(d.clock.Millis()-d.deadline) >= 0 {
		d.arp.tick()
		d.deadline += tickMillis
	}
}
