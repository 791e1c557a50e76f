package enc28j60

import "github.com/joshlf/enc28j60/internal/errors"

// ttlUnused marks a table entry that has never held a binding. It sorts
// below every aging value, so unused entries are evicted first.
const ttlUnused int8 = -1

type arpEntry struct {
	ip  IPv4
	mac MAC
	ttl int8
}

// arpCache is a fixed-capacity IPv4 to MAC table. Entries are overwritten in
// place and never removed.
type arpCache struct {
	entries []arpEntry
	maxTTL  int8
}

func newARPCache(n int, maxTTL int8) arpCache {
	c := arpCache{entries: make([]arpEntry, n), maxTTL: maxTTL}
	c.reset()
	return c
}

func (c *arpCache) reset() {
	for i := range c.entries {
		c.entries[i] = arpEntry{ttl: ttlUnused}
	}
}

// lookup returns the MAC bound to ip by a live entry, refreshing its ttl.
func (c *arpCache) lookup(ip IPv4) (MAC, bool) {
	for i := range c.entries {
		e := &c.entries[i]
		if e.ip == ip && e.ttl > 0 {
			e.ttl = c.maxTTL
			return e.mac, true
		}
	}
	return MAC{}, false
}

// tick ages every live entry by one.
func (c *arpCache) tick() {
	for i := range c.entries {
		if c.entries[i].ttl > 0 {
			c.entries[i].ttl--
		}
	}
}

// insert binds ip to mac in the entry with the smallest ttl, the first such
// entry on ties, and returns its index. An existing binding for ip elsewhere
// in the table is left alone.
func (c *arpCache) insert(ip IPv4, mac MAC) int {
	victim := 0
	for i := range c.entries {
		if c.entries[i].ttl < c.entries[victim].ttl {
			victim = i
		}
	}
	c.entries[victim] = arpEntry{ip: ip, mac: mac, ttl: c.maxTTL}
	return victim
}

// An ARPEntry is a snapshot of one ARP table entry. TTL is the remaining
// lifetime in seconds; 0 means expired and -1 means never used.
type ARPEntry struct {
	IP  IPv4
	MAC MAC
	TTL int
}

// Live reports whether e can satisfy a lookup.
func (e ARPEntry) Live() bool { return e.TTL > 0 }

// ARPEntries returns a snapshot of the ARP table in index order.
func (d *Driver) ARPEntries() []ARPEntry {
	ret := make([]ARPEntry, len(d.arp.entries))
	for i, e := range d.arp.entries {
		ret[i] = ARPEntry{IP: e.ip, MAC: e.mac, TTL: int(e.ttl)}
	}
	return ret
}

// WhoHas returns the MAC address bound to ip. On a hit the entry's lifetime
// is refreshed. On a miss an ARP request for ip is broadcast from transmit
// slot 0 and ok is false; the caller should call Loop and retry.
func (d *Driver) WhoHas(ip IPv4) (mac MAC, ok bool, err error) {
	if mac, ok = d.arp.lookup(ip); ok {
		return mac, true, nil
	}
	log.Debugf("who has %v? tell %v", ip, d.ip)
	err = d.sendARP(0, arpOpRequest, BroadcastMAC, MAC{}, ip)
	return MAC{}, false, errors.Annotatef(err, "resolve %v", ip)
}

// sendARP builds an ARP packet from the local addresses in the driver's
// staging buffer and transmits it from slot.
func (d *Driver) sendARP(slot int, op uint16, dst, tha MAC, tpa IPv4) error {
	b := d.txbuf[:]
	if err := writeEthernetHeader(ethernetHeader{dst: dst, src: d.mac, et: EtherTypeARP}, b); err != nil {
		return err
	}
	if err := writeARPHeader(newARPHeader(op, d.mac, d.ip, tha, tpa), b[ethernetHeaderLen:]); err != nil {
		return err
	}
	return d.Send(slot, b)
}

// handleARP processes the ARP packet in a header chunk. Replies are cached
// whoever they are addressed to; requests for the local address are answered
// if enabled.
func (d *Driver) handleARP(b []byte) {
	ah, err := parseARPHeader(b)
	if err != nil {
		log.Debugf("bad ARP packet: %v", err)
		return
	}
	if ah.HTYPE != arpHTYPEEthernet || ah.PTYPE != uint16(EtherTypeIPv4) {
		return
	}
	switch ah.OPER {
	case arpOpReply:
		d.onARPReply(ah)
	case arpOpRequest:
		if d.cfg.AnswerARP && ah.TPA == d.ip {
			log.Debugf("%v is at %v; telling %v", d.ip, d.mac, ah.SPA)
			// the request frame is still delivered if the reply cannot be sent
			if err := d.sendARP(1, arpOpReply, ah.SHA, ah.SHA, ah.SPA); err != nil {
				log.Warningf("answer ARP request from %v: %v", ah.SPA, err)
			}
		}
	}
}

func (d *Driver) onARPReply(ah arpHeader) {
	i := d.arp.insert(ah.SPA, ah.SHA)
	log.Debugf("ARP entry %v: %v is at %v", i, ah.SPA, ah.SHA)
}
