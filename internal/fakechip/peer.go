package fakechip

import "encoding/binary"

// A Peer is a simulated station on the same link as the chip. It answers
// ARP requests for its address by injecting a reply into the chip's receive
// ring.
type Peer struct {
	MAC [6]byte
	IP  [4]byte
	// Silent peers never answer.
	Silent bool
	// Requests counts the ARP requests for IP the peer has seen.
	Requests int
}

// AddPeer attaches p to the link.
func (c *Chip) AddPeer(p *Peer) { c.peers = append(c.peers, p) }

func (p *Peer) receive(c *Chip, frame []byte) {
	if len(frame) < 42 || binary.BigEndian.Uint16(frame[12:14]) != 0x0806 {
		return
	}
	arp := frame[14:42]
	if binary.BigEndian.Uint16(arp[6:8]) != 1 || string(arp[24:28]) != string(p.IP[:]) {
		return
	}
	p.Requests++
	if p.Silent {
		return
	}
	c.Inject(ARPReply(p.MAC, p.IP, arp[8:14], arp[14:18]))
}

// ARPReply builds an Ethernet frame carrying an ARP reply from sha/spa to
// tha/tpa.
func ARPReply(sha [6]byte, spa [4]byte, tha, tpa []byte) []byte {
	f := make([]byte, 42)
	copy(f[0:6], tha)
	copy(f[6:12], sha[:])
	binary.BigEndian.PutUint16(f[12:14], 0x0806)
	a := f[14:]
	binary.BigEndian.PutUint16(a[0:2], 1)
	binary.BigEndian.PutUint16(a[2:4], 0x0800)
	a[4], a[5] = 6, 4
	binary.BigEndian.PutUint16(a[6:8], 2)
	copy(a[8:14], sha[:])
	copy(a[14:18], spa[:])
	copy(a[18:24], tha)
	copy(a[24:28], tpa)
	return f
}
