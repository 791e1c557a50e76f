package enc28j60

import "github.com/joshlf/enc28j60/internal/parse"

const (
	// length in bytes of an ethernet frame header
	// which does not include an IEEE 802.1Q tag
	ethernetHeaderLen = 14
)

// EtherType is a value of 1536 or greater which indicates
// the protocol type of a packet encapsulated in an ethernet frame.
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeIPv6 EtherType = 0x86DD
)

type ethernetHeader struct {
	dst, src MAC
	et       EtherType
}

func parseEthernetHeader(b []byte) (eh ethernetHeader, err error) {
	// the parse helpers panic with a short buffer
	// error if b is not long enough
	defer parse.Recover(&err)

	copy(eh.dst[:], parse.GetBytes(&b, 6))
	copy(eh.src[:], parse.GetBytes(&b, 6))
	eh.et = EtherType(parse.GetUint16(&b))
	return eh, nil
}

func writeEthernetHeader(eh ethernetHeader, b []byte) (err error) {
	defer parse.Recover(&err)

	copy(parse.GetBytes(&b, 6), eh.dst[:])
	copy(parse.GetBytes(&b, 6), eh.src[:])
	parse.PutUint16(&b, uint16(eh.et))
	return nil
}
