package enc28j60

import (
	"github.com/joshlf/enc28j60/internal/errors"
	"github.com/joshlf/enc28j60/internal/parse"
)

const arpHeaderLen = 28

// frameARPLen is the length of an Ethernet frame carrying an ARP packet;
// the receive chunk must hold at least this much.
const frameARPLen = ethernetHeaderLen + arpHeaderLen

const (
	arpHTYPEEthernet = 1
	arpOpRequest     = 1
	arpOpReply       = 2
)

// https://en.wikipedia.org/wiki/Address_Resolution_Protocol#Packet_structure
type arpHeader struct {
	HTYPE, PTYPE uint16
	HLEN, PLEN   byte // HLEN is 6; PLEN is 4
	OPER         uint16
	SHA          MAC
	SPA          IPv4
	THA          MAC
	TPA          IPv4
}

func parseARPHeader(b []byte) (ah arpHeader, err error) {
	defer parse.Recover(&err)

	ah.HTYPE = parse.GetUint16(&b)
	ah.PTYPE = parse.GetUint16(&b)
	ah.HLEN = parse.GetByte(&b)
	ah.PLEN = parse.GetByte(&b)
	if ah.HLEN != 6 || ah.PLEN != 4 {
		return ah, errors.Errorf("parse ARP header: unsupported address lengths %v/%v", ah.HLEN, ah.PLEN)
	}
	ah.OPER = parse.GetUint16(&b)
	copy(ah.SHA[:], parse.GetBytes(&b, 6))
	copy(ah.SPA[:], parse.GetBytes(&b, 4))
	copy(ah.THA[:], parse.GetBytes(&b, 6))
	copy(ah.TPA[:], parse.GetBytes(&b, 4))
	return ah, nil
}

func writeARPHeader(ah arpHeader, b []byte) (err error) {
	defer parse.Recover(&err)

	parse.PutUint16(&b, ah.HTYPE)
	parse.PutUint16(&b, ah.PTYPE)
	parse.PutByte(&b, ah.HLEN)
	parse.PutByte(&b, ah.PLEN)
	parse.PutUint16(&b, ah.OPER)
	copy(parse.GetBytes(&b, 6), ah.SHA[:])
	copy(parse.GetBytes(&b, 4), ah.SPA[:])
	copy(parse.GetBytes(&b, 6), ah.THA[:])
	copy(parse.GetBytes(&b, 4), ah.TPA[:])
	return nil
}

// newARPHeader returns an Ethernet/IPv4 ARP header.
func newARPHeader(op uint16, sha MAC, spa IPv4, tha MAC, tpa IPv4) arpHeader {
	return arpHeader{
		HTYPE: arpHTYPEEthernet,
		PTYPE: uint16(EtherTypeIPv4),
		HLEN:  6,
		PLEN:  4,
		OPER:  op,
		SHA:   sha,
		SPA:   spa,
		THA:   tha,
		TPA:   tpa,
	}
}
