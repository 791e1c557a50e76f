package enc28j60

import (
	"fmt"
	gonet "net"

	"github.com/joshlf/enc28j60/internal/errors"
)

// MAC is an ethernet media access control address.
type MAC [6]byte

// BroadcastMAC is the broadcast MAC address.
var BroadcastMAC = MAC{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func (m MAC) String() string {
	return gonet.HardwareAddr(m[:]).String()
}

// ParseMAC parses a colon-, hyphen- or dot-separated 6-byte MAC address.
func ParseMAC(s string) (MAC, error) {
	hw, err := gonet.ParseMAC(s)
	if err != nil {
		return MAC{}, errors.Annotate(err, "parse MAC address")
	}
	if len(hw) != 6 {
		return MAC{}, errors.Errorf("parse MAC address: %v is not a 6-byte address", s)
	}
	var m MAC
	copy(m[:], hw)
	return m, nil
}

// IPv4 is an IPv4 address
type IPv4 [4]byte

// Uint32 returns ip as a single big endian integer.
func (ip IPv4) Uint32() uint32 {
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func (ip IPv4) String() string {
	return fmt.Sprintf("%v.%v.%v.%v", ip[0], ip[1], ip[2], ip[3])
}

// ParseIPv4 parses a dotted-decimal IPv4 address.
func ParseIPv4(s string) (IPv4, error) {
	ip := gonet.ParseIP(s).To4()
	if ip == nil {
		return IPv4{}, errors.Errorf("parse IPv4 address: invalid address %q", s)
	}
	var ret IPv4
	copy(ret[:], ip)
	return ret, nil
}
