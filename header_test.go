package enc28j60

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/joshlf/enc28j60/internal/errors"
)

func TestEthernetHeader(t *testing.T) {
	eh := ethernetHeader{dst: BroadcastMAC, src: peerMAC, et: EtherTypeARP}
	buf := make([]byte, ethernetHeaderLen)
	if err := writeEthernetHeader(eh, buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pkt := gopacket.NewPacket(buf, layers.LayerTypeEthernet, gopacket.NoCopy)
	eth, ok := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok {
		t.Fatalf("gopacket could not decode %x", buf)
	}
	if eth.EthernetType != layers.EthernetTypeARP || eth.SrcMAC.String() != peerMAC.String() {
		t.Errorf("unexpected decoding: %v %v", eth.EthernetType, eth.SrcMAC)
	}

	got, err := parseEthernetHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != eh {
		t.Errorf("parsed header isn't equivalent to input: got %+v; want %+v", got, eh)
	}
}

func TestShortHeaders(t *testing.T) {
	if _, err := parseEthernetHeader(make([]byte, ethernetHeaderLen-1)); !errors.IsShort(err) {
		t.Errorf("unexpected error for short ethernet header: %v", err)
	}
	if err := writeEthernetHeader(ethernetHeader{}, make([]byte, 3)); !errors.IsShort(err) {
		t.Errorf("unexpected error for short ethernet buffer: %v", err)
	}
	if _, err := parseARPHeader(make([]byte, arpHeaderLen-1)); err == nil {
		t.Error("expected error for short ARP header")
	}
	if err := writeARPHeader(arpHeader{}, make([]byte, arpHeaderLen-1)); !errors.IsShort(err) {
		t.Errorf("unexpected error for short ARP buffer: %v", err)
	}
}

func TestARPHeader(t *testing.T) {
	ah := newARPHeader(arpOpReply, peerMAC, IPv4{10, 0, 0, 1}, MAC{2, 0, 0, 0, 0, 1}, IPv4{10, 0, 0, 2})
	buf := make([]byte, arpHeaderLen)
	if err := writeARPHeader(ah, buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := parseARPHeader(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != ah {
		t.Errorf("parsed header isn't equivalent to input: got %+v; want %+v", got, ah)
	}

	// unsupported address lengths
	buf[4] = 8
	if _, err := parseARPHeader(buf); err == nil {
		t.Error("expected error for 8-byte hardware addresses")
	}
}

func TestRxDesc(t *testing.T) {
	next, count, status, err := parseRxDesc([]byte{0x3C, 0x00, 0x2E, 0x00, 0x80, 0x00})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 60 || count != 46 || status != 0x80 {
		t.Errorf("unexpected descriptor: next %v, count %v, status %#x", next, count, status)
	}
	if _, _, _, err := parseRxDesc([]byte{1, 2, 3}); !errors.IsShort(err) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseAddrs(t *testing.T) {
	mac, err := ParseMAC("02-aa-bb-cc-dd-ee")
	if err != nil || mac != peerMAC {
		t.Errorf("unexpected result: %v, %v", mac, err)
	}
	if mac.String() != "02:aa:bb:cc:dd:ee" {
		t.Errorf("unexpected string: %v", mac)
	}
	ip, err := ParseIPv4("192.168.1.99")
	if err != nil || ip != (IPv4{192, 168, 1, 99}) {
		t.Errorf("unexpected result: %v, %v", ip, err)
	}
	if ip.Uint32() != 0xC0A80163 || ip.String() != "192.168.1.99" {
		t.Errorf("unexpected conversions: %#x %v", ip.Uint32(), ip)
	}
	if _, err := ParseIPv4("::1"); err == nil {
		t.Error("expected error for IPv6 address")
	}
}
