package main

import (
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/joshlf/enc28j60"
	"github.com/joshlf/enc28j60/internal/errors"
)

// A capture reassembles received frames from the driver's chunks. Complete
// frames are counted, optionally written to a pcap file, and optionally
// summarized to a writer.
type capture struct {
	frame []byte

	pcap   *pcapgo.Writer
	file   io.Closer
	dump   io.Writer
	frames int
	bytes  int
}

func (c *capture) startPcap(f io.WriteCloser, snaplen int) error {
	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(uint32(snaplen), layers.LinkTypeEthernet); err != nil {
		return errors.Annotate(err, "write pcap header")
	}
	c.pcap, c.file = w, f
	return nil
}

// HandleChunk implements enc28j60.ChunkHandler.
func (c *capture) HandleChunk(ch enc28j60.Chunk) {
	if ch.Kind == enc28j60.ChunkHeader {
		c.flush()
	}
	c.frame = append(c.frame, ch.Data...)
}

// flush completes the frame being reassembled, if any.
func (c *capture) flush() {
	if len(c.frame) == 0 {
		return
	}
	c.frames++
	c.bytes += len(c.frame)
	if c.pcap != nil {
		ci := gopacket.CaptureInfo{Timestamp: time.Now(), CaptureLength: len(c.frame), Length: len(c.frame)}
		if err := c.pcap.WritePacket(ci, c.frame); err != nil {
			log.Errorf("write pcap: %v", err)
		}
	}
	if c.dump != nil {
		fmt.Fprintln(c.dump, summarize(c.frame))
	}
	c.frame = c.frame[:0]
}

func (c *capture) close() error {
	c.flush()
	if c.file == nil {
		return nil
	}
	return errors.Annotate(c.file.Close(), "close pcap file")
}

// summarize describes a frame in one line.
func summarize(frame []byte) string {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)
	var names []string
	for _, l := range pkt.Layers() {
		names = append(names, l.LayerType().String())
	}
	s := fmt.Sprintf("%v %v", size(len(frame)), strings.Join(names, "/"))
	if eth, ok := pkt.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		s += fmt.Sprintf(" %v > %v", eth.SrcMAC, eth.DstMAC)
	}
	if arp, ok := pkt.Layer(layers.LayerTypeARP).(*layers.ARP); ok {
		switch arp.Operation {
		case layers.ARPRequest:
			s += fmt.Sprintf(": who has %v? tell %v", net.IP(arp.DstProtAddress), net.IP(arp.SourceProtAddress))
		case layers.ARPReply:
			s += fmt.Sprintf(": %v is at %v", net.IP(arp.SourceProtAddress), net.HardwareAddr(arp.SourceHwAddress))
		}
	}
	if ip, ok := pkt.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		s += fmt.Sprintf(": %v > %v %v", ip.SrcIP, ip.DstIP, ip.Protocol)
	}
	return s
}

func size(n int) string {
	return units.BytesSize(float64(n))
}
