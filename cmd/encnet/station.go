package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joshlf/enc28j60"
	"github.com/joshlf/enc28j60/internal/errors"
	"github.com/joshlf/enc28j60/internal/fakechip"
	"github.com/joshlf/enc28j60/spi"
	"github.com/joshlf/enc28j60/spi/periphspi"
)

// A station is a brought-up driver together with its capture, and, in
// simulation, the simulated chip.
type station struct {
	syncer

	d    *enc28j60.Driver
	cap  *capture
	chip *fakechip.Chip
	port *periphspi.Port
}

// openStation opens the controller described by cfg (or a simulated one)
// and brings it up.
func openStation(cfg enc28j60.Config) (*station, error) {
	s := &station{}
	var p spi.Port
	if simulateFlag {
		s.chip = fakechip.New()
		ip, err := enc28j60.ParseIPv4(cfg.IP)
		if err != nil {
			return nil, errors.Annotate(err, "simulate")
		}
		for _, peer := range simPeers(ip, simPeersFlag) {
			s.chip.AddPeer(peer)
		}
		p = s.chip
	} else {
		port, err := periphspi.Open(cfg.SPIPort, cfg.ChipSelect, cfg.SPISpeed)
		if err != nil {
			return nil, err
		}
		s.port = port
		p = port
	}

	d, err := enc28j60.New(p, nil, cfg)
	if err != nil {
		s.close()
		return nil, err
	}
	s.d = d
	if _, err := d.Begin(); err != nil {
		s.close()
		return nil, s.annotate(err)
	}

	s.cap = &capture{}
	if pcapFlag != "" {
		f, err := os.Create(pcapFlag)
		if err != nil {
			s.close()
			return nil, errors.Annotate(err, "create pcap file")
		}
		if err := s.cap.startPcap(f, d.MaxFrame()); err != nil {
			f.Close()
			s.close()
			return nil, err
		}
	}
	d.Monitor(s.cap)
	return s, nil
}

// simPeers returns n simulated hosts numbered from 1 in ip's /24, skipping
// ip itself. The last host is silent when there are more than two.
func simPeers(ip enc28j60.IPv4, n int) []*fakechip.Peer {
	var peers []*fakechip.Peer
	for host := byte(1); len(peers) < n && host < 255; host++ {
		if host == ip[3] {
			continue
		}
		p := &fakechip.Peer{
			MAC: [6]byte{0x02, 0x5E, 0x00, 0x00, 0x00, host},
			IP:  [4]byte{ip[0], ip[1], ip[2], host},
		}
		peers = append(peers, p)
	}
	if len(peers) > 2 {
		peers[len(peers)-1].Silent = true
	}
	return peers
}

// annotate adds the latched transfer error of a hardware port to err.
func (s *station) annotate(err error) error {
	if err == nil || s.port == nil {
		return err
	}
	if perr := s.port.Err(); perr != nil {
		return errors.Annotatef(err, "%v", perr)
	}
	return err
}

// poll runs the driver loop until no frame is pending or limit loops have
// run. The caller must hold s's lock.
func (s *station) poll(limit int) error {
	for i := 0; i < limit; i++ {
		before := s.cap.frames
		err := s.d.Loop()
		s.cap.flush()
		if err != nil {
			return s.annotate(err)
		}
		if s.cap.frames == before {
			return nil
		}
	}
	return nil
}

// run polls the driver every interval until the daemons are stopped.
func (s *station) run(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-s.StopChan():
			return
		case <-t.C:
			s.Lock()
			err := s.poll(16)
			s.Unlock()
			if err != nil {
				log.Errorf("driver loop: %v", err)
			}
		}
	}
}

// resolve looks ip up, polling for a reply until timeout. The caller must
// hold s's lock.
func (s *station) resolve(ip enc28j60.IPv4, timeout time.Duration) (enc28j60.MAC, bool, error) {
	mac, ok, err := s.d.WhoHas(ip)
	if ok || err != nil {
		return mac, ok, s.annotate(err)
	}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := s.poll(16); err != nil {
			return mac, false, err
		}
		if mac, ok = lookup(s.d, ip); ok {
			return mac, true, nil
		}
		time.Sleep(time.Millisecond)
	}
	return mac, false, nil
}

// lookup searches the ARP table without refreshing or sending requests.
func lookup(d *enc28j60.Driver, ip enc28j60.IPv4) (enc28j60.MAC, bool) {
	for _, e := range d.ARPEntries() {
		if e.Live() && e.IP == ip {
			return e.MAC, true
		}
	}
	return enc28j60.MAC{}, false
}

func (s *station) close() {
	s.StopDaemons()
	if s.cap != nil {
		if err := s.cap.close(); err != nil {
			log.Errorf("close capture: %v", err)
		}
	}
	if s.port != nil {
		if err := s.port.Close(); err != nil {
			log.Errorf("close port: %v", err)
		}
	}
}

// printLayout describes the controller's memory layout.
func printLayout(w io.Writer, cfg enc28j60.Config) {
	fmt.Fprintf(w, "rx ring:   %#04x-%#04x (%v)\n", cfg.RxStart, cfg.RxEnd, size(int(cfg.RxEnd)-int(cfg.RxStart)+1))
	for i := 0; i < cfg.TxSlots; i++ {
		base := int(cfg.TxStart) + i*int(cfg.SlotSize)
		fmt.Fprintf(w, "tx slot %v: %#04x-%#04x (%v)\n", i, base, base+int(cfg.SlotSize)-1, size(int(cfg.SlotSize)))
	}
	used := int(cfg.RxEnd) - int(cfg.RxStart) + 1 + cfg.TxSlots*int(cfg.SlotSize)
	fmt.Fprintf(w, "free:      %v of %v\n", size(enc28j60.MemorySize-used), size(enc28j60.MemorySize))
}
