// Package enc28j60 is a link-layer driver for the Microchip ENC28J60
// stand-alone Ethernet controller, attached over SPI.
//
// The driver owns the controller's registers and packet memory. It receives
// frames by streaming them through a small fixed-size buffer (see Receive
// and ReceiveChunk), transmits frames staged in fixed transmit slots (see
// WriteSlot and PacketSend), and resolves IPv4 addresses to MAC addresses
// with a small ARP cache whose entries age once per second (see WhoHas and
// Loop).
//
// A Driver is single-threaded: it is not safe for concurrent access, and
// handlers must not call back into it except to transmit. Callers typically
// call Loop repeatedly from one goroutine.
package enc28j60

import (
	"github.com/op/go-logging"

	"github.com/joshlf/enc28j60/internal/errors"
	"github.com/joshlf/enc28j60/spi"
)

var log = logging.MustGetLogger("enc28j60")

// A Driver drives one controller.
type Driver struct {
	t   *spi.Transport
	cfg Config

	// bank select bits last written to ECON1; valid if bankKnown
	bank      byte
	bankKnown bool

	mac MAC
	ip  IPv4
	rev byte

	// next is the address of the next unread frame's descriptor
	next uint16

	chunk  []byte
	reader FrameReader
	txbuf  [frameARPLen]byte
	arp    arpCache

	broadcast     bool // persistent broadcast acceptance
	tempBroadcast bool // broadcast accepted for the next inbound frame only
	multicast     bool

	handlers map[EtherType]ChunkHandler
	monitor  ChunkHandler

	clock    Clock
	deadline uint32
}

// New creates a driver for the controller on port p, masking interrupts with
// irq (spi.NoIRQ if nil) around bus transactions. The controller is not
// touched until Begin is called.
func New(p spi.Port, irq spi.IRQ, cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Annotate(err, "create driver")
	}
	// Validate has already checked these
	mac, _ := ParseMAC(cfg.MAC)
	ip, _ := ParseIPv4(cfg.IP)

	t := spi.NewTransport(p, irq)
	t.Retries = cfg.BusyRetries
	d := &Driver{
		t:         t,
		cfg:       cfg,
		mac:       mac,
		ip:        ip,
		chunk:     make([]byte, cfg.ChunkSize),
		arp:       newARPCache(cfg.ARPEntries, int8(cfg.ARPTTL)),
		broadcast: cfg.Broadcast,
		handlers:  make(map[EtherType]ChunkHandler),
		clock:     newWallClock(),
	}
	return d, nil
}

// Begin resets and configures the controller, programs the station address,
// and enables reception. It returns the silicon revision, corrected for the
// revision numbers Microchip skipped (a raw value above 5 is one less than
// the real revision). All driver state is reset: every ARP entry becomes
// unused and the receive pointer returns to the start of the receive ring.
func (d *Driver) Begin() (rev byte, err error) {
	d.bankKnown = false
	d.tempBroadcast = false
	d.arp.reset()
	d.next = d.cfg.RxStart
	d.deadline = d.clock.Millis() + tickMillis

	if err = d.writeOp(opSoftReset, 0, opSoftReset); err != nil {
		return 0, errors.Annotate(err, "reset controller")
	}
	// the chip comes back with bank 0 selected
	d.bank, d.bankKnown = 0, true
	resetDelay()

	// Waits while ESTAT reads all zeros, not for CLKRDY specifically.
	var rerr error
	err = d.t.Poll(func() bool {
		v, e := d.readRegByte(regESTAT)
		if e != nil {
			rerr = e
			return true
		}
		return v != 0
	}, "wait for clock ready")
	if rerr != nil {
		err = rerr
	}
	if err != nil {
		return 0, errors.Annotate(err, "bring up controller")
	}

	b := batch{d: d}
	b.writeReg(regERXST, d.cfg.RxStart)
	b.writeReg(regERXRDPT, d.cfg.RxStart)
	b.writeReg(regERXND, d.cfg.RxEnd)
	b.writeReg(regETXST, d.cfg.TxStart)
	b.writeReg(regETXND, d.cfg.TxStart)
	b.writePhy(phyPHLCON, phlconStretch)
	b.writeRegByte(regERXFCON, d.filterBits())
	// pattern match: broadcast ARP frames pass even with broadcast disabled
	b.writeReg(regEPMM0, 0x303f)
	b.writeReg(regEPMCS, 0xf7f9)
	macon1 := byte(macon1MARXEN)
	macon3 := byte(macon3PADCFG0 | macon3TXCRCEN | macon3FRMLNEN)
	if d.cfg.FullDuplex {
		macon1 |= macon1TXPAUS | macon1RXPAUS
		macon3 |= macon3FULDPX
	}
	b.writeRegByte(regMACON1, macon1)
	b.writeOp(opBitFieldSet, regMACON3, macon3)
	if d.cfg.FullDuplex {
		b.writeReg(regMAIPG, 0x0012)
		b.writeRegByte(regMABBIPG, 0x15)
	} else {
		b.writeReg(regMAIPG, 0x0C12)
		b.writeRegByte(regMABBIPG, 0x12)
	}
	b.writeReg(regMAMXFL, maxFrameLen)
	b.writeRegByte(regMAADR5, d.mac[0])
	b.writeRegByte(regMAADR4, d.mac[1])
	b.writeRegByte(regMAADR3, d.mac[2])
	b.writeRegByte(regMAADR2, d.mac[3])
	b.writeRegByte(regMAADR1, d.mac[4])
	b.writeRegByte(regMAADR0, d.mac[5])
	if d.cfg.FullDuplex {
		b.writePhy(phyPHCON1, phcon1PDPXMD)
	} else {
		b.writePhy(phyPHCON2, phcon2HDLDIS)
	}
	b.writeOp(opBitFieldSet, regEIE, eieINTIE|eiePKTIE)
	b.writeOp(opBitFieldSet, regECON1, econ1RXEN)
	if b.err != nil {
		return 0, errors.Annotate(b.err, "bring up controller")
	}

	rev, err = d.readRegByte(regEREVID)
	if err != nil {
		return 0, errors.Annotate(err, "read revision")
	}
	if rev > 5 {
		rev++
	}
	d.rev = rev
	log.Infof("controller up: revision %v, mac %v, ip %v", rev, d.mac, d.ip)
	return rev, nil
}

// Revision returns the revision reported by the last Begin.
func (d *Driver) Revision() byte { return d.rev }

// MAC returns the station address.
func (d *Driver) MAC() MAC { return d.mac }

// IP returns the local IPv4 address.
func (d *Driver) IP() IPv4 { return d.ip }

// Config returns the driver's configuration.
func (d *Driver) Config() Config { return d.cfg }

// IsUnresponsive returns true if err was caused by the controller failing to
// clear a busy condition within the configured number of polls.
func IsUnresponsive(err error) bool {
	return errors.IsUnresponsive(err)
}
