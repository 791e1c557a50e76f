// Package fakechip is a software model of an ENC28J60 Ethernet controller
// seen from its SPI bus. It implements spi.Port, decoding the controller's
// opcodes against a bank-switched register file, an indirect PHY, and
// 8 KiB of packet memory organized as a receive ring and transmit buffers.
//
// Frames arrive with Inject and leave through the transmit logic, where they
// are recorded (see Sent) and offered to any simulated peers on the link.
//
// A Chip is not safe for concurrent access.
package fakechip

import "encoding/binary"

// in-bank addresses
const (
	rERDPT   = 0x00
	rEWRPT   = 0x02
	rETXST   = 0x04
	rETXND   = 0x06
	rERXST   = 0x08
	rERXND   = 0x0A
	rERXRDPT = 0x0C
	rERXWRPT = 0x0E

	rERXFCON = 0x18
	rEPKTCNT = 0x19

	rMICMD    = 0x12
	rMIREGADR = 0x14
	rMIWRL    = 0x16
	rMIWRH    = 0x17
	rMIRDL    = 0x18
	rMIRDH    = 0x19

	rMISTAT = 0x0A
	rEREVID = 0x12

	rEIE   = 0x1B
	rEIR   = 0x1C
	rESTAT = 0x1D
	rECON2 = 0x1E
	rECON1 = 0x1F
)

// PHSTAT2 and its link status bit
const (
	PHSTAT2 = 0x11
	LSTAT   = 0x0400
)

const memSize = 0x2000

type state int

const (
	stateIdle state = iota
	stateReadReg
	stateWriteReg
	stateSetBits
	stateClrBits
	stateReadBuf
	stateWriteBuf
	stateDone
)

// A Chip is a simulated controller. The zero value is not usable; use New.
type Chip struct {
	regs [4][32]byte
	phy  [32]uint16
	mem  [memSize]byte

	// transaction state
	selected bool
	st       state
	reg      byte // in-bank address of the current register operation
	dummy    bool // a MAC/MII dummy byte is still owed
	data     byte

	wp    uint16 // receive ring write pointer
	peers []*Peer
	sent  [][]byte

	// Revision is the raw silicon revision reported by EREVID.
	Revision byte
	// Dead makes every bus transfer hang (Done never reports true).
	Dead bool
	// PHYStuck makes MISTAT.BUSY stay set forever.
	PHYStuck bool
	// PHYBusyPolls is how many MISTAT reads report BUSY after each
	// PHY command.
	PHYBusyPolls int
	// ClockWaitReads is how many ESTAT reads return zero after a reset.
	ClockWaitReads int
	// FailNextTx makes the next transmission abort with TXERIF set.
	FailNextTx bool

	phyBusy    int
	clockWait  int
	txFailed   bool
	Resets     int // soft resets received
	TxResets   int // rising edges of ECON1.TXRST
	BankWrites int // BFS/BFC operations touching ECON1 bank select bits
	Dropped    int // injected frames refused by the filter or for lack of space
}

// New returns a powered-up chip reporting raw revision 6 with the link up.
func New() *Chip {
	c := &Chip{Revision: 6}
	c.reset()
	c.phy[PHSTAT2] = LSTAT
	return c
}

func (c *Chip) reset() {
	for b := range c.regs {
		for i := range c.regs[b] {
			c.regs[b][i] = 0
		}
	}
	c.setReg16(0, rERXND, 0x1FFF)
	c.common()[rESTAT] = 0x01
	c.common()[rECON2] = 0x80
	c.clockWait = c.ClockWaitReads
	c.wp = 0
}

// common registers are kept in bank 0
func (c *Chip) common() *[32]byte { return &c.regs[0] }

func (c *Chip) bank() int { return int(c.common()[rECON1] & 0x03) }

func (c *Chip) regPtr(addr byte) *byte {
	if addr >= rEIE {
		return &c.common()[addr]
	}
	return &c.regs[c.bank()][addr]
}

func (c *Chip) reg16(bank int, addr byte) uint16 {
	return uint16(c.regs[bank][addr]) | uint16(c.regs[bank][addr+1])<<8
}

func (c *Chip) setReg16(bank int, addr byte, v uint16) {
	c.regs[bank][addr] = byte(v)
	c.regs[bank][addr+1] = byte(v >> 8)
}

// isMACMII reports whether addr in the current bank is a MAC or MII
// register, which clocks a dummy byte before its value.
func (c *Chip) isMACMII(addr byte) bool {
	switch c.bank() {
	case 2:
		return addr < rEIE
	case 3:
		return addr <= 0x05 || addr == rMISTAT
	}
	return false
}

// Select implements spi.Port.
func (c *Chip) Select(active bool) {
	c.selected = active
	c.st = stateIdle
}

// Done implements spi.Port.
func (c *Chip) Done() bool {
	return !c.Dead
}

// Data implements spi.Port.
func (c *Chip) Data() byte { return c.data }

// Start implements spi.Port.
func (c *Chip) Start(out byte) {
	c.data = 0
	if !c.selected {
		return
	}
	switch c.st {
	case stateIdle:
		c.opcode(out)
	case stateReadReg:
		if c.dummy {
			c.dummy = false
			return
		}
		c.data = c.readReg(c.reg)
		c.st = stateDone
	case stateWriteReg:
		c.writeReg(c.reg, out)
		c.st = stateDone
	case stateSetBits:
		if c.reg == rECON1 && out&0x03 != 0 {
			c.BankWrites++
		}
		c.writeReg(c.reg, *c.regPtr(c.reg)|out)
		c.st = stateDone
	case stateClrBits:
		if c.reg == rECON1 && out&0x03 != 0 {
			c.BankWrites++
		}
		c.writeReg(c.reg, *c.regPtr(c.reg)&^out)
		c.st = stateDone
	case stateReadBuf:
		c.data = c.readBuf()
	case stateWriteBuf:
		c.writeBuf(out)
	}
}

func (c *Chip) opcode(op byte) {
	switch {
	case op == 0xFF:
		c.Resets++
		c.reset()
		c.st = stateDone
	case op == 0x3A:
		c.st = stateReadBuf
	case op == 0x7A:
		c.st = stateWriteBuf
	default:
		c.reg = op & 0x1F
		switch op & 0xE0 {
		case 0x00:
			c.st = stateReadReg
			c.dummy = c.isMACMII(c.reg)
		case 0x40:
			c.st = stateWriteReg
		case 0x80:
			c.st = stateSetBits
		case 0xA0:
			c.st = stateClrBits
		default:
			c.st = stateDone
		}
	}
}

func (c *Chip) readReg(addr byte) byte {
	switch {
	case addr == rESTAT:
		if c.clockWait > 0 {
			c.clockWait--
			return 0
		}
	case c.bank() == 3 && addr == rMISTAT:
		if c.PHYStuck {
			return 0x01
		}
		if c.phyBusy > 0 {
			c.phyBusy--
			return 0x01
		}
		return 0
	case c.bank() == 3 && addr == rEREVID:
		return c.Revision
	}
	return *c.regPtr(addr)
}

func (c *Chip) writeReg(addr byte, v byte) {
	p := c.regPtr(addr)
	old := *p
	*p = v
	switch {
	case addr == rECON1:
		if v&0x80 != 0 && old&0x80 == 0 {
			c.TxResets++
			c.txFailed = false
		}
		if v&0x08 != 0 && old&0x08 == 0 {
			c.transmit()
		}
	case addr == rECON2:
		if v&0x40 != 0 {
			if c.regs[1][rEPKTCNT] > 0 {
				c.regs[1][rEPKTCNT]--
			}
			*p &^= 0x40
		}
	case c.bank() == 2 && addr == rMICMD:
		if v&0x01 != 0 {
			r := c.phy[c.regs[2][rMIREGADR]&0x1F]
			c.regs[2][rMIRDL] = byte(r)
			c.regs[2][rMIRDH] = byte(r >> 8)
			c.phyBusy = c.PHYBusyPolls
		}
	case c.bank() == 2 && addr == rMIWRH:
		c.phy[c.regs[2][rMIREGADR]&0x1F] = c.reg16(2, rMIWRL)
		c.phyBusy = c.PHYBusyPolls
	}
}

func (c *Chip) readBuf() byte {
	p := c.reg16(0, rERDPT)
	v := c.mem[p%memSize]
	if p == c.reg16(0, rERXND) {
		p = c.reg16(0, rERXST)
	} else {
		p = (p + 1) % memSize
	}
	c.setReg16(0, rERDPT, p)
	return v
}

func (c *Chip) writeBuf(v byte) {
	p := c.reg16(0, rEWRPT)
	c.mem[p%memSize] = v
	c.setReg16(0, rEWRPT, (p+1)%memSize)
}

// transmit sends the frame between ETXST+1 and ETXND inclusive; the byte at
// ETXST is the per-packet control byte.
func (c *Chip) transmit() {
	defer func() { c.common()[rECON1] &^= 0x08 }()
	if c.txFailed {
		// the transmit logic is wedged until reset
		return
	}
	if c.FailNextTx {
		c.FailNextTx = false
		c.txFailed = true
		c.common()[rEIR] |= 0x02
		return
	}
	st, nd := c.reg16(0, rETXST), c.reg16(0, rETXND)
	if nd < st {
		return
	}
	frame := make([]byte, int(nd-st))
	copy(frame, c.mem[st+1:nd+1])
	c.sent = append(c.sent, frame)
	c.common()[rEIR] |= 0x08
	for _, p := range c.peers {
		p.receive(c, frame)
	}
}

// Sent returns every frame transmitted so far, oldest first.
func (c *Chip) Sent() [][]byte { return c.sent }

// ClearSent forgets previously transmitted frames.
func (c *Chip) ClearSent() { c.sent = nil }

// SetLink sets the PHY link status.
func (c *Chip) SetLink(up bool) {
	if up {
		c.phy[PHSTAT2] |= LSTAT
	} else {
		c.phy[PHSTAT2] &^= LSTAT
	}
}

// PHY returns the value of PHY register addr.
func (c *Chip) PHY(addr byte) uint16 { return c.phy[addr&0x1F] }

// Reg returns the value of the register at in-bank address addr of bank.
// Common registers may be read with any bank.
func (c *Chip) Reg(bank int, addr byte) byte {
	if addr >= rEIE {
		return c.common()[addr]
	}
	return c.regs[bank][addr]
}

// Reg16 returns the little endian register pair at addr in bank.
func (c *Chip) Reg16(bank int, addr byte) uint16 { return c.reg16(bank, addr) }

// ReadPointer returns ERXRDPT, the receive ring free pointer.
func (c *Chip) ReadPointer() uint16 { return c.reg16(0, rERXRDPT) }

// MAC returns the station address programmed into MAADR1-6.
func (c *Chip) MAC() [6]byte {
	r := &c.regs[3]
	return [6]byte{r[0x04], r[0x05], r[0x02], r[0x03], r[0x00], r[0x01]}
}

// PacketCount returns EPKTCNT.
func (c *Chip) PacketCount() int { return int(c.regs[1][rEPKTCNT]) }

// Mem returns the packet memory.
func (c *Chip) Mem() []byte { return c.mem[:] }

func (c *Chip) accepts(frame []byte) bool {
	if c.common()[rECON1]&0x04 == 0 || len(frame) < 14 {
		return false
	}
	f := c.regs[1][rERXFCON]
	// with every filter disabled (CRCEN and ANDOR aside) the chip is
	// promiscuous
	if f&^0x60 == 0 {
		return true
	}
	dst := frame[:6]
	bcast := true
	for _, b := range dst {
		if b != 0xFF {
			bcast = false
		}
	}
	mac := c.MAC()
	switch {
	case f&0x80 != 0 && string(dst) == string(mac[:]):
		return true
	case f&0x01 != 0 && bcast:
		return true
	case f&0x02 != 0 && !bcast && dst[0]&1 != 0:
		return true
	case f&0x10 != 0 && bcast && binary.BigEndian.Uint16(frame[12:14]) == 0x0806:
		// the ARP broadcast pattern programmed into EPMM/EPMCS
		return true
	}
	return false
}

// Inject delivers frame (without CRC) to the receive ring as if it arrived
// from the wire. It reports whether the frame was accepted by the receive
// filter and fit in the ring.
func (c *Chip) Inject(frame []byte) bool {
	if !c.accepts(frame) {
		c.Dropped++
		return false
	}
	return c.store(frame, 0x80)
}

// InjectStatus is like Inject, but bypasses the filter and stores the frame
// with the given receive status word, so that frames with the received-ok
// bit (0x80) clear can be produced.
func (c *Chip) InjectStatus(frame []byte, status uint16) bool {
	return c.store(frame, status)
}

func (c *Chip) store(frame []byte, status uint16) bool {
	st, nd := c.reg16(0, rERXST), c.reg16(0, rERXND)
	size := int(nd) - int(st) + 1
	count := len(frame) + 4
	need := 6 + count
	need += need & 1
	rd := c.reg16(0, rERXRDPT)
	free := (int(rd) - int(c.wp) - 1 + 2*size) % size
	if c.regs[1][rEPKTCNT] == 0 {
		free = size - 1
	}
	if need > free || c.regs[1][rEPKTCNT] == 0xFF {
		c.Dropped++
		return false
	}

	next := c.wp
	for i := 0; i < need; i++ {
		next = c.ringNext(next, st, nd)
	}
	var hdr [6]byte
	binary.LittleEndian.PutUint16(hdr[0:2], next)
	binary.LittleEndian.PutUint16(hdr[2:4], uint16(count))
	binary.LittleEndian.PutUint16(hdr[4:6], status)
	p := c.wp
	for _, b := range hdr {
		c.mem[p] = b
		p = c.ringNext(p, st, nd)
	}
	for _, b := range frame {
		c.mem[p] = b
		p = c.ringNext(p, st, nd)
	}
	for i := 0; i < 4; i++ {
		c.mem[p] = 0
		p = c.ringNext(p, st, nd)
	}
	c.wp = next
	c.setReg16(0, rERXWRPT, next)
	c.regs[1][rEPKTCNT]++
	return true
}

func (c *Chip) ringNext(p, st, nd uint16) uint16 {
	if p == nd {
		return st
	}
	return p + 1
}

// SetWritePointer moves the receive ring write pointer; frames injected
// afterwards are stored from p. It must only be used while the ring is empty.
func (c *Chip) SetWritePointer(p uint16) {
	c.wp = p
	c.setReg16(0, rERXWRPT, p)
}
