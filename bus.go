package enc28j60

import "time"

// readOp issues a read opcode for addr. MAC and MII registers clock out a
// dummy byte first.
func (d *Driver) readOp(op, addr byte) (byte, error) {
	var buf [2]byte
	n := 1
	if addr&sprdMask != 0 {
		n = 2
	}
	if err := d.t.Read([]byte{op | addr&addrMask}, buf[:n]); err != nil {
		return 0, err
	}
	return buf[n-1], nil
}

func (d *Driver) writeOp(op, addr, data byte) error {
	return d.t.Write([]byte{op | addr&addrMask, data}, nil)
}

// isCommon reports whether addr is one of the registers mapped into every
// bank.
func isCommon(addr byte) bool {
	return addr&addrMask >= regEIE
}

// setBank selects addr's bank unless it is already selected.
func (d *Driver) setBank(addr byte) error {
	if isCommon(addr) || (d.bankKnown && addr&bankMask == d.bank) {
		return nil
	}
	// forget the cached bank until both writes succeed
	d.bankKnown = false
	if err := d.writeOp(opBitFieldClr, regECON1, econ1BSEL1|econ1BSEL0); err != nil {
		return err
	}
	bank := addr & bankMask
	if bank != 0 {
		if err := d.writeOp(opBitFieldSet, regECON1, bank>>5); err != nil {
			return err
		}
	}
	d.bank, d.bankKnown = bank, true
	return nil
}

func (d *Driver) readRegByte(addr byte) (byte, error) {
	if err := d.setBank(addr); err != nil {
		return 0, err
	}
	return d.readOp(opReadCtrlReg, addr)
}

func (d *Driver) writeRegByte(addr, data byte) error {
	if err := d.setBank(addr); err != nil {
		return err
	}
	return d.writeOp(opWriteCtrlReg, addr, data)
}

// readReg reads the 16-bit register whose low byte is at addr and high byte
// at addr+1.
func (d *Driver) readReg(addr byte) (uint16, error) {
	lo, err := d.readRegByte(addr)
	if err != nil {
		return 0, err
	}
	hi, err := d.readRegByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func (d *Driver) writeReg(addr byte, data uint16) error {
	if err := d.writeRegByte(addr, byte(data)); err != nil {
		return err
	}
	return d.writeRegByte(addr+1, byte(data>>8))
}

// bitSet and bitClear apply BFS and BFC to an ETH register.
func (d *Driver) bitSet(addr, mask byte) error {
	if err := d.setBank(addr); err != nil {
		return err
	}
	return d.writeOp(opBitFieldSet, addr, mask)
}

func (d *Driver) bitClear(addr, mask byte) error {
	if err := d.setBank(addr); err != nil {
		return err
	}
	return d.writeOp(opBitFieldClr, addr, mask)
}

func (d *Driver) readBuf(dst []byte) error {
	return d.t.Read([]byte{opReadBufMem}, dst)
}

func (d *Driver) writeBuf(src []byte) error {
	return d.t.Write([]byte{opWriteBufMem}, src)
}

// waitClear polls register addr until every bit of mask is clear.
func (d *Driver) waitClear(addr, mask byte, what string) error {
	var rerr error
	err := d.t.Poll(func() bool {
		v, e := d.readRegByte(addr)
		if e != nil {
			rerr = e
			return true
		}
		return v&mask == 0
	}, what)
	if rerr != nil {
		return rerr
	}
	return err
}

// A batch issues register operations in order until one fails, and keeps
// that first error.
type batch struct {
	d   *Driver
	err error
}

func (b *batch) writeReg(addr byte, data uint16) {
	if b.err == nil {
		b.err = b.d.writeReg(addr, data)
	}
}

func (b *batch) writeRegByte(addr, data byte) {
	if b.err == nil {
		b.err = b.d.writeRegByte(addr, data)
	}
}

func (b *batch) writeOp(op, addr, data byte) {
	if b.err == nil {
		if b.err = b.d.setBank(addr); b.err == nil {
			b.err = b.d.writeOp(op, addr, data)
		}
	}
}

func (b *batch) writePhy(addr byte, data uint16) {
	if b.err == nil {
		b.err = b.d.writePhy(addr, data)
	}
}

// errata B7 #2: wait at least 1ms after a soft reset
var resetDelay = func() { time.Sleep(2 * time.Millisecond) }
