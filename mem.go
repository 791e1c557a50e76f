package enc28j60

import "github.com/joshlf/enc28j60/internal/errors"

// Each transmit slot holds a control byte followed by the frame; the chip
// appends a 7-byte status vector after the frame.

// Slots returns the number of transmit slots.
func (d *Driver) Slots() int { return d.cfg.TxSlots }

// MaxFrame returns the largest frame, excluding CRC, a transmit slot can
// hold.
func (d *Driver) MaxFrame() int { return d.cfg.maxSlotFrame() }

func (d *Driver) slotAddr(slot int) uint16 {
	return d.cfg.TxStart + uint16(slot)*d.cfg.SlotSize
}

func (d *Driver) checkSlot(slot, off, n int) error {
	if slot < 0 || slot >= d.cfg.TxSlots {
		return errors.Errorf("transmit slot %v out of range [0, %v)", slot, d.cfg.TxSlots)
	}
	if off < 0 || n < 0 || off+n > d.cfg.maxSlotFrame() {
		return errors.Errorf("%v bytes at offset %v overflow transmit slot (%v bytes)", n, off, d.cfg.maxSlotFrame())
	}
	return nil
}

// WriteSlot copies data into transmit slot slot, starting at byte off of the
// frame.
func (d *Driver) WriteSlot(slot, off int, data []byte) error {
	if err := d.checkSlot(slot, off, len(data)); err != nil {
		return errors.Annotate(err, "write slot")
	}
	if err := d.writeReg(regEWRPT, d.slotAddr(slot)+1+uint16(off)); err != nil {
		return errors.Annotate(err, "write slot")
	}
	return errors.Annotate(d.writeBuf(data), "write slot")
}

// PacketSend transmits the first n bytes staged in slot. If the previous
// transmission aborted with an error, the transmit logic is reset first.
func (d *Driver) PacketSend(slot, n int) error {
	if err := d.checkSlot(slot, 0, n); err != nil {
		return errors.Annotate(err, "send")
	}
	if n == 0 {
		return errors.New("send: empty frame")
	}
	if err := d.waitClear(regECON1, econ1TXRTS, "wait for transmitter"); err != nil {
		return errors.Annotate(err, "send")
	}
	eir, err := d.readRegByte(regEIR)
	if err != nil {
		return errors.Annotate(err, "send")
	}
	b := batch{d: d}
	if eir&eirTXERIF != 0 {
		// errata B7 #12: a late collision can wedge the transmit logic
		b.writeOp(opBitFieldSet, regECON1, econ1TXRST)
		b.writeOp(opBitFieldClr, regECON1, econ1TXRST)
		b.writeOp(opBitFieldClr, regEIR, eirTXERIF)
		if b.err == nil {
			log.Warning("transmit error; reset transmit logic")
		}
	}
	base := d.slotAddr(slot)
	b.writeReg(regEWRPT, base)
	if b.err == nil {
		// per-packet control byte: use MACON3 settings
		b.err = d.writeBuf([]byte{0x00})
	}
	b.writeReg(regETXST, base)
	b.writeReg(regETXND, base+uint16(n))
	b.writeOp(opBitFieldClr, regEIR, eirTXIF)
	b.writeOp(opBitFieldSet, regECON1, econ1TXRTS)
	return errors.Annotate(b.err, "send")
}

// Send stages frame in slot and transmits it.
func (d *Driver) Send(slot int, frame []byte) error {
	if err := d.WriteSlot(slot, 0, frame); err != nil {
		return err
	}
	return d.PacketSend(slot, len(frame))
}

// filterBits returns the ERXFCON value for the current acceptance settings.
func (d *Driver) filterBits() byte {
	f := byte(erxfconUCEN | erxfconCRCEN | erxfconPMEN)
	if d.broadcast || d.tempBroadcast {
		f |= erxfconBCEN
	}
	if d.multicast {
		f |= erxfconMCEN
	}
	return f
}

// EnableBroadcast makes the chip accept broadcast frames. If temporary is
// true, acceptance lasts until one inbound frame has been consumed.
func (d *Driver) EnableBroadcast(temporary bool) error {
	if temporary {
		d.tempBroadcast = true
	} else {
		d.broadcast = true
	}
	return errors.Annotate(d.bitSet(regERXFCON, erxfconBCEN), "enable broadcast")
}

// DisableBroadcast stops accepting broadcast frames. If temporary is true,
// only a pending temporary enable is cancelled, and a persistent enable
// stays in effect.
func (d *Driver) DisableBroadcast(temporary bool) error {
	d.tempBroadcast = false
	if !temporary {
		d.broadcast = false
	}
	if d.broadcast {
		return nil
	}
	return errors.Annotate(d.bitClear(regERXFCON, erxfconBCEN), "disable broadcast")
}

// EnableMulticast makes the chip accept multicast frames.
func (d *Driver) EnableMulticast() error {
	d.multicast = true
	return errors.Annotate(d.bitSet(regERXFCON, erxfconMCEN), "enable multicast")
}

// DisableMulticast stops accepting multicast frames.
func (d *Driver) DisableMulticast() error {
	d.multicast = false
	return errors.Annotate(d.bitClear(regERXFCON, erxfconMCEN), "disable multicast")
}

// EnablePromiscuous makes the chip accept every frame with a valid CRC.
func (d *Driver) EnablePromiscuous() error {
	return errors.Annotate(d.writeRegByte(regERXFCON, erxfconCRCEN), "enable promiscuous mode")
}

// DisablePromiscuous restores the unicast, pattern match, broadcast and
// multicast filters.
func (d *Driver) DisablePromiscuous() error {
	return errors.Annotate(d.writeRegByte(regERXFCON, d.filterBits()), "disable promiscuous mode")
}

// PowerDown stops reception, waits for in-flight frames, and puts the chip
// into power save mode. The PHY link is lost.
func (d *Driver) PowerDown() error {
	if err := d.bitClear(regECON1, econ1RXEN); err != nil {
		return errors.Annotate(err, "power down")
	}
	if err := d.waitClear(regESTAT, estatRXBUSY, "wait for receiver idle"); err != nil {
		return errors.Annotate(err, "power down")
	}
	if err := d.waitClear(regECON1, econ1TXRTS, "wait for transmitter idle"); err != nil {
		return errors.Annotate(err, "power down")
	}
	b := batch{d: d}
	b.writeOp(opBitFieldSet, regECON2, econ2VRPS)
	b.writeOp(opBitFieldSet, regECON2, econ2PWRSV)
	return errors.Annotate(b.err, "power down")
}

// PowerUp leaves power save mode and re-enables reception once the
// oscillator is stable.
func (d *Driver) PowerUp() error {
	if err := d.bitClear(regECON2, econ2PWRSV); err != nil {
		return errors.Annotate(err, "power up")
	}
	var rerr error
	err := d.t.Poll(func() bool {
		v, e := d.readRegByte(regESTAT)
		if e != nil {
			rerr = e
			return true
		}
		return v&estatCLKRDY != 0
	}, "wait for clock ready")
	if rerr != nil {
		err = rerr
	}
	if err != nil {
		return errors.Annotate(err, "power up")
	}
	return errors.Annotate(d.bitSet(regECON1, econ1RXEN), "power up")
}
