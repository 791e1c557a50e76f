package enc28j60

import "github.com/joshlf/enc28j60/internal/errors"

// readPhy reads PHY register addr through MIREGADR/MICMD/MIRD.
func (d *Driver) readPhy(addr byte) (uint16, error) {
	b := batch{d: d}
	b.writeRegByte(regMIREGADR, addr)
	b.writeRegByte(regMICMD, micmdMIIRD)
	if b.err != nil {
		return 0, b.err
	}
	if err := d.waitClear(regMISTAT, mistatBUSY, "phy read"); err != nil {
		return 0, err
	}
	if err := d.writeRegByte(regMICMD, 0x00); err != nil {
		return 0, err
	}
	return d.readReg(regMIRD)
}

// readPhyByte returns the high byte of PHY register addr.
func (d *Driver) readPhyByte(addr byte) (byte, error) {
	v, err := d.readPhy(addr)
	return byte(v >> 8), err
}

// writePhy writes PHY register addr; writing the high byte of MIWR starts
// the transaction.
func (d *Driver) writePhy(addr byte, data uint16) error {
	if err := d.writeRegByte(regMIREGADR, addr); err != nil {
		return err
	}
	if err := d.writeReg(regMIWR, data); err != nil {
		return err
	}
	return d.waitClear(regMISTAT, mistatBUSY, "phy write")
}

// IsLinkUp reports the PHY's link status (PHSTAT2.LSTAT).
func (d *Driver) IsLinkUp() (bool, error) {
	v, err := d.readPhyByte(phyPHSTAT2)
	if err != nil {
		return false, errors.Annotate(err, "read link status")
	}
	return (v>>2)&1 == 1, nil
}
